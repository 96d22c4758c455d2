package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/mrlokans/bookstore/internal/database"
	"github.com/mrlokans/bookstore/internal/database/books"
	"github.com/mrlokans/bookstore/internal/services"
)

var errDryRun = errors.New("dry run")

// ImportCommand imports a JSON file of books without starting the server.
type ImportCommand struct {
	configFlags
	File    string
	Atomic  bool
	DryRun  bool
	Verbose bool
}

func NewImportCommand() *ImportCommand {
	return &ImportCommand{}
}

func (cmd *ImportCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	cmd.configFlags.register(fs)

	fs.StringVar(&cmd.File, "file", "", "Path to the JSON document to import (required)")
	fs.BoolVar(&cmd.Atomic, "atomic", false, "Import all books or none (default: import.atomic from the config)")
	fs.BoolVar(&cmd.DryRun, "dry-run", false, "Run the import and roll it back")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Print the effective settings")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s import -file <path> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Import a JSON array of books into the library database.\n")
		fmt.Fprintf(os.Stderr, "Elements without a title or price are skipped.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s import -file books.json\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s import -file books.json -atomic -db ./library.db\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s import -file books.json -dry-run\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.File == "" {
		return fmt.Errorf("required flag -file not provided")
	}
	return nil
}

func (cmd *ImportCommand) Run() error {
	fmt.Println("Book Import")
	fmt.Println("===========")

	if cmd.DryRun {
		fmt.Println("DRY RUN MODE - No changes will be made")
	}

	cfg, err := cmd.load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	data, err := os.ReadFile(cmd.File)
	if err != nil {
		return fmt.Errorf("failed to read import file: %w", err)
	}

	db, err := database.NewDatabase(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	repo := books.NewRepository(db.DB)
	importer := services.NewImportService(repo, services.ImportDefaults{
		AuthorID:   cfg.Import.DefaultAuthorID,
		CategoryID: cfg.Import.DefaultCategoryID,
	})
	opts := services.ImportOptions{Atomic: cmd.Atomic || cfg.Import.Atomic}

	if cmd.Verbose {
		fmt.Printf("File: %s\n", cmd.File)
		fmt.Printf("Database: %s\n", cfg.Database.Path)
		fmt.Printf("Atomic: %t\n", opts.Atomic)
	}

	ctx := context.Background()
	var result services.ImportResult
	if cmd.DryRun {
		err = repo.WithinTransaction(ctx, func(ctx context.Context) error {
			var importErr error
			result, importErr = importer.ImportJSON(ctx, data, opts)
			if importErr != nil {
				return importErr
			}
			return errDryRun
		})
		if errors.Is(err, errDryRun) {
			err = nil
		}
	} else {
		result, err = importer.ImportJSON(ctx, data, opts)
	}

	fmt.Println("\n=== Import Summary ===")
	fmt.Printf("Elements: %d\n", result.Total)
	fmt.Printf("Imported: %d\n", result.Imported)
	fmt.Printf("Skipped:  %d\n", result.Skipped)

	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	if cmd.DryRun {
		fmt.Println("\nDry run complete. Use without -dry-run to import.")
		return nil
	}
	fmt.Println("\nImport complete!")
	return nil
}
