package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/bookstore/internal/services"
)

// BookImporter imports a JSON document of books.
// Implemented by services.ImportService.
type BookImporter interface {
	ImportJSON(ctx context.Context, data []byte, opts services.ImportOptions) (services.ImportResult, error)
}

// ImportBooksTask imports an uploaded document in the background.
type ImportBooksTask struct {
	Document []byte `json:"document"`
	Source   string `json:"source,omitempty"` // uploaded file name, for logs
	Atomic   bool   `json:"atomic"`
}

// Config returns the queue configuration for import tasks. A partial import is
// not idempotent, so failed imports are never retried.
func (t ImportBooksTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "import_books",
		MaxAttempts: 1,
		Backoff:     time.Minute,
		Timeout:     10 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// ImportBooksProcessor creates a processor function for ImportBooksTask.
func ImportBooksProcessor(importer BookImporter) backlite.QueueProcessor[ImportBooksTask] {
	return func(ctx context.Context, task ImportBooksTask) error {
		if importer == nil {
			return fmt.Errorf("book importer not configured")
		}

		result, err := importer.ImportJSON(ctx, task.Document, services.ImportOptions{Atomic: task.Atomic})
		if err != nil {
			return fmt.Errorf("import %s: %w", task.Source, err)
		}

		log.Printf("[TASK] Imported %d books from %s (%d skipped)", result.Imported, task.Source, result.Skipped)
		return nil
	}
}

// NewImportBooksQueue creates a backlite queue for import tasks.
func NewImportBooksQueue(importer BookImporter) backlite.Queue {
	return backlite.NewQueue(ImportBooksProcessor(importer))
}
