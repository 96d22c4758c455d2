package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"strconv"
	"strings"

	"github.com/mrlokans/bookstore/internal/apperr"
	"github.com/mrlokans/bookstore/internal/entities"
)

// ErrInvalidDocument marks an import file that cannot be used at all: malformed
// JSON, a top level that is not an array, or a book element whose fields cannot
// be stored. Nothing is written when it is returned.
var ErrInvalidDocument = errors.New("invalid import document")

// ImportError is returned when a book insert fails part way through an import.
type ImportError struct {
	Index    int // zero-based position of the failing element
	Imported int // books that stay committed
	Err      error
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("import aborted at element %d (%d books kept): %v", e.Index, e.Imported, e.Err)
}

func (e *ImportError) Unwrap() error {
	return e.Err
}

type ImportDefaults struct {
	AuthorID   uint
	CategoryID uint
}

type ImportOptions struct {
	// Atomic wraps the whole document in one transaction. Without it each book
	// commits on its own and a failure keeps the books added before it.
	Atomic bool
}

// ImportService replays a JSON document as a sequence of add-book transactions.
type ImportService struct {
	store    BookStore
	defaults ImportDefaults
}

func NewImportService(store BookStore, defaults ImportDefaults) *ImportService {
	return &ImportService{
		store:    store,
		defaults: defaults,
	}
}

// ImportReader reads the whole of r and imports it.
func (s *ImportService) ImportReader(ctx context.Context, r io.Reader, opts ImportOptions) (ImportResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return ImportResult{}, fmt.Errorf("failed to read import document: %w", err)
	}
	return s.ImportJSON(ctx, data, opts)
}

// ImportJSON imports every element of data that carries both a title and a price,
// with condition status "new". Elements where either key is absent or null are
// skipped and not counted, whatever else they contain.
//
// The document is parsed and checked completely before the first insert.
func (s *ImportService) ImportJSON(ctx context.Context, data []byte, opts ImportOptions) (ImportResult, error) {
	const op = "services.ImportJSON"

	records, err := parseDocument(data, s.defaults)
	if err != nil {
		return ImportResult{}, &apperr.Error{
			Kind:    apperr.KindValidation,
			Op:      op,
			Message: fmt.Sprintf("%v: %v", ErrInvalidDocument, err),
			Err:     ErrInvalidDocument,
		}
	}

	result := ImportResult{Total: len(records)}
	inputs := make([]indexedInput, 0, len(records))
	for i, rec := range records {
		if !rec.complete() {
			result.Skipped++
			continue
		}
		inputs = append(inputs, indexedInput{index: i, input: rec.toInput(s.defaults)})
	}

	if opts.Atomic {
		err = s.store.WithinTransaction(ctx, func(ctx context.Context) error {
			imported, err := s.insertAll(ctx, inputs)
			result.Imported = imported
			return err
		})
		if err != nil {
			// Nothing survived the rollback
			result.Imported = 0
			var importErr *ImportError
			if errors.As(err, &importErr) {
				importErr.Imported = 0
			}
		}
	} else {
		result.Imported, err = s.insertAll(ctx, inputs)
	}

	if err != nil {
		log.Printf("[IMPORT] Import failed after %d of %d books (atomic=%t): %v", result.Imported, len(inputs), opts.Atomic, err)
		return result, err
	}

	log.Printf("[IMPORT] Imported %d books, skipped %d incomplete elements", result.Imported, result.Skipped)
	return result, nil
}

type indexedInput struct {
	index int
	input entities.BookInput
}

func (s *ImportService) insertAll(ctx context.Context, inputs []indexedInput) (int, error) {
	imported := 0
	for _, in := range inputs {
		if err := ctx.Err(); err != nil {
			return imported, &ImportError{Index: in.index, Imported: imported, Err: err}
		}
		if _, err := s.store.AddBook(ctx, in.input); err != nil {
			return imported, &ImportError{Index: in.index, Imported: imported, Err: err}
		}
		imported++
	}
	return imported, nil
}

// importRecord is one element of the document. Elements without a title or a
// price are kept only as skip markers; their other keys are never looked at.
type importRecord struct {
	skip       bool
	title      string
	price      float64
	authors    []uint
	hasAuthors bool
	categoryID *uint
}

func (r importRecord) complete() bool {
	return !r.skip
}

func (r importRecord) toInput(defaults ImportDefaults) entities.BookInput {
	authors := []uint{defaults.AuthorID}
	if r.hasAuthors {
		authors = r.authors
	}
	categoryID := defaults.CategoryID
	if r.categoryID != nil {
		categoryID = *r.categoryID
	}
	return entities.BookInput{
		Title:           strings.TrimSpace(r.title),
		Price:           r.price,
		ConditionStatus: entities.ConditionNew,
		CategoryID:      categoryID,
		AuthorIDs:       authors,
	}
}

func parseDocument(data []byte, defaults ImportDefaults) ([]importRecord, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, errors.New("top level must be an array")
	}

	var elements []json.RawMessage
	if err := json.Unmarshal(trimmed, &elements); err != nil {
		return nil, fmt.Errorf("malformed JSON: %w", err)
	}

	records := make([]importRecord, len(elements))
	for i, raw := range elements {
		rec, err := parseRecord(raw)
		if err == nil && rec.complete() {
			err = rec.toInput(defaults).Validate()
		}
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		records[i] = rec
	}
	return records, nil
}

func parseRecord(raw json.RawMessage) (importRecord, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return importRecord{}, errors.New("must be an object")
	}

	rawTitle, hasTitle := present(fields, "title")
	rawPrice, hasPrice := present(fields, "price")
	if !hasTitle || !hasPrice {
		return importRecord{skip: true}, nil
	}

	var rec importRecord
	title, err := parseTitle(rawTitle)
	if err != nil {
		return rec, err
	}
	rec.title = title

	if rec.price, err = parsePrice(rawPrice); err != nil {
		return rec, err
	}

	if v, ok := present(fields, "authors"); ok {
		var authors []uint
		if err := json.Unmarshal(v, &authors); err != nil {
			return rec, errors.New("authors must be an array of author ids")
		}
		rec.authors = authors
		rec.hasAuthors = true
	}

	if v, ok := present(fields, "category_id"); ok {
		var categoryID uint
		if err := json.Unmarshal(v, &categoryID); err != nil {
			return rec, errors.New("category_id must be a category id")
		}
		rec.categoryID = &categoryID
	}

	return rec, nil
}

// present returns the raw value of key unless it is absent or null.
func present(fields map[string]json.RawMessage, key string) (json.RawMessage, bool) {
	v, ok := fields[key]
	if !ok || string(bytes.TrimSpace(v)) == "null" {
		return nil, false
	}
	return v, true
}

// parseTitle accepts a JSON string, or a number stored as its literal text.
func parseTitle(v json.RawMessage) (string, error) {
	var title string
	if err := json.Unmarshal(v, &title); err == nil {
		return title, nil
	}
	var number json.Number
	if err := json.Unmarshal(v, &number); err == nil {
		return number.String(), nil
	}
	return "", errors.New("title must be text")
}

// parsePrice accepts a JSON number or a numeric string such as "12.50".
func parsePrice(v json.RawMessage) (float64, error) {
	var price float64
	if err := json.Unmarshal(v, &price); err == nil {
		return price, nil
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		price, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err == nil && !math.IsNaN(price) && !math.IsInf(price, 0) {
			return price, nil
		}
	}
	return 0, errors.New("price must be a number")
}
