package services

import (
	"context"

	"github.com/mrlokans/bookstore/internal/entities"
)

// BookStore is the part of the book repository the import needs.
// Implemented by books.Repository.
type BookStore interface {
	AddBook(ctx context.Context, in entities.BookInput) (*entities.Book, error)
	// WithinTransaction runs fn in one transaction; store calls made with the
	// context handed to fn join it.
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ImportResult contains the outcome of an import operation.
type ImportResult struct {
	Total    int `json:"total"`    // elements in the document
	Imported int `json:"imported"` // books added
	Skipped  int `json:"skipped"`  // elements without a title or price
}
