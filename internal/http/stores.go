package http

import (
	"context"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/bookstore/internal/auth"
	"github.com/mrlokans/bookstore/internal/entities"
	"github.com/mrlokans/bookstore/internal/services"
)

// This file consolidates the store interfaces used by the controllers.
// books.Repository implements BookStore and LoanStore, reports.Repository ReportStore.

// BookStore provides the book catalogue operations.
type BookStore interface {
	ListBooks(ctx context.Context) ([]entities.BookListItem, error)
	GetBookByID(ctx context.Context, id uint) (*entities.BookDetails, error)
	ListAuthors(ctx context.Context) ([]entities.Author, error)
	ListActiveCategories(ctx context.Context) ([]entities.Category, error)
	AddBook(ctx context.Context, in entities.BookInput) (*entities.Book, error)
	UpdateBook(ctx context.Context, id uint, in entities.BookInput) error
	DeleteBook(ctx context.Context, id uint) error
	ListLoansForBook(ctx context.Context, bookID uint) ([]entities.Loan, error)
}

// LoanStore provides borrowing and returning.
type LoanStore interface {
	GetBookByID(ctx context.Context, id uint) (*entities.BookDetails, error)
	CreateLoan(ctx context.Context, bookID uint, borrowerName string) (*entities.Loan, error)
	ReturnBook(ctx context.Context, bookID uint) (bool, error)
	ListActiveLoans(ctx context.Context) ([]entities.ActiveLoan, error)
}

// ReportStore reads the aggregate statistics views.
type ReportStore interface {
	GetStats(ctx context.Context) ([]entities.CategoryStat, error)
	GetTotals(ctx context.Context) (entities.CategoryStat, error)
}

// BookImporter imports a JSON document of books.
type BookImporter interface {
	ImportJSON(ctx context.Context, data []byte, opts services.ImportOptions) (services.ImportResult, error)
}

// TaskQueue enqueues background tasks and reports their status.
// Implemented by tasks.Client.
type TaskQueue interface {
	Enqueue(ctx context.Context, task backlite.Task) (string, error)
	Status(ctx context.Context, taskID string) (string, error)
}

// Flasher carries one-shot notices across a redirect.
// Implemented by auth.SessionManager.
type Flasher interface {
	PutFlash(ctx context.Context, kind auth.FlashKind, message string)
	PopFlash(ctx context.Context) *auth.Flash
}

// Pinger checks storage connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// noFlash is used when sessions are disabled; notices are dropped.
type noFlash struct{}

func (noFlash) PutFlash(context.Context, auth.FlashKind, string) {}

func (noFlash) PopFlash(context.Context) *auth.Flash { return nil }
