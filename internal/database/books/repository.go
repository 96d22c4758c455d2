// Package books provides database operations for books, their authors and categories,
// and the loans made against them.
//
// This package implements the store interfaces defined in internal/http and
// internal/services.
//
// # Interface Implementation
//
//	var _ services.BookStore = (*Repository)(nil)
//
// # Usage
//
//	repo := books.NewRepository(db)
//	book, err := repo.AddBook(ctx, entities.BookInput{Title: "Dune", ...})
//
// # Transactions
//
// Multi-statement writes (AddBook, UpdateBook, DeleteBook, CreateLoan, ReturnBook)
// each run in their own transaction and roll back on any failure. WithinTransaction
// lets a caller group several of them; the inner ones then run as savepoints.
package books

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/bookstore/internal/apperr"
	"github.com/mrlokans/bookstore/internal/entities"
)

type txKey struct{}

// Repository handles all book, author, category and loan database operations.
type Repository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// conn returns the transaction carried by ctx, or a pooled handle bound to ctx.
func (r *Repository) conn(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return r.db.WithContext(ctx)
}

// WithinTransaction runs fn inside one transaction. Repository calls made with the
// context passed to fn join that transaction.
func (r *Repository) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	err := r.conn(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
	return apperr.FromStorage("books.WithinTransaction", err)
}

// ListBooks returns every book with its category name and comma separated author
// names, newest first.
func (r *Repository) ListBooks(ctx context.Context) ([]entities.BookListItem, error) {
	var items []entities.BookListItem
	err := r.conn(ctx).Raw(`
		SELECT b.id, b.title, COALESCE(c.name, '') AS category_name, b.price,
		       b.condition_status, b.is_borrowed,
		       COALESCE(GROUP_CONCAT(a.name, ', '), '') AS authors
		FROM books b
		LEFT JOIN categories c ON b.category_id = c.id
		LEFT JOIN book_authors ba ON b.id = ba.book_id
		LEFT JOIN authors a ON ba.author_id = a.id
		GROUP BY b.id
		ORDER BY b.id DESC`).Scan(&items).Error
	if err != nil {
		return nil, apperr.FromStorage("books.ListBooks", err)
	}
	return items, nil
}

// GetBookByID retrieves a book and the ids of its linked authors.
func (r *Repository) GetBookByID(ctx context.Context, id uint) (*entities.BookDetails, error) {
	const op = "books.GetBookByID"

	var book entities.Book
	if err := r.conn(ctx).First(&book, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound(op, "book")
		}
		return nil, apperr.FromStorage(op, err)
	}

	authorIDs := []uint{}
	err := r.conn(ctx).Model(&entities.BookAuthor{}).
		Where("book_id = ?", id).
		Order("author_id ASC").
		Pluck("author_id", &authorIDs).Error
	if err != nil {
		return nil, apperr.FromStorage(op, err)
	}

	return &entities.BookDetails{Book: book, AuthorIDs: authorIDs}, nil
}

// ListAuthors retrieves all authors, for selection inputs.
func (r *Repository) ListAuthors(ctx context.Context) ([]entities.Author, error) {
	var authors []entities.Author
	if err := r.conn(ctx).Order("name ASC").Find(&authors).Error; err != nil {
		return nil, apperr.FromStorage("books.ListAuthors", err)
	}
	return authors, nil
}

// ListActiveCategories retrieves the categories offered in forms.
func (r *Repository) ListActiveCategories(ctx context.Context) ([]entities.Category, error) {
	var categories []entities.Category
	err := r.conn(ctx).Where("is_active = ?", true).Order("name ASC").Find(&categories).Error
	if err != nil {
		return nil, apperr.FromStorage("books.ListActiveCategories", err)
	}
	return categories, nil
}

// AddBook inserts a book and its author links atomically.
func (r *Repository) AddBook(ctx context.Context, in entities.BookInput) (*entities.Book, error) {
	const op = "books.AddBook"
	if err := in.Validate(); err != nil {
		return nil, apperr.Validationf(op, err)
	}

	book := entities.Book{
		Title:           strings.TrimSpace(in.Title),
		Price:           in.Price,
		ConditionStatus: in.ConditionStatus,
		CategoryID:      in.CategoryID,
		PublicationDate: r.now(),
	}

	err := r.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&book).Error; err != nil {
			return err
		}
		return linkAuthors(tx, book.ID, in.UniqueAuthorIDs())
	})
	if err != nil {
		return nil, referenceError(op, err)
	}
	return &book, nil
}

// UpdateBook replaces the scalar fields of a book and its complete author link set.
// Links are deleted and reinserted, never diffed.
func (r *Repository) UpdateBook(ctx context.Context, id uint, in entities.BookInput) error {
	const op = "books.UpdateBook"
	if err := in.Validate(); err != nil {
		return apperr.Validationf(op, err)
	}

	err := r.conn(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&entities.Book{}).Where("id = ?", id).Updates(map[string]any{
			"title":            strings.TrimSpace(in.Title),
			"price":            in.Price,
			"condition_status": string(in.ConditionStatus),
			"category_id":      in.CategoryID,
		})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return apperr.NotFound(op, "book")
		}

		if err := tx.Where("book_id = ?", id).Delete(&entities.BookAuthor{}).Error; err != nil {
			return err
		}
		return linkAuthors(tx, id, in.UniqueAuthorIDs())
	})
	if err != nil {
		return referenceError(op, err)
	}
	return nil
}

// DeleteBook removes a book. Its author links and returned loans are removed by the
// store's cascading foreign keys. A book that is currently on loan is not deleted.
func (r *Repository) DeleteBook(ctx context.Context, id uint) error {
	const op = "books.DeleteBook"

	err := r.conn(ctx).Transaction(func(tx *gorm.DB) error {
		active, err := countActiveLoans(tx, id)
		if err != nil {
			return err
		}
		if active > 0 {
			return apperr.Conflict(op, "book is on loan and cannot be deleted")
		}

		result := tx.Delete(&entities.Book{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return apperr.NotFound(op, "book")
		}
		return nil
	})
	return apperr.FromStorage(op, err)
}

func linkAuthors(tx *gorm.DB, bookID uint, authorIDs []uint) error {
	if len(authorIDs) == 0 {
		return nil
	}
	links := make([]entities.BookAuthor, len(authorIDs))
	for i, authorID := range authorIDs {
		links[i] = entities.BookAuthor{BookID: bookID, AuthorID: authorID}
	}
	return tx.Create(&links).Error
}

// referenceError turns a foreign key failure into a message naming what was wrong.
func referenceError(op string, err error) error {
	err = apperr.FromStorage(op, err)
	var appErr *apperr.Error
	if errors.As(err, &appErr) && appErr.Kind == apperr.KindValidation && appErr.Op == op && appErr.Err != nil {
		return &apperr.Error{Kind: apperr.KindValidation, Op: op, Message: "unknown category or author", Err: appErr.Err}
	}
	return err
}
