package books

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/mrlokans/bookstore/internal/apperr"
	"github.com/mrlokans/bookstore/internal/entities"
)

// CreateLoan records a new loan and marks the book as borrowed. A book can have at
// most one active loan; the partial unique index on loans backs the check below.
func (r *Repository) CreateLoan(ctx context.Context, bookID uint, borrowerName string) (*entities.Loan, error) {
	const op = "books.CreateLoan"

	borrowerName = strings.TrimSpace(borrowerName)
	if borrowerName == "" {
		return nil, apperr.Validation(op, "borrower name is required")
	}

	loan := entities.Loan{
		BookID:       bookID,
		BorrowerName: borrowerName,
		LoanDate:     r.now(),
	}

	err := r.conn(ctx).Transaction(func(tx *gorm.DB) error {
		var book entities.Book
		if err := tx.Select("id").First(&book, bookID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound(op, "book")
			}
			return err
		}

		active, err := countActiveLoans(tx, bookID)
		if err != nil {
			return err
		}
		if active > 0 {
			return apperr.Conflict(op, "book is already on loan")
		}

		if err := tx.Create(&loan).Error; err != nil {
			return err
		}
		return tx.Model(&entities.Book{}).Where("id = ?", bookID).Update("is_borrowed", true).Error
	})
	if err != nil {
		err = apperr.FromStorage(op, err)
		if apperr.IsConflict(err) {
			return nil, apperr.Conflict(op, "book is already on loan")
		}
		return nil, err
	}
	return &loan, nil
}

// ReturnBook closes the most recent active loan of a book and clears its borrowed
// flag. Returning a book without an active loan is not an error; closed reports
// whether a loan was actually closed.
func (r *Repository) ReturnBook(ctx context.Context, bookID uint) (closed bool, err error) {
	const op = "books.ReturnBook"

	err = r.conn(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Exec(`
			UPDATE loans SET returned_date = ?
			WHERE id = (
				SELECT id FROM loans
				WHERE book_id = ? AND returned_date IS NULL
				ORDER BY loan_date DESC, id DESC
				LIMIT 1
			)`, r.now(), bookID)
		if result.Error != nil {
			return result.Error
		}
		closed = result.RowsAffected > 0

		return tx.Model(&entities.Book{}).Where("id = ?", bookID).Update("is_borrowed", false).Error
	})
	if err != nil {
		return false, apperr.FromStorage(op, err)
	}
	return closed, nil
}

// ListActiveLoans returns open loans with their book titles, most recent first.
func (r *Repository) ListActiveLoans(ctx context.Context) ([]entities.ActiveLoan, error) {
	var loans []entities.ActiveLoan
	err := r.conn(ctx).Raw(`
		SELECT l.id, l.book_id, b.title AS book_title, l.borrower_name, l.loan_date
		FROM loans l
		JOIN books b ON l.book_id = b.id
		WHERE l.returned_date IS NULL
		ORDER BY l.loan_date DESC, l.id DESC`).Scan(&loans).Error
	if err != nil {
		return nil, apperr.FromStorage("books.ListActiveLoans", err)
	}
	return loans, nil
}

// ListLoansForBook returns the full loan history of a book, most recent first.
func (r *Repository) ListLoansForBook(ctx context.Context, bookID uint) ([]entities.Loan, error) {
	loans := []entities.Loan{}
	err := r.conn(ctx).
		Where("book_id = ?", bookID).
		Order("loan_date DESC, id DESC").
		Find(&loans).Error
	if err != nil {
		return nil, apperr.FromStorage("books.ListLoansForBook", err)
	}
	return loans, nil
}

// ReconcileBorrowedFlags sets is_borrowed from the loans table for every book whose
// flag disagrees with it, and returns how many books were repaired.
func (r *Repository) ReconcileBorrowedFlags(ctx context.Context) (int64, error) {
	result := r.conn(ctx).Exec(`
		UPDATE books
		SET is_borrowed = EXISTS (
			SELECT 1 FROM loans l WHERE l.book_id = books.id AND l.returned_date IS NULL
		)
		WHERE is_borrowed <> EXISTS (
			SELECT 1 FROM loans l WHERE l.book_id = books.id AND l.returned_date IS NULL
		)`)
	if result.Error != nil {
		return 0, apperr.FromStorage("books.ReconcileBorrowedFlags", result.Error)
	}
	return result.RowsAffected, nil
}

func countActiveLoans(tx *gorm.DB, bookID uint) (int64, error) {
	var active int64
	err := tx.Model(&entities.Loan{}).
		Where("book_id = ? AND returned_date IS NULL", bookID).
		Count(&active).Error
	return active, err
}
