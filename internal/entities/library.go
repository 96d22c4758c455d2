package entities

import (
	"fmt"
	"math"
	"strings"
	"time"
)

type ConditionStatus string

const (
	ConditionNew     ConditionStatus = "new"
	ConditionUsed    ConditionStatus = "used"
	ConditionDamaged ConditionStatus = "damaged"
)

// ConditionStatuses lists the accepted values in the order forms display them.
var ConditionStatuses = []ConditionStatus{ConditionNew, ConditionUsed, ConditionDamaged}

func (s ConditionStatus) Valid() bool {
	switch s {
	case ConditionNew, ConditionUsed, ConditionDamaged:
		return true
	}
	return false
}

// ParseConditionStatus normalizes user input ("  Used ") into a ConditionStatus.
func ParseConditionStatus(raw string) (ConditionStatus, error) {
	status := ConditionStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !status.Valid() {
		return "", fmt.Errorf("unknown condition status %q", raw)
	}
	return status, nil
}

type Category struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Name     string `json:"name"`
	IsActive bool   `json:"is_active"`
}

type Author struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `json:"name"`
}

type Book struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	Title           string          `json:"title"`
	Price           float64         `json:"price"`
	ConditionStatus ConditionStatus `json:"condition_status"`
	CategoryID      uint            `json:"category_id"`
	PublicationDate time.Time       `json:"publication_date"`
	IsBorrowed      bool            `json:"is_borrowed"`
}

// BookAuthor is the many-to-many link between books and authors.
// Rows are removed by the store when their book is deleted.
type BookAuthor struct {
	BookID   uint `gorm:"primaryKey;autoIncrement:false"`
	AuthorID uint `gorm:"primaryKey;autoIncrement:false"`
}

// Loan is active while ReturnedDate is nil.
type Loan struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	BookID       uint       `json:"book_id"`
	BorrowerName string     `json:"borrower_name"`
	LoanDate     time.Time  `json:"loan_date"`
	ReturnedDate *time.Time `json:"returned_date,omitempty"`
}

func (l Loan) IsActive() bool {
	return l.ReturnedDate == nil
}

func (Category) TableName() string {
	return "categories"
}

func (Author) TableName() string {
	return "authors"
}

func (Book) TableName() string {
	return "books"
}

func (BookAuthor) TableName() string {
	return "book_authors"
}

func (Loan) TableName() string {
	return "loans"
}

// BookInput carries the editable fields of a book, as submitted by a form or an import.
type BookInput struct {
	Title           string
	Price           float64
	ConditionStatus ConditionStatus
	CategoryID      uint
	AuthorIDs       []uint
}

// Validate checks the fields that can be verified without touching storage.
// Category and author existence is left to the store's foreign keys.
func (in BookInput) Validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("title is required")
	}
	if math.IsNaN(in.Price) || math.IsInf(in.Price, 0) {
		return fmt.Errorf("price must be a finite number")
	}
	if in.Price < 0 {
		return fmt.Errorf("price must not be negative")
	}
	if !in.ConditionStatus.Valid() {
		return fmt.Errorf("unknown condition status %q", in.ConditionStatus)
	}
	if in.CategoryID == 0 {
		return fmt.Errorf("category is required")
	}
	return nil
}

// UniqueAuthorIDs returns the author ids without duplicates or zeros, keeping first-seen order.
func (in BookInput) UniqueAuthorIDs() []uint {
	seen := make(map[uint]struct{}, len(in.AuthorIDs))
	ids := make([]uint, 0, len(in.AuthorIDs))
	for _, id := range in.AuthorIDs {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

// BookListItem is a row of the book list: the book joined with its category
// name and the comma separated names of its authors.
type BookListItem struct {
	ID              uint            `json:"id"`
	Title           string          `json:"title"`
	CategoryName    string          `json:"category_name"`
	Price           float64         `json:"price"`
	ConditionStatus ConditionStatus `json:"condition_status"`
	IsBorrowed      bool            `json:"is_borrowed"`
	Authors         string          `json:"authors"`
}

// BookDetails is a book plus the ids of its linked authors, used to prefill the edit form.
type BookDetails struct {
	Book
	AuthorIDs []uint `json:"author_ids"`
}

func (d BookDetails) HasAuthor(id uint) bool {
	for _, a := range d.AuthorIDs {
		if a == id {
			return true
		}
	}
	return false
}

type ActiveLoan struct {
	ID           uint      `json:"id"`
	BookID       uint      `json:"book_id"`
	BookTitle    string    `json:"book_title"`
	BorrowerName string    `json:"borrower_name"`
	LoanDate     time.Time `json:"loan_date"`
}

// CategoryStat is one row of the view_library_stats aggregate view.
type CategoryStat struct {
	CategoryID    uint    `json:"category_id"`
	CategoryName  string  `json:"category_name"`
	IsActive      bool    `json:"is_active"`
	BookCount     int64   `json:"book_count"`
	BorrowedCount int64   `json:"borrowed_count"`
	TotalValue    float64 `json:"total_value"`
	AveragePrice  float64 `json:"average_price"`
}
