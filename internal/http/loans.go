package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookstore/internal/apperr"
	"github.com/mrlokans/bookstore/internal/auth"
	"github.com/mrlokans/bookstore/internal/entities"
)

// LoansController serves borrowing, returning and the active loan list.
type LoansController struct {
	store LoanStore
	pages pages
}

func NewLoansController(store LoanStore, flash Flasher) *LoansController {
	return &LoansController{store: store, pages: newPages(flash)}
}

// LoansPage handles GET /loans
func (lc *LoansController) LoansPage(c *gin.Context) {
	loans, err := lc.store.ListActiveLoans(c.Request.Context())
	if err != nil {
		lc.pages.fail(c, "/", err)
		return
	}

	lc.pages.render(c, http.StatusOK, "loans", gin.H{
		"Loans": loans,
	})
}

// BorrowPage handles GET /borrow/:id
func (lc *LoansController) BorrowPage(c *gin.Context) {
	id, ok := lc.pages.parsePageID(c)
	if !ok {
		return
	}

	book, err := lc.store.GetBookByID(c.Request.Context(), id)
	if err != nil {
		lc.pages.fail(c, "/", err)
		return
	}
	if book.IsBorrowed {
		lc.pages.redirect(c, "/loans", auth.FlashError, "\""+book.Title+"\" is already on loan")
		return
	}

	lc.pages.render(c, http.StatusOK, "borrow", gin.H{
		"Book": book,
	})
}

// Borrow handles POST /borrow/:id
func (lc *LoansController) Borrow(c *gin.Context) {
	id, ok := lc.pages.parsePageID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	borrower := strings.TrimSpace(c.PostForm("borrower_name"))
	if borrower == "" {
		book, err := lc.store.GetBookByID(ctx, id)
		if err != nil {
			lc.pages.fail(c, "/", err)
			return
		}
		lc.pages.render(c, http.StatusUnprocessableEntity, "borrow", gin.H{
			"Book":  book,
			"Flash": errorFlash("borrower name is required"),
		})
		return
	}

	if _, err := lc.store.CreateLoan(ctx, id, borrower); err != nil {
		lc.pages.fail(c, "/loans", err)
		return
	}

	lc.pages.redirect(c, "/loans", auth.FlashSuccess, "Loaned to "+borrower)
}

// Return handles POST /return/:id
func (lc *LoansController) Return(c *gin.Context) {
	id, ok := lc.pages.parsePageID(c)
	if !ok {
		return
	}

	closed, err := lc.store.ReturnBook(c.Request.Context(), id)
	if err != nil {
		lc.pages.fail(c, "/loans", err)
		return
	}

	message := "Book returned"
	if !closed {
		message = "Book had no active loan"
	}
	lc.pages.redirect(c, "/loans", auth.FlashSuccess, message)
}

// --- JSON API ---

type loanRequest struct {
	BorrowerName string `json:"borrower_name"`
}

// GetActiveLoans handles GET /api/loans
func (lc *LoansController) GetActiveLoans(c *gin.Context) {
	loans, err := lc.store.ListActiveLoans(c.Request.Context())
	if err != nil {
		respondAppError(c, err)
		return
	}
	if loans == nil {
		loans = []entities.ActiveLoan{}
	}
	c.JSON(http.StatusOK, gin.H{"loans": loans, "total": len(loans)})
}

// CreateLoan handles POST /api/books/:id/loans
func (lc *LoansController) CreateLoan(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req loanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid JSON body")
		return
	}

	loan, err := lc.store.CreateLoan(c.Request.Context(), id, req.BorrowerName)
	if err != nil {
		respondAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, loan)
}

// ReturnBook handles POST /api/books/:id/return
func (lc *LoansController) ReturnBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	closed, err := lc.store.ReturnBook(c.Request.Context(), id)
	if err != nil {
		respondAppError(c, apperr.Wrap("http.ReturnBook", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"closed": closed})
}
