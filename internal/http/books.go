package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookstore/internal/apperr"
	"github.com/mrlokans/bookstore/internal/auth"
	"github.com/mrlokans/bookstore/internal/entities"
)

// BooksController serves the book list and the add/edit/delete flows.
type BooksController struct {
	store BookStore
	pages pages
}

func NewBooksController(store BookStore, flash Flasher) *BooksController {
	return &BooksController{store: store, pages: newPages(flash)}
}

// BooksPage handles GET /
func (bc *BooksController) BooksPage(c *gin.Context) {
	books, err := bc.store.ListBooks(c.Request.Context())
	if err != nil {
		// Nowhere safer to redirect to; render the page with the notice instead
		bc.pages.render(c, apperr.HTTPStatus(err), "books", gin.H{
			"Flash": errorFlash(apperr.Message(err)),
		})
		return
	}

	bc.pages.render(c, http.StatusOK, "books", gin.H{
		"Books":      books,
		"TotalBooks": len(books),
	})
}

// AddBookPage handles GET /add
func (bc *BooksController) AddBookPage(c *gin.Context) {
	bc.renderForm(c, http.StatusOK, formPage{
		Heading: "Add book",
		Action:  "/add",
		Form:    bookForm{ConditionStatus: string(entities.ConditionNew)},
	}, nil)
}

// AddBook handles POST /add
func (bc *BooksController) AddBook(c *gin.Context) {
	var form bookForm
	if err := c.ShouldBind(&form); err != nil {
		bc.pages.redirect(c, "/add", auth.FlashError, "Could not read the form")
		return
	}
	page := formPage{Heading: "Add book", Action: "/add", Form: form}

	in, err := form.Input()
	if err != nil {
		bc.renderForm(c, http.StatusUnprocessableEntity, page, errorFlash(err.Error()))
		return
	}

	book, err := bc.store.AddBook(c.Request.Context(), in)
	if err != nil {
		if apperr.IsValidation(err) {
			bc.renderForm(c, http.StatusUnprocessableEntity, page, errorFlash(apperr.Message(err)))
			return
		}
		bc.pages.fail(c, "/", err)
		return
	}

	bc.pages.redirect(c, "/", auth.FlashSuccess, "Added \""+book.Title+"\"")
}

// EditBookPage handles GET /edit/:id
func (bc *BooksController) EditBookPage(c *gin.Context) {
	id, ok := bc.pages.parsePageID(c)
	if !ok {
		return
	}

	details, err := bc.store.GetBookByID(c.Request.Context(), id)
	if err != nil {
		bc.pages.fail(c, "/", err)
		return
	}

	bc.renderForm(c, http.StatusOK, formPage{
		Heading: "Edit book",
		Action:  c.Request.URL.Path,
		Form:    bookFormFromDetails(details),
	}, nil)
}

// EditBook handles POST /edit/:id
func (bc *BooksController) EditBook(c *gin.Context) {
	id, ok := bc.pages.parsePageID(c)
	if !ok {
		return
	}

	var form bookForm
	if err := c.ShouldBind(&form); err != nil {
		bc.pages.redirect(c, c.Request.URL.Path, auth.FlashError, "Could not read the form")
		return
	}
	page := formPage{Heading: "Edit book", Action: c.Request.URL.Path, Form: form}

	in, err := form.Input()
	if err != nil {
		bc.renderForm(c, http.StatusUnprocessableEntity, page, errorFlash(err.Error()))
		return
	}

	if err := bc.store.UpdateBook(c.Request.Context(), id, in); err != nil {
		if apperr.IsValidation(err) {
			bc.renderForm(c, http.StatusUnprocessableEntity, page, errorFlash(apperr.Message(err)))
			return
		}
		bc.pages.fail(c, "/", err)
		return
	}

	bc.pages.redirect(c, "/", auth.FlashSuccess, "Saved \""+in.Title+"\"")
}

// DeleteBook handles POST /delete/:id
func (bc *BooksController) DeleteBook(c *gin.Context) {
	id, ok := bc.pages.parsePageID(c)
	if !ok {
		return
	}

	if err := bc.store.DeleteBook(c.Request.Context(), id); err != nil {
		bc.pages.fail(c, "/", err)
		return
	}

	bc.pages.redirect(c, "/", auth.FlashSuccess, "Book deleted")
}

type formPage struct {
	Heading string
	Action  string
	Form    bookForm
}

// renderForm loads the selection inputs and renders the book form.
func (bc *BooksController) renderForm(c *gin.Context, status int, page formPage, flash *auth.Flash) {
	ctx := c.Request.Context()

	categories, err := bc.store.ListActiveCategories(ctx)
	if err != nil {
		bc.pages.fail(c, "/", err)
		return
	}
	authors, err := bc.store.ListAuthors(ctx)
	if err != nil {
		bc.pages.fail(c, "/", err)
		return
	}

	data := gin.H{
		"Page":       page,
		"Categories": categories,
		"Authors":    authors,
		"Statuses":   entities.ConditionStatuses,
	}
	if flash != nil {
		data["Flash"] = flash
	}
	bc.pages.render(c, status, "book_form", data)
}

// --- JSON API ---

// GetAllBooks handles GET /api/books
func (bc *BooksController) GetAllBooks(c *gin.Context) {
	books, err := bc.store.ListBooks(c.Request.Context())
	if err != nil {
		respondAppError(c, err)
		return
	}
	if books == nil {
		books = []entities.BookListItem{}
	}
	c.JSON(http.StatusOK, gin.H{"books": books, "total": len(books)})
}

// GetBook handles GET /api/books/:id
func (bc *BooksController) GetBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	details, err := bc.store.GetBookByID(c.Request.Context(), id)
	if err != nil {
		respondAppError(c, err)
		return
	}
	loans, err := bc.store.ListLoansForBook(c.Request.Context(), id)
	if err != nil {
		respondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"book": details, "loans": loans})
}

// CreateBook handles POST /api/books
func (bc *BooksController) CreateBook(c *gin.Context) {
	var req bookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid JSON body")
		return
	}
	in, err := req.Input()
	if err != nil {
		respondAppError(c, apperr.Validationf("http.CreateBook", err))
		return
	}

	book, err := bc.store.AddBook(c.Request.Context(), in)
	if err != nil {
		respondAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, book)
}

// UpdateBook handles PUT /api/books/:id
func (bc *BooksController) UpdateBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req bookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid JSON body")
		return
	}
	in, err := req.Input()
	if err != nil {
		respondAppError(c, apperr.Validationf("http.UpdateBook", err))
		return
	}

	if err := bc.store.UpdateBook(c.Request.Context(), id, in); err != nil {
		respondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "book updated"})
}

// DeleteBookAPI handles DELETE /api/books/:id
func (bc *BooksController) DeleteBookAPI(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := bc.store.DeleteBook(c.Request.Context(), id); err != nil {
		respondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "book deleted"})
}
