package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookstore/internal/auth"
	"github.com/mrlokans/bookstore/internal/entities"
)

func TestBooksController_BooksPage(t *testing.T) {
	t.Run("shows empty state", func(t *testing.T) {
		env := setupTestRouter(t)

		w := env.do(http.MethodGet, "/", "", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "No books yet")
	})

	t.Run("lists books with authors and category", func(t *testing.T) {
		env := setupTestRouter(t)
		env.addBook(t, "Dune", 2)

		w := env.do(http.MethodGet, "/", "", "")

		assert.Equal(t, http.StatusOK, w.Code)
		body := w.Body.String()
		assert.Contains(t, body, "Dune")
		assert.Contains(t, body, "Frank Herbert")
		assert.Contains(t, body, "Science Fiction")
		assert.Contains(t, body, "12.50")
	})

	t.Run("shows pending flash once", func(t *testing.T) {
		env := setupTestRouter(t)
		env.flash.PutFlash(context.Background(), auth.FlashSuccess, "Hello there")

		first := env.do(http.MethodGet, "/", "", "")
		second := env.do(http.MethodGet, "/", "", "")

		assert.Contains(t, first.Body.String(), "Hello there")
		assert.NotContains(t, second.Body.String(), "Hello there")
	})
}

func TestBooksController_AddBook(t *testing.T) {
	t.Run("renders the form with selection inputs", func(t *testing.T) {
		env := setupTestRouter(t)

		w := env.do(http.MethodGet, "/add", "", "")

		assert.Equal(t, http.StatusOK, w.Code)
		body := w.Body.String()
		assert.Contains(t, body, "Ursula K. Le Guin")
		assert.Contains(t, body, "History")
		assert.NotContains(t, body, "Discontinued")
	})

	t.Run("adds book and redirects", func(t *testing.T) {
		env := setupTestRouter(t)

		w := env.postForm("/add", url.Values{
			"title":            {"Dune"},
			"price":            {"25"},
			"condition_status": {"new"},
			"category_id":      {"2"},
			"author_ids":       {"2", "3"},
		})

		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/", w.Header().Get("Location"))
		require.NotNil(t, env.flash.last)
		assert.Equal(t, auth.FlashSuccess, env.flash.last.Kind)
		assert.Contains(t, env.flash.last.Message, "Dune")

		list, err := env.repo.ListBooks(context.Background())
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "Frank Herbert, Ursula K. Le Guin", list[0].Authors)
	})

	t.Run("non-numeric price re-renders the form without touching storage", func(t *testing.T) {
		env := setupTestRouter(t)

		w := env.postForm("/add", url.Values{
			"title":            {"Dune"},
			"price":            {"cheap"},
			"condition_status": {"new"},
			"category_id":      {"2"},
		})

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), "Price must be a number")
		// The submitted title is kept in the form
		assert.Contains(t, w.Body.String(), `value="Dune"`)
		assert.Equal(t, int64(0), env.countBooks(t))
	})

	for _, price := range []string{"Inf", "-infinity", "NaN"} {
		t.Run("non-finite price "+price+" is rejected", func(t *testing.T) {
			env := setupTestRouter(t)

			w := env.postForm("/add", url.Values{
				"title":            {"Dune"},
				"price":            {price},
				"condition_status": {"new"},
				"category_id":      {"2"},
			})

			assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
			assert.Contains(t, w.Body.String(), "Price must be a number")
			assert.Equal(t, int64(0), env.countBooks(t))

			// The book list stays encodable
			w = env.do(http.MethodGet, "/api/books", "", "")
			assert.Equal(t, http.StatusOK, w.Code)
		})
	}

	t.Run("unknown author rolls back", func(t *testing.T) {
		env := setupTestRouter(t)

		w := env.postForm("/add", url.Values{
			"title":            {"Ghost"},
			"price":            {"5"},
			"condition_status": {"used"},
			"category_id":      {"1"},
			"author_ids":       {"99"},
		})

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), "Unknown category or author")
		assert.Equal(t, int64(0), env.countBooks(t))
	})
}

func TestBooksController_EditBook(t *testing.T) {
	t.Run("prefills the form", func(t *testing.T) {
		env := setupTestRouter(t)
		book := env.addBook(t, "Foundation", 4)

		w := env.do(http.MethodGet, fmt.Sprintf("/edit/%d", book.ID), "", "")

		assert.Equal(t, http.StatusOK, w.Code)
		body := w.Body.String()
		assert.Contains(t, body, `value="Foundation"`)
		assert.Contains(t, body, `<option value="4" selected>Isaac Asimov</option>`)
	})

	t.Run("missing book redirects with notice", func(t *testing.T) {
		env := setupTestRouter(t)

		w := env.do(http.MethodGet, "/edit/999", "", "")

		assert.Equal(t, http.StatusSeeOther, w.Code)
		require.NotNil(t, env.flash.last)
		assert.Equal(t, "Book not found", env.flash.last.Message)
	})

	t.Run("replaces fields and authors", func(t *testing.T) {
		env := setupTestRouter(t)
		book := env.addBook(t, "Foundation", 4)

		w := env.postForm(fmt.Sprintf("/edit/%d", book.ID), url.Values{
			"title":            {"Foundation and Empire"},
			"price":            {"9.99"},
			"condition_status": {"damaged"},
			"category_id":      {"2"},
			"author_ids":       {"2"},
		})

		assert.Equal(t, http.StatusSeeOther, w.Code)
		details, err := env.repo.GetBookByID(context.Background(), book.ID)
		require.NoError(t, err)
		assert.Equal(t, "Foundation and Empire", details.Title)
		assert.Equal(t, entities.ConditionDamaged, details.ConditionStatus)
		assert.Equal(t, []uint{2}, details.AuthorIDs)
	})

	t.Run("bad status is rejected", func(t *testing.T) {
		env := setupTestRouter(t)
		book := env.addBook(t, "Foundation", 4)

		w := env.postForm(fmt.Sprintf("/edit/%d", book.ID), url.Values{
			"title":            {"Foundation"},
			"price":            {"9.99"},
			"condition_status": {"mint"},
			"category_id":      {"2"},
		})

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		details, err := env.repo.GetBookByID(context.Background(), book.ID)
		require.NoError(t, err)
		assert.Equal(t, entities.ConditionNew, details.ConditionStatus)
	})
}

func TestBooksController_DeleteBook(t *testing.T) {
	t.Run("deletes and redirects", func(t *testing.T) {
		env := setupTestRouter(t)
		book := env.addBook(t, "Dune", 2)

		w := env.postForm(fmt.Sprintf("/delete/%d", book.ID), url.Values{})

		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, int64(0), env.countBooks(t))
	})

	t.Run("book on loan is kept", func(t *testing.T) {
		env := setupTestRouter(t)
		book := env.addBook(t, "Dune", 2)
		_, err := env.repo.CreateLoan(context.Background(), book.ID, "Paul")
		require.NoError(t, err)

		w := env.postForm(fmt.Sprintf("/delete/%d", book.ID), url.Values{})

		assert.Equal(t, http.StatusSeeOther, w.Code)
		require.NotNil(t, env.flash.last)
		assert.Equal(t, auth.FlashError, env.flash.last.Kind)
		assert.Equal(t, "Book is on loan and cannot be deleted", env.flash.last.Message)
		assert.Equal(t, int64(1), env.countBooks(t))
	})
}

func TestBooksAPI(t *testing.T) {
	t.Run("lists books", func(t *testing.T) {
		env := setupTestRouter(t)
		env.addBook(t, "Dune", 2)
		env.addBook(t, "The Dispossessed", 3)

		w := env.do(http.MethodGet, "/api/books", "", "")

		assert.Equal(t, http.StatusOK, w.Code)
		var response struct {
			Books []entities.BookListItem `json:"books"`
			Total int                     `json:"total"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, 2, response.Total)
		assert.Equal(t, "The Dispossessed", response.Books[0].Title)
	})

	t.Run("creates book", func(t *testing.T) {
		env := setupTestRouter(t)

		w := env.postJSON("/api/books", `{"title":"Dune","price":25,"condition_status":"new","category_id":2,"author_ids":[2,2]}`)

		assert.Equal(t, http.StatusCreated, w.Code)
		var book entities.Book
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &book))
		assert.Equal(t, "Dune", book.Title)
		assert.NotZero(t, book.ID)
	})

	t.Run("missing price is a validation error", func(t *testing.T) {
		env := setupTestRouter(t)

		w := env.postJSON("/api/books", `{"title":"Dune","condition_status":"new","category_id":2}`)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		var response ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "validation", response.Code)
		assert.Equal(t, int64(0), env.countBooks(t))
	})

	t.Run("malformed body", func(t *testing.T) {
		env := setupTestRouter(t)

		w := env.postJSON("/api/books", `{"title":`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("gets book with loan history", func(t *testing.T) {
		env := setupTestRouter(t)
		book := env.addBook(t, "Dune", 2)
		_, err := env.repo.CreateLoan(context.Background(), book.ID, "Paul")
		require.NoError(t, err)

		w := env.do(http.MethodGet, fmt.Sprintf("/api/books/%d", book.ID), "", "")

		assert.Equal(t, http.StatusOK, w.Code)
		var response struct {
			Book  entities.BookDetails `json:"book"`
			Loans []entities.Loan      `json:"loans"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.True(t, response.Book.IsBorrowed)
		assert.Equal(t, []uint{2}, response.Book.AuthorIDs)
		require.Len(t, response.Loans, 1)
		assert.Equal(t, "Paul", response.Loans[0].BorrowerName)
	})

	t.Run("missing book is 404", func(t *testing.T) {
		env := setupTestRouter(t)

		w := env.do(http.MethodGet, "/api/books/42", "", "")

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), `"code":"not_found"`)
	})

	t.Run("updates book", func(t *testing.T) {
		env := setupTestRouter(t)
		book := env.addBook(t, "Dune", 2)

		w := env.do(http.MethodPut, fmt.Sprintf("/api/books/%d", book.ID),
			`{"title":"Dune Messiah","price":15,"condition_status":"used","category_id":2,"author_ids":[2]}`,
			"application/json")

		assert.Equal(t, http.StatusOK, w.Code)
		details, err := env.repo.GetBookByID(context.Background(), book.ID)
		require.NoError(t, err)
		assert.Equal(t, "Dune Messiah", details.Title)
	})

	t.Run("delete conflicts while on loan", func(t *testing.T) {
		env := setupTestRouter(t)
		book := env.addBook(t, "Dune", 2)
		_, err := env.repo.CreateLoan(context.Background(), book.ID, "Paul")
		require.NoError(t, err)

		w := env.do(http.MethodDelete, fmt.Sprintf("/api/books/%d", book.ID), "", "")
		assert.Equal(t, http.StatusConflict, w.Code)

		_, err = env.repo.ReturnBook(context.Background(), book.ID)
		require.NoError(t, err)

		w = env.do(http.MethodDelete, fmt.Sprintf("/api/books/%d", book.ID), "", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, int64(0), env.countBooks(t))
	})
}
