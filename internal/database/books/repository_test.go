package books

import (
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookstore/internal/apperr"
	"github.com/mrlokans/bookstore/internal/database"
	"github.com/mrlokans/bookstore/internal/entities"
)

func setupTestRepo(t *testing.T) (*Repository, *database.Database) {
	t.Helper()
	db, err := database.NewDatabaseForTesting(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewRepository(db.DB), db
}

func addTestBook(t *testing.T, repo *Repository, title string, authorIDs ...uint) *entities.Book {
	t.Helper()
	book, err := repo.AddBook(context.Background(), entities.BookInput{
		Title:           title,
		Price:           10,
		ConditionStatus: entities.ConditionUsed,
		CategoryID:      1,
		AuthorIDs:       authorIDs,
	})
	require.NoError(t, err)
	return book
}

func linkedAuthors(t *testing.T, db *database.Database, bookID uint) []uint {
	t.Helper()
	ids := []uint{}
	require.NoError(t, db.DB.Model(&entities.BookAuthor{}).
		Where("book_id = ?", bookID).
		Order("author_id").
		Pluck("author_id", &ids).Error)
	return ids
}

func TestAddBook_AppearsInListWithAuthors(t *testing.T) {
	repo, _ := setupTestRepo(t)
	ctx := context.Background()

	book, err := repo.AddBook(ctx, entities.BookInput{
		Title:           "Dune",
		Price:           15.99,
		ConditionStatus: entities.ConditionNew,
		CategoryID:      2,
		AuthorIDs:       []uint{3, 4},
	})
	require.NoError(t, err)
	assert.NotZero(t, book.ID)
	assert.False(t, book.PublicationDate.IsZero())

	items, err := repo.ListBooks(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)

	row := items[0]
	assert.Equal(t, "Dune", row.Title)
	assert.InDelta(t, 15.99, row.Price, 0.0001)
	assert.Equal(t, "Science Fiction", row.CategoryName)
	assert.Equal(t, entities.ConditionNew, row.ConditionStatus)
	assert.Contains(t, row.Authors, "Ursula K. Le Guin")
	assert.Contains(t, row.Authors, "Isaac Asimov")
}

func TestAddBook_DuplicateAuthorIDsLinkedOnce(t *testing.T) {
	repo, db := setupTestRepo(t)

	book := addTestBook(t, repo, "Foundation", 4, 4, 2)

	assert.Equal(t, []uint{2, 4}, linkedAuthors(t, db, book.ID))
}

func TestAddBook_InvalidAuthorLeavesNothingBehind(t *testing.T) {
	repo, db := setupTestRepo(t)

	_, err := repo.AddBook(context.Background(), entities.BookInput{
		Title:           "Ghost",
		Price:           1,
		ConditionStatus: entities.ConditionNew,
		CategoryID:      1,
		AuthorIDs:       []uint{2, 999},
	})
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))

	var books, links int64
	require.NoError(t, db.DB.Model(&entities.Book{}).Count(&books).Error)
	require.NoError(t, db.DB.Model(&entities.BookAuthor{}).Count(&links).Error)
	assert.Zero(t, books)
	assert.Zero(t, links)
}

func TestAddBook_ValidationRejectedBeforeStorage(t *testing.T) {
	repo, _ := setupTestRepo(t)

	tests := []struct {
		name  string
		input entities.BookInput
	}{
		{"blank title", entities.BookInput{Title: "  ", Price: 1, ConditionStatus: entities.ConditionNew, CategoryID: 1}},
		{"negative price", entities.BookInput{Title: "T", Price: -1, ConditionStatus: entities.ConditionNew, CategoryID: 1}},
		{"infinite price", entities.BookInput{Title: "T", Price: math.Inf(1), ConditionStatus: entities.ConditionNew, CategoryID: 1}},
		{"NaN price", entities.BookInput{Title: "T", Price: math.NaN(), ConditionStatus: entities.ConditionNew, CategoryID: 1}},
		{"bad status", entities.BookInput{Title: "T", Price: 1, ConditionStatus: "mint", CategoryID: 1}},
		{"no category", entities.BookInput{Title: "T", Price: 1, ConditionStatus: entities.ConditionNew}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := repo.AddBook(context.Background(), tt.input)
			assert.True(t, apperr.IsValidation(err), "got %v", err)
		})
	}
}

func TestAddBook_UnknownCategory(t *testing.T) {
	repo, _ := setupTestRepo(t)

	_, err := repo.AddBook(context.Background(), entities.BookInput{
		Title: "Nowhere", Price: 1, ConditionStatus: entities.ConditionNew, CategoryID: 404,
	})

	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
	assert.Equal(t, "unknown category or author", apperr.Message(err))
}

func TestListBooks_NewestFirst(t *testing.T) {
	repo, _ := setupTestRepo(t)

	first := addTestBook(t, repo, "First")
	second := addTestBook(t, repo, "Second", 2)

	items, err := repo.ListBooks(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, second.ID, items[0].ID)
	assert.Equal(t, first.ID, items[1].ID)
	assert.Empty(t, items[1].Authors)
}

func TestGetBookByID(t *testing.T) {
	repo, _ := setupTestRepo(t)
	book := addTestBook(t, repo, "Dune", 2, 3)

	details, err := repo.GetBookByID(context.Background(), book.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dune", details.Title)
	assert.Equal(t, []uint{2, 3}, details.AuthorIDs)
	assert.True(t, details.HasAuthor(3))
	assert.False(t, details.HasAuthor(4))

	_, err = repo.GetBookByID(context.Background(), 12345)
	assert.True(t, apperr.IsNotFound(err))
}

func TestUpdateBook_ReplacesAuthorLinks(t *testing.T) {
	repo, db := setupTestRepo(t)
	ctx := context.Background()
	book := addTestBook(t, repo, "Draft", 2, 3)

	err := repo.UpdateBook(ctx, book.ID, entities.BookInput{
		Title:           "Final",
		Price:           20.5,
		ConditionStatus: entities.ConditionDamaged,
		CategoryID:      3,
		AuthorIDs:       []uint{3, 5},
	})
	require.NoError(t, err)

	details, err := repo.GetBookByID(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, "Final", details.Title)
	assert.Equal(t, 20.5, details.Price)
	assert.Equal(t, entities.ConditionDamaged, details.ConditionStatus)
	assert.Equal(t, uint(3), details.CategoryID)
	assert.Equal(t, []uint{3, 5}, linkedAuthors(t, db, book.ID))

	// An empty set clears every link
	err = repo.UpdateBook(ctx, book.ID, entities.BookInput{
		Title: "Final", Price: 20.5, ConditionStatus: entities.ConditionDamaged, CategoryID: 3,
	})
	require.NoError(t, err)
	assert.Empty(t, linkedAuthors(t, db, book.ID))
}

func TestUpdateBook_FailureKeepsPreviousState(t *testing.T) {
	repo, db := setupTestRepo(t)
	ctx := context.Background()
	book := addTestBook(t, repo, "Stable", 2)

	err := repo.UpdateBook(ctx, book.ID, entities.BookInput{
		Title: "Broken", Price: 1, ConditionStatus: entities.ConditionNew, CategoryID: 1,
		AuthorIDs: []uint{3, 999},
	})
	require.Error(t, err)

	details, err := repo.GetBookByID(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, "Stable", details.Title)
	assert.Equal(t, []uint{2}, linkedAuthors(t, db, book.ID))
}

func TestUpdateBook_NotFound(t *testing.T) {
	repo, _ := setupTestRepo(t)

	err := repo.UpdateBook(context.Background(), 77, entities.BookInput{
		Title: "Nope", Price: 1, ConditionStatus: entities.ConditionNew, CategoryID: 1,
	})
	assert.True(t, apperr.IsNotFound(err))
}

func TestDeleteBook_CascadesLinksAndHistory(t *testing.T) {
	repo, db := setupTestRepo(t)
	ctx := context.Background()
	book := addTestBook(t, repo, "Gone", 2, 3)

	_, err := repo.CreateLoan(ctx, book.ID, "Alice")
	require.NoError(t, err)
	_, err = repo.ReturnBook(ctx, book.ID)
	require.NoError(t, err)

	require.NoError(t, repo.DeleteBook(ctx, book.ID))

	assert.Empty(t, linkedAuthors(t, db, book.ID))
	var loans int64
	require.NoError(t, db.DB.Model(&entities.Loan{}).Where("book_id = ?", book.ID).Count(&loans).Error)
	assert.Zero(t, loans)

	_, err = repo.GetBookByID(ctx, book.ID)
	assert.True(t, apperr.IsNotFound(err))
}

func TestDeleteBook_RejectsBorrowedBook(t *testing.T) {
	repo, _ := setupTestRepo(t)
	ctx := context.Background()
	book := addTestBook(t, repo, "Out")

	_, err := repo.CreateLoan(ctx, book.ID, "Bob")
	require.NoError(t, err)

	err = repo.DeleteBook(ctx, book.ID)
	assert.True(t, apperr.IsConflict(err))

	_, err = repo.GetBookByID(ctx, book.ID)
	assert.NoError(t, err)
}

func TestDeleteBook_NotFound(t *testing.T) {
	repo, _ := setupTestRepo(t)
	assert.True(t, apperr.IsNotFound(repo.DeleteBook(context.Background(), 404)))
}

func TestListAuthorsAndActiveCategories(t *testing.T) {
	repo, _ := setupTestRepo(t)
	ctx := context.Background()

	authors, err := repo.ListAuthors(ctx)
	require.NoError(t, err)
	assert.Len(t, authors, 5)
	assert.Equal(t, "Frank Herbert", authors[0].Name)

	categories, err := repo.ListActiveCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, categories, 4)
	for _, c := range categories {
		assert.True(t, c.IsActive)
		assert.NotEqual(t, "Discontinued", c.Name)
	}
}

func TestWithinTransaction_RollsBackEverything(t *testing.T) {
	repo, db := setupTestRepo(t)
	ctx := context.Background()

	err := repo.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := repo.AddBook(ctx, entities.BookInput{
			Title: "Kept?", Price: 1, ConditionStatus: entities.ConditionNew, CategoryID: 1,
		}); err != nil {
			return err
		}
		_, err := repo.AddBook(ctx, entities.BookInput{
			Title: "Bad", Price: 1, ConditionStatus: entities.ConditionNew, CategoryID: 1, AuthorIDs: []uint{999},
		})
		return err
	})
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))

	var books int64
	require.NoError(t, db.DB.Model(&entities.Book{}).Count(&books).Error)
	assert.Zero(t, books)
}

func TestRepository_UsesInjectedClock(t *testing.T) {
	repo, _ := setupTestRepo(t)
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return fixed }

	book := addTestBook(t, repo, "Timed")
	details, err := repo.GetBookByID(context.Background(), book.ID)
	require.NoError(t, err)
	assert.True(t, fixed.Equal(details.PublicationDate))
}
