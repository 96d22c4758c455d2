// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection pool setup and migrations
//	├── migrations/      # Embedded goose SQL migrations (schema, view, seed data)
//	├── books/           # Books, authors, categories and loans
//	└── reports/         # Read-only aggregate view
//
// # Using Sub-packages
//
// Each sub-package provides a Repository constructed from the shared pool:
//
//	db, err := database.NewDatabase(cfg.Database)
//
//	booksRepo := books.NewRepository(db.DB)
//	reportsRepo := reports.NewRepository(db.DB)
//
//	list, err := booksRepo.ListBooks(ctx)
//
// Every operation borrows a connection from the pool for its own duration and
// returns it on all exit paths; nothing holds a connection between calls.
//
// # Schema
//
// The schema lives in SQL migrations rather than gorm AutoMigrate because it relies
// on features gorm cannot declare: ON DELETE CASCADE for book_authors and loans,
// the partial unique index that allows one active loan per book, and the
// view_library_stats and view_library_totals views used by reports.
package database
