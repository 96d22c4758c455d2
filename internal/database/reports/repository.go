// Package reports reads the aggregate views maintained by the storage layer.
// All arithmetic lives in the view definitions; this package only scans rows.
package reports

import (
	"context"

	"gorm.io/gorm"

	"github.com/mrlokans/bookstore/internal/apperr"
	"github.com/mrlokans/bookstore/internal/entities"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetStats returns one row per category, including categories without books.
func (r *Repository) GetStats(ctx context.Context) ([]entities.CategoryStat, error) {
	stats := []entities.CategoryStat{}
	err := r.db.WithContext(ctx).Raw(`
		SELECT category_id, category_name, is_active, book_count, borrowed_count,
		       total_value, average_price
		FROM view_library_stats`).Scan(&stats).Error
	if err != nil {
		return nil, apperr.FromStorage("reports.GetStats", err)
	}
	return stats, nil
}

// GetTotals returns the library-wide summary row from view_library_totals.
func (r *Repository) GetTotals(ctx context.Context) (entities.CategoryStat, error) {
	var total entities.CategoryStat
	err := r.db.WithContext(ctx).Raw(`
		SELECT category_name, book_count, borrowed_count, total_value, average_price
		FROM view_library_totals`).Scan(&total).Error
	if err != nil {
		return entities.CategoryStat{}, apperr.FromStorage("reports.GetTotals", err)
	}
	return total, nil
}
