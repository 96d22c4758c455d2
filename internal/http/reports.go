package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookstore/internal/entities"
)

type ReportsController struct {
	store ReportStore
	pages pages
}

func NewReportsController(store ReportStore, flash Flasher) *ReportsController {
	return &ReportsController{store: store, pages: newPages(flash)}
}

// ReportPage handles GET /report
func (rc *ReportsController) ReportPage(c *gin.Context) {
	stats, total, err := rc.load(c)
	if err != nil {
		rc.pages.fail(c, "/", err)
		return
	}

	rc.pages.render(c, http.StatusOK, "report", gin.H{
		"Stats": stats,
		"Total": total,
	})
}

// GetReport handles GET /api/report
func (rc *ReportsController) GetReport(c *gin.Context) {
	stats, total, err := rc.load(c)
	if err != nil {
		respondAppError(c, err)
		return
	}
	if stats == nil {
		stats = []entities.CategoryStat{}
	}
	c.JSON(http.StatusOK, gin.H{"categories": stats, "total": total})
}

func (rc *ReportsController) load(c *gin.Context) ([]entities.CategoryStat, entities.CategoryStat, error) {
	ctx := c.Request.Context()
	stats, err := rc.store.GetStats(ctx)
	if err != nil {
		return nil, entities.CategoryStat{}, err
	}
	total, err := rc.store.GetTotals(ctx)
	if err != nil {
		return nil, entities.CategoryStat{}, err
	}
	return stats, total, nil
}
