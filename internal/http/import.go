package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookstore/internal/apperr"
	"github.com/mrlokans/bookstore/internal/auth"
	"github.com/mrlokans/bookstore/internal/services"
	"github.com/mrlokans/bookstore/internal/tasks"
)

// ImportController accepts JSON documents of books, either imported during the
// request or queued as a background task.
type ImportController struct {
	importer BookImporter
	queue    TaskQueue // nil when the task queue is disabled
	atomic   bool
	pages    pages
}

func NewImportController(importer BookImporter, queue TaskQueue, atomic bool, flash Flasher) *ImportController {
	return &ImportController{
		importer: importer,
		queue:    queue,
		atomic:   atomic,
		pages:    newPages(flash),
	}
}

// ImportPage handles GET /import
func (ic *ImportController) ImportPage(c *gin.Context) {
	ic.pages.render(c, http.StatusOK, "import", gin.H{
		"Atomic":            ic.atomic,
		"BackgroundEnabled": ic.queue != nil,
	})
}

// Import handles POST /import
func (ic *ImportController) Import(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			ic.pages.redirect(c, "/import", auth.FlashError, "The file is too large")
			return
		}
		ic.pages.redirect(c, "/import", auth.FlashError, "Choose a JSON file to import")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		ic.pages.redirect(c, "/import", auth.FlashError, "Could not read the uploaded file")
		return
	}

	atomic := ic.atomic || c.PostForm("atomic") == "on"

	if c.PostForm("background") == "on" && ic.queue != nil {
		taskID, err := ic.queue.Enqueue(c.Request.Context(), tasks.ImportBooksTask{
			Document: data,
			Source:   header.Filename,
			Atomic:   atomic,
		})
		if err != nil {
			ic.pages.fail(c, "/import", apperr.Unavailable("http.Import", err))
			return
		}
		ic.pages.redirect(c, "/import", auth.FlashSuccess,
			fmt.Sprintf("Import of %s queued as task %s", header.Filename, taskID))
		return
	}

	result, err := ic.importer.ImportJSON(c.Request.Context(), data, services.ImportOptions{Atomic: atomic})
	if err != nil {
		ic.pages.redirect(c, "/import", auth.FlashError, importFailureMessage(err))
		return
	}

	ic.pages.redirect(c, "/", auth.FlashSuccess,
		fmt.Sprintf("Imported %d books (%d skipped)", result.Imported, result.Skipped))
}

// ImportAPI handles POST /api/import with the JSON document as the request body.
// ?atomic=true overrides the configured default.
func (ic *ImportController) ImportAPI(c *gin.Context) {
	atomic := ic.atomic
	if raw := c.Query("atomic"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			respondBadRequest(c, "invalid atomic flag")
			return
		}
		atomic = parsed
	}

	data, err := c.GetRawData()
	if err != nil {
		respondBadRequest(c, "could not read request body")
		return
	}

	result, err := ic.importer.ImportJSON(c.Request.Context(), data, services.ImportOptions{Atomic: atomic})
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{
			"error":    importFailureMessage(err),
			"code":     apperr.KindOf(err).String(),
			"imported": result.Imported,
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

func importFailureMessage(err error) string {
	var importErr *services.ImportError
	if errors.As(err, &importErr) {
		return fmt.Sprintf("Import stopped at element %d: %s. %d books were imported.",
			importErr.Index, apperr.Message(importErr.Err), importErr.Imported)
	}
	return capitalize(apperr.Message(err))
}
