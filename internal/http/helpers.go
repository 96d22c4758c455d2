package http

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookstore/internal/apperr"
	"github.com/mrlokans/bookstore/internal/auth"
)

// --- Response Types ---

// ErrorResponse is the standard error response format for all API errors.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"` // machine-readable error kind
}

// SuccessResponse is a standard success response with optional data.
type SuccessResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// --- Error Response Helpers ---

func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message, Code: "bad_request"})
}

// respondAppError maps err to a status through its Kind. Details of internal and
// storage failures are logged, not exposed.
func respondAppError(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.Printf("Request %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, ErrorResponse{Error: apperr.Message(err), Code: apperr.KindOf(err).String()})
}

// --- Parameter Parsing ---

// parseIDParam extracts and validates an unsigned integer ID from URL parameters.
// Returns the parsed ID or responds with a 400 error and returns 0, false.
func parseIDParam(c *gin.Context, paramName string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(paramName), 10, 32)
	if err != nil || id == 0 {
		respondBadRequest(c, "invalid "+paramName)
		return 0, false
	}
	return uint(id), true
}

// --- Pages ---

// pages renders HTML templates with the data every page needs (pending flash,
// CSRF token) and implements the post/redirect/get flow.
type pages struct {
	flash Flasher
}

func newPages(flash Flasher) pages {
	if flash == nil {
		flash = noFlash{}
	}
	return pages{flash: flash}
}

func (p pages) render(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	if _, ok := data["Flash"]; !ok {
		data["Flash"] = p.flash.PopFlash(c.Request.Context())
	}
	data["CSRFToken"] = auth.GetCSRFToken(c)
	data["CSRFFieldName"] = auth.CSRFFieldName
	c.HTML(status, name, data)
}

// redirect leaves a notice and sends the browser to location with 303 See Other.
func (p pages) redirect(c *gin.Context, location string, kind auth.FlashKind, message string) {
	if message != "" {
		p.flash.PutFlash(c.Request.Context(), kind, message)
	}
	c.Redirect(http.StatusSeeOther, location)
}

// fail reports err as an error notice on a safe page.
func (p pages) fail(c *gin.Context, location string, err error) {
	if apperr.HTTPStatus(err) >= http.StatusInternalServerError {
		log.Printf("Request %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	p.redirect(c, location, auth.FlashError, capitalize(apperr.Message(err)))
}

// errorFlash builds an inline notice for pages rendered without a redirect.
func errorFlash(message string) *auth.Flash {
	return &auth.Flash{Kind: auth.FlashError, Message: capitalize(message)}
}

func capitalize(s string) string {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}

// parsePageID is parseIDParam for HTML routes: a bad id sends the user back to the list.
func (p pages) parsePageID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		p.redirect(c, "/", auth.FlashError, "Invalid book id")
		return 0, false
	}
	return uint(id), true
}

// --- Middleware ---

// maxBodySize caps every request body; multipart parsing fails past the limit.
func maxBodySize(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limit > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}
