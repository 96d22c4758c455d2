package http

import (
	"fmt"
	"html/template"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookstore/internal/auth"
	"github.com/mrlokans/bookstore/internal/config"
)

// templateFuncs are available to every page template.
var templateFuncs = template.FuncMap{
	"price": func(p float64) string {
		return fmt.Sprintf("%.2f", p)
	},
	"date": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("2006-01-02")
	},
	"datetime": func(t time.Time) string {
		return t.Format("2006-01-02 15:04")
	},
}

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	router.Use(auth.SecurityHeadersMiddleware())
	if cfg.SecureCookies {
		router.Use(auth.StrictTransportSecurityMiddleware())
	}

	// Cap bodies before anything parses a form
	router.Use(maxBodySize(cfg.MaxUploadSize))

	// CSRF runs before the session so the session context survives CSRF's request replacement
	if len(cfg.CSRFSecret) > 0 {
		router.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies))
	}

	flasher := cfg.Flasher
	if cfg.SessionManager != nil {
		router.Use(cfg.SessionManager.SessionLoadSave())
		if flasher == nil {
			flasher = cfg.SessionManager
		}
	}

	if cfg.AuthConfig.Mode == config.AuthModeBasic {
		router.Use(auth.NewBasicAuth(cfg.AuthConfig).Handler())
	}

	tmpl := template.Must(template.New("").Funcs(templateFuncs).ParseGlob(cfg.TemplatesPath + "/*.html"))
	router.SetHTMLTemplate(tmpl)
	if cfg.StaticPath != "" {
		router.Static("/static", cfg.StaticPath)
	}

	health := NewHealthController(cfg.Database, cfg.Version)
	booksController := NewBooksController(cfg.Books, flasher)
	loansController := NewLoansController(cfg.Loans, flasher)
	reportsController := NewReportsController(cfg.Reports, flasher)
	importController := NewImportController(cfg.Importer, cfg.TaskQueue, cfg.ImportAtomic, flasher)

	// Health endpoints
	router.GET("/health", health.Status)
	router.GET("/ping", health.Ping)

	// UI routes
	router.GET("/", booksController.BooksPage)
	router.GET("/add", booksController.AddBookPage)
	router.POST("/add", booksController.AddBook)
	router.GET("/edit/:id", booksController.EditBookPage)
	router.POST("/edit/:id", booksController.EditBook)
	router.POST("/delete/:id", booksController.DeleteBook)

	router.GET("/loans", loansController.LoansPage)
	router.GET("/borrow/:id", loansController.BorrowPage)
	router.POST("/borrow/:id", loansController.Borrow)
	router.POST("/return/:id", loansController.Return)

	router.GET("/report", reportsController.ReportPage)

	router.GET("/import", importController.ImportPage)
	router.POST("/import", importController.Import)

	// Books API endpoints
	router.GET("/api/books", booksController.GetAllBooks)
	router.POST("/api/books", booksController.CreateBook)
	router.GET("/api/books/:id", booksController.GetBook)
	router.PUT("/api/books/:id", booksController.UpdateBook)
	router.DELETE("/api/books/:id", booksController.DeleteBookAPI)

	// Loans API endpoints
	router.GET("/api/loans", loansController.GetActiveLoans)
	router.POST("/api/books/:id/loans", loansController.CreateLoan)
	router.POST("/api/books/:id/return", loansController.ReturnBook)

	router.GET("/api/report", reportsController.GetReport)
	router.POST("/api/import", importController.ImportAPI)

	// Task management endpoints
	if cfg.TaskQueue != nil {
		tasksController := NewTasksController(cfg.TaskQueue)
		router.GET("/api/tasks/:id", tasksController.GetTaskStatus)
		router.POST("/api/tasks/:id/run", tasksController.RunTask)
	}

	return router
}
