package http

import (
	"github.com/mrlokans/bookstore/internal/auth"
	"github.com/mrlokans/bookstore/internal/config"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Stores
	Books   BookStore
	Loans   LoanStore
	Reports ReportStore

	// Import
	Importer      BookImporter
	ImportAtomic  bool  // default for forms and API calls that do not say
	MaxUploadSize int64 // bytes, applies to every request body

	// Health checks
	Database Pinger

	// Sessions and request guards; nil values disable the feature
	Flasher        Flasher
	SessionManager *auth.SessionManager
	CSRFSecret     []byte
	SecureCookies  bool
	AuthConfig     config.Auth

	// Task queue client (optional)
	TaskQueue TaskQueue

	// UI paths
	TemplatesPath string
	StaticPath    string

	// Application info
	Version string
}
