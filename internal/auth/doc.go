// Package auth provides the request guards of the web UI: sessions (used for
// flash notices), CSRF protection, security headers and optional HTTP basic auth.
//
// Two authentication modes are supported:
//   - "none": every request is allowed (default)
//   - "basic": HTTP basic auth against a single account whose password is stored
//     as a bcrypt hash in the config file
//
// # Configuration
//
//	AUTH_MODE=basic
//	AUTH_USERNAME=admin
//	AUTH_PASSWORD_HASH=$2a$12$...   # see "bookstore hash-password"
//
// # Usage
//
//	sessions, _ := auth.NewSessionManager(sqlDB, cfg.Session)
//	router.Use(sessions.SessionLoadSave())
//	router.Use(auth.NewBasicAuth(cfg.Auth).Handler())
//
// Handlers leave a notice for the next page with PutFlash and read it with PopFlash.
package auth
