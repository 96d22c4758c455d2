package auth

import (
	"context"
	"database/sql"
	"encoding/gob"
	"net/http"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"

	"github.com/mrlokans/bookstore/internal/config"
)

const sessionKeyFlash = "flash"

// FlashKind selects how a notice is styled.
type FlashKind string

const (
	FlashSuccess FlashKind = "success"
	FlashError   FlashKind = "error"
)

// Flash is a one-shot notice shown on the page after a redirect.
type Flash struct {
	Kind    FlashKind
	Message string
}

func init() {
	gob.Register(Flash{})
}

// SessionManager wraps scs.SessionManager with application-specific methods.
type SessionManager struct {
	*scs.SessionManager
	store *sqlite3store.SQLite3Store
}

// NewSessionManager creates a session manager backed by the sessions table of the
// library database. The table is created by the schema migrations.
func NewSessionManager(sqlDB *sql.DB, cfg config.Session) (*SessionManager, error) {
	sm := scs.New()

	store := sqlite3store.NewWithCleanupInterval(sqlDB, cfg.CleanupInterval)
	sm.Store = store

	if cfg.Lifetime > 0 {
		sm.Lifetime = cfg.Lifetime
	}

	sm.Cookie.Name = "bookstore_session"
	sm.Cookie.HttpOnly = true
	sm.Cookie.Secure = cfg.SecureCookies
	sm.Cookie.SameSite = http.SameSiteLaxMode // flashes must survive the POST-redirect-GET hop
	sm.Cookie.Path = "/"

	return &SessionManager{SessionManager: sm, store: store}, nil
}

// Close stops the background cleanup of expired sessions.
func (sm *SessionManager) Close() {
	if sm.store != nil {
		sm.store.StopCleanup()
	}
}

// PutFlash stores a notice for the next rendered page.
func (sm *SessionManager) PutFlash(ctx context.Context, kind FlashKind, message string) {
	sm.Put(ctx, sessionKeyFlash, Flash{Kind: kind, Message: message})
}

// PopFlash returns and removes the pending notice, or nil if there is none.
func (sm *SessionManager) PopFlash(ctx context.Context) *Flash {
	flash, ok := sm.Pop(ctx, sessionKeyFlash).(Flash)
	if !ok {
		return nil
	}
	return &flash
}
