// Package apperr defines the single failure type returned by repositories and services.
//
// Every failure carries a Kind so that callers can tell "not found" from
// "conflict", "storage unavailable" and "validation" without string matching:
//
//	book, err := repo.GetBookByID(ctx, id)
//	if apperr.IsNotFound(err) {
//		// render 404
//	}
package apperr

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net/http"

	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindConflict
	KindUnavailable
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUnavailable:
		return "storage_unavailable"
	case KindValidation:
		return "validation"
	default:
		return "internal"
	}
}

type Error struct {
	Kind    Kind
	Op      string // operation that failed, e.g. "books.AddBook"
	Message string // safe to show to users
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NotFound reports a missing resource, e.g. NotFound("books.GetBookByID", "book").
func NotFound(op, resource string) error {
	return &Error{Kind: KindNotFound, Op: op, Message: resource + " not found"}
}

func Conflict(op, message string) error {
	return &Error{Kind: KindConflict, Op: op, Message: message}
}

func Validation(op, message string) error {
	return &Error{Kind: KindValidation, Op: op, Message: message}
}

// Validationf wraps err as a validation failure using err's text as the message.
func Validationf(op string, err error) error {
	return &Error{Kind: KindValidation, Op: op, Message: err.Error()}
}

func Unavailable(op string, err error) error {
	return &Error{Kind: KindUnavailable, Op: op, Message: "storage unavailable", Err: err}
}

// FromStorage classifies an error returned by gorm or the sqlite driver.
// Errors that are already *Error pass through unchanged.
func FromStorage(op string, err error) error {
	if err == nil {
		return nil
	}

	var appErr *Error
	if errors.As(err, &appErr) {
		return err
	}

	if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, sql.ErrNoRows) {
		return &Error{Kind: KindNotFound, Op: op, Message: "record not found", Err: err}
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return &Error{Kind: KindConflict, Op: op, Message: "record already exists", Err: err}
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return &Error{Kind: KindValidation, Op: op, Message: "referenced record does not exist", Err: err}
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return &Error{Kind: KindConflict, Op: op, Message: "record already exists", Err: err}
		case sqlite3.ErrConstraintForeignKey:
			return &Error{Kind: KindValidation, Op: op, Message: "referenced record does not exist", Err: err}
		case sqlite3.ErrConstraintCheck, sqlite3.ErrConstraintNotNull:
			return &Error{Kind: KindValidation, Op: op, Message: "value rejected by storage constraints", Err: err}
		}
	}

	return Unavailable(op, err)
}

// KindOf returns the Kind of err, or KindInternal for errors that did not come from this package.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

func IsConflict(err error) bool {
	return KindOf(err) == KindConflict
}

func IsValidation(err error) bool {
	return KindOf(err) == KindValidation
}

func IsUnavailable(err error) bool {
	return KindOf(err) == KindUnavailable
}

// Message returns the user-facing message of err.
func Message(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return "internal error"
}

// HTTPStatus maps err to the response status a handler should use.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUnavailable:
		return http.StatusServiceUnavailable
	case KindValidation:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// IsConnectionError reports whether err means the pool could not hand out a working connection.
func IsConnectionError(err error) bool {
	if errors.Is(err, sql.ErrConnDone) || errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code {
		case sqlite3.ErrBusy, sqlite3.ErrLocked, sqlite3.ErrCantOpen:
			return true
		}
	}
	return false
}

// Wrap adds operation context to err while preserving its Kind.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}
