package services

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by a service wraps exactly one of these.
var (
	ErrNotFound       = errors.New("resource not found")
	ErrBadRequest     = errors.New("bad request")
	ErrForbidden      = errors.New("forbidden")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrResourceExists = errors.New("resource already exists")
)

// Error carries a user-facing message alongside its kind.
type Error struct {
	kind error
	msg  string
}

func newError(kind error, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

func (e *Error) Error() string { return e.msg }

func (e *Error) Unwrap() error { return e.kind }

var (
	ErrFolderNotFound       = newError(ErrNotFound, "Folder not found")
	ErrParentFolderNotFound = newError(ErrNotFound, "Parent folder not found")
	ErrTargetFolderNotFound = newError(ErrNotFound, "Target folder not found")
	ErrNoteNotFound         = newError(ErrNotFound, "Note not found")
	ErrUserNotFound         = newError(ErrNotFound, "User not found")
	ErrSelfParent           = newError(ErrBadRequest, "Cannot move a folder into itself")
	ErrFolderCycle          = newError(ErrBadRequest, "Cannot move a folder into one of its descendants")
	ErrDefaultFolderDelete  = newError(ErrForbidden, "Cannot delete the default folder")
	ErrAdminOnly            = newError(ErrForbidden, "Admin access required")
	ErrInvalidCredentials   = newError(ErrUnauthorized, "Invalid email or password")
	ErrInvalidToken         = newError(ErrUnauthorized, "Invalid or expired token")
	ErrEmailTaken           = newError(ErrResourceExists, "Email is already registered")
)

func invalidInput(format string, args ...interface{}) error {
	return newError(ErrBadRequest, fmt.Sprintf(format, args...))
}

// InvalidInput reports a malformed request with a caller-visible message.
func InvalidInput(msg string) error {
	return newError(ErrBadRequest, msg)
}

// ErrorKind is the machine-readable code surfaced to RPC callers.
type ErrorKind string

const (
	KindNotFound     ErrorKind = "NOT_FOUND"
	KindBadRequest   ErrorKind = "BAD_REQUEST"
	KindForbidden    ErrorKind = "FORBIDDEN"
	KindUnauthorized ErrorKind = "UNAUTHORIZED"
	KindConflict     ErrorKind = "CONFLICT"
	KindInternal     ErrorKind = "INTERNAL_SERVER_ERROR"
)

func KindOf(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrBadRequest):
		return KindBadRequest
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	case errors.Is(err, ErrUnauthorized):
		return KindUnauthorized
	case errors.Is(err, ErrResourceExists):
		return KindConflict
	default:
		return KindInternal
	}
}

// MessageOf returns the message safe to show a caller. Internal errors are
// never echoed.
func MessageOf(err error) string {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.msg
	}
	if KindOf(err) == KindInternal {
		return "Internal server error"
	}
	return err.Error()
}
