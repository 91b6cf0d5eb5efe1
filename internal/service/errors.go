// Package service holds the session manager and the listing engine: the
// parts of the marketplace that decide who a request belongs to and which
// items may be written.  HTTP and SQL concerns live in the handler and
// repository packages.
package service

import "errors"

// Error kinds.  Every error returned by this package either wraps one of
// these or is an internal failure.
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrConflict           = errors.New("conflict")
	ErrNotFound           = errors.New("not found")
)

// Error pairs an error kind with the message shown to the client.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }
func (e *Error) Unwrap() error { return e.Kind }

func invalidInput(msg string) error { return &Error{Kind: ErrInvalidInput, Message: msg} }

var (
	errBadCredentials = &Error{Kind: ErrInvalidCredentials, Message: "Invalid credentials"}
	errEmailInUse     = &Error{Kind: ErrConflict, Message: "Email already in use"}
	errUnauthorized   = &Error{Kind: ErrUnauthorized, Message: "Unauthorized"}
	errItemNotFound   = &Error{Kind: ErrNotFound, Message: "Not found"}
)
