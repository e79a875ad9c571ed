package store

import (
	"errors"
	"strings"
)

// Sentinel errors. Domain failures come back as *Error values wrapping one
// of these, so callers can match with errors.Is and still show Msg.
var (
	ErrNotFound     = errors.New("not found")
	ErrAlreadyVoted = errors.New("already voted")
	ErrInvalidState = errors.New("invalid state")
	ErrForbidden    = errors.New("forbidden")
	ErrDuplicate    = errors.New("duplicate")
)

// Error is a domain error with a message safe to show to API callers.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

// Unwrap exposes the sentinel for errors.Is.
func (e *Error) Unwrap() error { return e.Kind }

func notFound(msg string) error { return &Error{Kind: ErrNotFound, Msg: msg} }
func invalidState(msg string) error { return &Error{Kind: ErrInvalidState, Msg: msg} }
func forbidden(msg string) error { return &Error{Kind: ErrForbidden, Msg: msg} }
func duplicate(msg string) error { return &Error{Kind: ErrDuplicate, Msg: msg} }
func alreadyVoted(msg string) error { return &Error{Kind: ErrAlreadyVoted, Msg: msg} }

// Message returns the caller-facing text of a domain error, or "" when err
// is not one.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return ""
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isForeignKeyViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
