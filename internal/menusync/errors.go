package menusync

import (
	"errors"
	"fmt"
)

// Kind classifies failures returned by the Service.
type Kind string

const (
	KindValidation         Kind = "validation"
	KindNotFound           Kind = "not_found"
	KindBackendUnavailable Kind = "backend_unavailable"
)

// Error is the error type returned by Service operations.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches by kind so callers can test with errors.Is(err, ErrNotFound).
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

var (
	ErrValidation         = &Error{Kind: KindValidation}
	ErrNotFound           = &Error{Kind: KindNotFound}
	ErrBackendUnavailable = &Error{Kind: KindBackendUnavailable}
)

// errBreakerOpen is returned by remote calls skipped while the breaker is open.
var errBreakerOpen = errors.New("circuit breaker open")

func validationError(op, msg string) error {
	return &Error{Kind: KindValidation, Op: op, Message: msg}
}

func notFoundError(op string, id int64) error {
	return &Error{Kind: KindNotFound, Op: op, Message: fmt.Sprintf("menu item %d not found", id)}
}

func unavailableError(op string, cause error) error {
	return &Error{Kind: KindBackendUnavailable, Op: op, Message: "menu backend unavailable", Cause: cause}
}

// KindOf returns the Kind of err, or "" for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
