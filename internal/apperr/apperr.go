// Package apperr classifies failures into the four kinds surfaced to users:
// validation, transport, not-found and session-state errors.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrValidation = errors.New("validation error")
	ErrTransport  = errors.New("transport error")
	ErrNotFound   = errors.New("not found")
	ErrState      = errors.New("invalid state")
)

type Error struct {
	Kind error
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func New(kind error, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func Validation(op string, err error) error { return New(ErrValidation, op, err) }

func Transport(op string, err error) error { return New(ErrTransport, op, err) }

func NotFound(op string, err error) error { return New(ErrNotFound, op, err) }

func State(op string, err error) error { return New(ErrState, op, err) }

// KindOf returns the kind sentinel carried by err, or nil for unclassified errors.
func KindOf(err error) error {
	for _, kind := range []error{ErrValidation, ErrTransport, ErrNotFound, ErrState} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
