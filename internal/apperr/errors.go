// Package apperr classifies the errors the console shows to users.
package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind is the category of an error.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindTransport
	KindAuth
	KindNotFound
	KindSuppressed
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindTransport:
		return "transport"
	case KindAuth:
		return "auth"
	case KindNotFound:
		return "not_found"
	case KindSuppressed:
		return "suppressed"
	default:
		return "unknown"
	}
}

// FallbackMessage is shown when nothing better is known.
const FallbackMessage = "Something went wrong. Please try again."

// Error is a classified error. Status and Message come from the backend
// response when there was one.
type Error struct {
	Op      string
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Status != 0 {
		msg = http.StatusText(e.Status)
	}
	if e.Err != nil {
		if msg == "" {
			return fmt.Sprintf("%s: %v", e.Op, e.Err)
		}
		return fmt.Sprintf("%s: %s: %v", e.Op, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a classified error.
func New(op string, kind Kind, message string, err error) *Error {
	return &Error{Op: op, Kind: kind, Message: message, Err: err}
}

// FromStatus classifies a non-2xx backend response.
func FromStatus(op string, status int, message string) *Error {
	kind := KindTransport
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = KindAuth
	case status == http.StatusNotFound:
		kind = KindNotFound
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity || status == http.StatusConflict:
		kind = KindValidation
	}
	return &Error{Op: op, Kind: kind, Status: status, Message: message}
}

// Suppress marks err as known noise that callers should not surface.
// Classification happens where the error originates, never by inspecting
// message text afterwards.
func Suppress(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Kind: KindSuppressed, Err: err}
}

// KindOf returns the kind of the outermost classified error in the chain.
// Context cancellation and deadlines count as transport failures.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindTransport
	}
	return KindUnknown
}

// IsSuppressed reports whether err was marked with Suppress.
func IsSuppressed(err error) bool {
	return KindOf(err) == KindSuppressed
}

// IsAuth reports whether err is an authentication failure.
func IsAuth(err error) bool {
	return KindOf(err) == KindAuth
}

// StatusOf returns the backend status carried by err, or 0.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return 0
}

// Message picks the text for an error banner: the backend's message, then
// the HTTP status text, then the wrapped error, then a generic fallback.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		if m := strings.TrimSpace(e.Message); m != "" {
			return m
		}
		if e.Status != 0 {
			if t := http.StatusText(e.Status); t != "" {
				return t
			}
		}
		if e.Err != nil && e.Err.Error() != "" {
			return e.Err.Error()
		}
		return FallbackMessage
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "The request timed out. Please try again."
	}
	if m := strings.TrimSpace(err.Error()); m != "" {
		return m
	}
	return FallbackMessage
}
