// Package form is the controller shared by every auth and create screen:
// field edits clear their own error, and submission only reaches the
// caller's handler once validation passes.
package form

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	// ErrInvalid is returned by HandleSubmit when validation fails.
	ErrInvalid = errors.New("form has validation errors")
	// ErrSubmitting is returned when a submission is already in flight.
	ErrSubmitting = errors.New("form is already submitting")
	// ErrDebounced is returned for attempts inside the debounce window of the
	// previous submission.
	ErrDebounced = errors.New("submit ignored: too soon after previous attempt")
)

// Errors maps a field name to its message. Empty messages count as no error.
type Errors map[string]string

// Any reports whether at least one message is non-empty.
func (e Errors) Any() bool {
	for _, msg := range e {
		if msg != "" {
			return true
		}
	}
	return false
}

// ValidateFunc checks the current values and returns field errors.
type ValidateFunc[T any] func(T) Errors

// SubmitFunc receives the validated values.
type SubmitFunc[T any] func(ctx context.Context, values T) error

// Option configures a Form.
type Option func(*settings)

type settings struct {
	debounce time.Duration
	now      func() time.Time
}

// WithDebounce drops submit attempts made less than d after the previous
// submission. Attempts that fail validation do not start the window.
func WithDebounce(d time.Duration) Option {
	return func(s *settings) { s.debounce = d }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *settings) { s.now = now }
}

// Form holds values, field errors and the submitting flag.
type Form[T any] struct {
	mu          sync.Mutex
	initial     T
	values      T
	errors      Errors
	submitting  bool
	validate    ValidateFunc[T]
	cfg         settings
	lastAttempt time.Time
}

// New creates a form in the editing state. A nil validate accepts everything.
func New[T any](initial T, validate ValidateFunc[T], opts ...Option) *Form[T] {
	cfg := settings{now: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}
	if validate == nil {
		validate = func(T) Errors { return nil }
	}
	return &Form[T]{
		initial:  initial,
		values:   initial,
		errors:   Errors{},
		validate: validate,
		cfg:      cfg,
	}
}

// Values returns the current values.
func (f *Form[T]) Values() T {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values
}

// Errors returns a copy of the current field errors.
func (f *Form[T]) Errors() Errors {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(Errors, len(f.errors))
	for k, v := range f.errors {
		out[k] = v
	}
	return out
}

// IsSubmitting reports whether onSubmit is running.
func (f *Form[T]) IsSubmitting() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitting
}

// Change applies mutate to the values and clears the error of field.
func (f *Form[T]) Change(field string, mutate func(*T)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	mutate(&f.values)
	delete(f.errors, field)
}

// SetError attaches a message to a field, e.g. one reported by the backend.
func (f *Form[T]) SetError(field, msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errors[field] = msg
}

// Reset restores the initial values and clears all errors.
func (f *Form[T]) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values = f.initial
	f.errors = Errors{}
	f.lastAttempt = time.Time{}
}

// HandleSubmit validates the values and, when they pass, calls onSubmit.
// Validation failures populate Errors and return ErrInvalid without calling
// onSubmit. The error returned by onSubmit is passed through unchanged; the
// form leaves the submitting state whether it succeeded or not.
func (f *Form[T]) HandleSubmit(ctx context.Context, onSubmit SubmitFunc[T]) error {
	f.mu.Lock()
	if f.submitting {
		f.mu.Unlock()
		return ErrSubmitting
	}
	now := f.cfg.now()
	if f.cfg.debounce > 0 && !f.lastAttempt.IsZero() && now.Sub(f.lastAttempt) < f.cfg.debounce {
		f.mu.Unlock()
		return ErrDebounced
	}

	errs := f.validate(f.values)
	if errs.Any() {
		f.errors = make(Errors, len(errs))
		for k, v := range errs {
			f.errors[k] = v
		}
		f.mu.Unlock()
		return ErrInvalid
	}
	f.errors = Errors{}
	f.lastAttempt = now
	f.submitting = true
	values := f.values
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.submitting = false
		f.mu.Unlock()
	}()
	return onSubmit(ctx, values)
}
