// Package engineerr defines the structured error taxonomy used across
// the engine (spec section 7): every fallible operation returns an
// *Error tagged with a Kind so callers can branch on it without string
// matching, generalizing the teacher's ValidationError/ValidationErrors
// pattern (a plain struct implementing error, aggregable into a slice).
package engineerr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an error per the taxonomy in spec section 7. It is not
// a type hierarchy — just a label on the one Error struct.
type Kind string

const (
	KindTransient         Kind = "transient_provider_error"
	KindBudgetExceeded     Kind = "budget_exceeded"
	KindInvalidTree        Kind = "invalid_tree"
	KindMalformedOutput    Kind = "malformed_llm_output"
	KindGraphIntegrity     Kind = "graph_integrity_error"
	KindTimeout            Kind = "timeout"
	KindCancelled          Kind = "cancelled"
	KindSinkUnreachable    Kind = "external_sink_unreachable"
	KindCacheCorruption    Kind = "cache_corruption"
	KindValidation         Kind = "validation_error"
)

// Error is the engine's structured error value: a Kind, a short human
// Reason, and an optional wrapped cause.
type Error struct {
	Kind   Kind
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is supports errors.Is(err, &Error{Kind: K}) comparisons by Kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New constructs an *Error of the given kind.
func New(kind Kind, reason string) *Error {
	return &Error{Kind: kind, Reason: reason}
}

// Wrap constructs an *Error of the given kind wrapping a cause.
func Wrap(kind Kind, reason string, cause error) *Error {
	return &Error{Kind: kind, Reason: reason, Err: cause}
}

// KindOf extracts the Kind of err if it is (or wraps) an *Error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// FieldError represents a single field-level validation failure.
type FieldError struct {
	Field   string
	Message string
	Value   any
}

func (e FieldError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// FieldErrors is a collection of validation failures, itself an error.
type FieldErrors []FieldError

func (e FieldErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	msgs := make([]string, len(e))
	for i, fe := range e {
		msgs[i] = fe.Error()
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// HasErrors reports whether any field errors were collected.
func (e FieldErrors) HasErrors() bool {
	return len(e) > 0
}

// ToError returns nil when empty, else wraps itself as a KindValidation
// *Error so callers can treat it uniformly with the rest of the taxonomy.
func (e FieldErrors) ToError() error {
	if len(e) == 0 {
		return nil
	}
	return Wrap(KindValidation, "one or more fields are invalid", e)
}

// Validator accumulates field errors across a sequence of checks.
type Validator struct {
	errs FieldErrors
}

// NewValidator creates an empty Validator.
func NewValidator() *Validator {
	return &Validator{}
}

// AddError records a field error.
func (v *Validator) AddError(field, message string, value any) {
	v.errs = append(v.errs, FieldError{Field: field, Message: message, Value: value})
}

// Require records an error on field unless condition holds.
func (v *Validator) Require(condition bool, field, message string) {
	if !condition {
		v.AddError(field, message, nil)
	}
}

// RequirePositive records an error unless value > 0.
func (v *Validator) RequirePositive(value int, field string) {
	if value <= 0 {
		v.AddError(field, "must be positive", value)
	}
}

// RequireRange records an error unless lo <= value <= hi.
func (v *Validator) RequireRange(value, lo, hi float64, field string) {
	if value < lo || value > hi {
		v.AddError(field, fmt.Sprintf("must be in [%v, %v]", lo, hi), value)
	}
}

// Errors returns the accumulated field errors.
func (v *Validator) Errors() FieldErrors {
	return v.errs
}

// Err returns nil if no errors were collected, else a KindValidation *Error.
func (v *Validator) Err() error {
	return v.errs.ToError()
}
