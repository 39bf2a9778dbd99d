// Package domainerrors carries coded, typed errors across service boundaries.
//
// Stores report infrastructure facts with pkg/platform/sentinel; services
// translate those facts into coded errors so UI collaborators can branch on
// Code without string matching.
package domainerrors

import (
	"errors"
	"fmt"
	"maps"
	"sort"
	"strings"
)

// Code classifies a domain error.
type Code string

const (
	// CodeValidation reports malformed or missing input. Fields carries one
	// message per offending field.
	CodeValidation         Code = "validation"
	// CodeInvalidInput reports a malformed primitive (id, enum value).
	CodeInvalidInput       Code = "invalid_input"
	CodeDuplicateEmail     Code = "duplicate_email"
	CodeInvalidCredentials Code = "invalid_credentials"
	CodeCapacityExceeded   Code = "capacity_exceeded"
	CodeInvalidTransition  Code = "invalid_transition"
	CodeAlreadyPaid        Code = "already_paid"
	CodeStorageCorrupt     Code = "storage_corrupt"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeUnauthorized       Code = "unauthorized"
	CodeTimeout            Code = "timeout"
	CodeInternal           Code = "internal"
	CodeInvariantViolation Code = "invariant_violation"
)

// Error is the single error type returned by services.
type Error struct {
	Code    Code
	Message string
	// Fields maps a field name to its validation message. Only set for
	// CodeValidation.
	Fields map[string]string
	cause  error
}

func (e *Error) Error() string {
	msg := e.Message
	if len(e.Fields) > 0 {
		msg += ": " + formatFields(e.Fields)
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, msg, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// New creates a coded error.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying cause. Wrapping nil
// returns nil.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// Ensure returns err unchanged when it already carries a code and wraps it
// otherwise. Services use it on store errors so storage codes (conflict,
// timeout) survive instead of collapsing to internal.
func Ensure(err error, code Code, message string) error {
	var de *Error
	if errors.As(err, &de) {
		return err
	}
	return Wrap(err, code, message)
}

// Validation builds a CodeValidation error carrying every field failure.
// It returns nil when fields is empty so callers can collect first and
// decide afterwards.
func Validation(message string, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	return &Error{Code: CodeValidation, Message: message, Fields: maps.Clone(fields)}
}

// HasCode reports whether any error in err's chain carries code.
func HasCode(err error, code Code) bool {
	var de *Error
	for err != nil {
		if !errors.As(err, &de) {
			return false
		}
		if de.Code == code {
			return true
		}
		err = de.cause
	}
	return false
}

// CodeOf returns the outermost code in err's chain, or CodeInternal for
// uncoded errors.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// FieldErrors returns the field map of the first validation error in the
// chain, or nil.
func FieldErrors(err error) map[string]string {
	var de *Error
	if errors.As(err, &de) && de.Code == CodeValidation {
		return de.Fields
	}
	return nil
}

func formatFields(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fields[k])
	}
	return strings.Join(parts, "; ")
}
