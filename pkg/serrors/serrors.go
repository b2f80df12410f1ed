// Package serrors provides semantic error kinds used across the loan approval
// service. A kind is a comparable sentinel that also carries a severity: fatal
// kinds abort the current record or batch, recoverable kinds are absorbed by the
// component that detects them and surface only as diagnostics.
package serrors

import (
	"errors"
	"fmt"
)

// Kind is a marker interface implemented by all semantic error kinds created
// with NewKind or NewRecoverableKind.
type Kind interface {
	error
	// Recoverable reports whether errors of this kind may be replaced by a
	// defined default value instead of aborting the operation.
	Recoverable() bool
	isKind()
}

type kind struct {
	s           string
	recoverable bool
}

func (k kind) Error() string     { return k.s }
func (k kind) Recoverable() bool { return k.recoverable }
func (k kind) isKind()           {}

// NewKind creates a new fatal semantic error kind with the provided name.
func NewKind(name string) Kind { return kind{s: name} }

// NewRecoverableKind creates a semantic error kind whose occurrences are
// recoverable: the detecting component falls back to a default and continues.
func NewRecoverableKind(name string) Kind { return kind{s: name, recoverable: true} }

var (
	// ErrSchemaViolation indicates an unknown field, a categorical value outside
	// its declared domain, or a missing required field.
	ErrSchemaViolation = NewKind("SCHEMA_VIOLATION")
	// ErrMissingFittedArtifact indicates that an apply-phase operation was invoked
	// without a fitted transform state.
	ErrMissingFittedArtifact = NewKind("MISSING_FITTED_ARTIFACT")
	// ErrUnparseableAuxiliaryField indicates a malformed auxiliary field (such as
	// the platform ratings string) that was replaced by its default.
	ErrUnparseableAuxiliaryField = NewRecoverableKind("UNPARSEABLE_AUXILIARY_FIELD")
	// ErrUnseenCategory indicates a categorical value that was not part of the
	// fit-time vocabulary and was encoded as the baseline row.
	ErrUnseenCategory = NewRecoverableKind("UNSEEN_CATEGORY")
	// ErrInsufficientData indicates that a fit step had too little data to
	// estimate its statistics.
	ErrInsufficientData = NewKind("INSUFFICIENT_DATA")

	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = NewKind("NOT_FOUND")
	// ErrUnauthorized indicates missing or invalid authentication.
	ErrUnauthorized = NewKind("UNAUTHORIZED")
	// ErrBadRequest indicates the client sent invalid data.
	ErrBadRequest = NewKind("BAD_REQUEST")
	// ErrConflict indicates a state conflict.
	ErrConflict = NewKind("CONFLICT")
	// ErrInternal indicates an internal server error.
	ErrInternal = NewKind("INTERNAL")
	// ErrUnavailable indicates the service cannot serve the request yet.
	ErrUnavailable = NewKind("UNAVAILABLE")
)

// Error represents a semantic error carrying a kind (sentinel), an optional
// wrapped error and an optional message. It fully supports errors.Is/errors.As
// and unwrapping.
//
// Error string formatting:
//   - If both msg and err are set: "<msg>: <err>"
//   - If only msg is set: "<msg>"
//   - If only err is set: "<err>"
//   - If neither set: the kind's Error() string.
type Error struct {
	kind Kind
	err  error
	msg  string
	// field is the schema field the error refers to, if any.
	field string
}

// With constructs a new semantic error with the given kind and message.
func With(k Kind, msgFmt string, args ...any) *Error {
	return &Error{kind: k, msg: fmt.Sprintf(msgFmt, args...)}
}

// Wrap constructs a new semantic error with the given kind, wrapping err.
func Wrap(k Kind, err error, msgFmt string, args ...any) *Error {
	return &Error{kind: k, err: err, msg: fmt.Sprintf(msgFmt, args...)}
}

// KindOnly creates a semantic error carrying only the kind.
func KindOnly(k Kind) *Error { return &Error{kind: k} }

// Field constructs a semantic error attached to a named schema field.
func Field(k Kind, field string, msgFmt string, args ...any) *Error {
	return &Error{kind: k, field: field, msg: fmt.Sprintf(msgFmt, args...)}
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e == nil:
		return "<nil>"
	case e.msg != "" && e.err != nil:
		return e.msg + ": " + e.err.Error()
	case e.msg != "":
		return e.msg
	case e.err != nil:
		return e.err.Error()
	default:
		if e.kind != nil {
			return e.kind.Error()
		}

		return "unknown error"
	}
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error { return e.err }

// Is matches against either the kind sentinel or the wrapped error.
func (e *Error) Is(target error) bool {
	if e == nil || target == nil {
		return e == nil && target == nil
	}
	if e.kind != nil && errors.Is(e.kind, target) {
		return true
	}
	if e.err != nil && errors.Is(e.err, target) {
		return true
	}

	return false
}

// As enables type assertions against either the kind sentinel or the wrapped
// error in the chain.
func (e *Error) As(target any) bool {
	if e == nil || target == nil {
		return false
	}
	if e.kind != nil && errors.As(e.kind, target) {
		return true
	}
	if e.err != nil && errors.As(e.err, target) {
		return true
	}

	return false
}

// Kind returns the semantic kind sentinel associated with this error, or nil.
func (e *Error) Kind() Kind { return e.kind }

// Message returns the message attached to this error.
func (e *Error) Message() string { return e.msg }

// Cause returns the wrapped cause (may be nil).
func (e *Error) Cause() error { return e.err }

// FieldName returns the schema field the error refers to, or "".
func (e *Error) FieldName() string { return e.field }

// KindOf extracts the semantic kind from anywhere in err's chain.
func KindOf(err error) Kind {
	var k Kind
	if errors.As(err, &k) {
		return k
	}

	return nil
}

// IsRecoverable reports whether err carries a recoverable kind. Errors without
// a semantic kind are treated as fatal.
func IsRecoverable(err error) bool {
	k := KindOf(err)

	return k != nil && k.Recoverable()
}
