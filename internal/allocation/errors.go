package allocation

import (
	"errors"
	"fmt"
)

// Kind classifies an engine failure so the boundary can map it to a
// response without parsing messages.
type Kind string

const (
	KindInvalidInput      Kind = "invalid_input"
	KindAccountNotFound   Kind = "account_not_found"
	KindInsufficientLimit Kind = "insufficient_limit"
	KindPaymentNotAllowed Kind = "payment_not_allowed"
	KindStoreFailure      Kind = "store_failure"
)

// Error is a structured engine failure: a machine-readable kind plus a
// human-readable message. Validation errors are raised before any mutation.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func storeFailure(err error) *Error {
	return &Error{Kind: KindStoreFailure, Message: "persistence failure", cause: err}
}

// KindOf extracts the failure kind from err, or an empty Kind when err was
// not produced by the engine.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries the given failure kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
