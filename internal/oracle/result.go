// Package oracle holds the plumbing shared by the services that consult the
// external text-generation model.
package oracle

import (
	"errors"
	"fmt"
)

// FailureKind classifies why an oracle call did not produce a usable value.
type FailureKind string

const (
	// FailureTransport covers network errors, timeouts and missing models.
	FailureTransport FailureKind = "transport"
	// FailureParse covers empty, malformed or schema-violating output.
	FailureParse FailureKind = "parse"
)

// ErrUnavailable is reported when no chat model is configured.
var ErrUnavailable = errors.New("oracle unavailable")

// Result is the outcome of a single oracle attempt: either a value or a failure.
type Result[T any] struct {
	value T
	kind  FailureKind
	err   error
}

// Ok wraps a successful value.
func Ok[T any](v T) Result[T] {
	return Result[T]{value: v}
}

// Err wraps a failure. A nil err is replaced so Failed always holds.
func Err[T any](kind FailureKind, err error) Result[T] {
	if err == nil {
		err = fmt.Errorf("oracle %s failure", kind)
	}
	return Result[T]{kind: kind, err: err}
}

// Failed reports whether the attempt failed.
func (r Result[T]) Failed() bool {
	return r.err != nil
}

// Value returns the successful value, or the zero value on failure.
func (r Result[T]) Value() T {
	return r.value
}

// Failure returns the failure kind and cause; both are empty on success.
func (r Result[T]) Failure() (FailureKind, error) {
	return r.kind, r.err
}

// Or returns the value on success and fallback() otherwise.
func (r Result[T]) Or(fallback func(kind FailureKind, err error) T) T {
	if r.err == nil {
		return r.value
	}
	return fallback(r.kind, r.err)
}
