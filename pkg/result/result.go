// Package result provides a discriminated success/failure container used by
// the auth service's public contract. Expected failures (bad credentials,
// duplicate email, store outages) travel as values; only contract violations
// panic.
package result

import "fmt"

// Kind classifies a failure so callers can map it to their own surface
// (HTTP status codes, retry policy, user messaging) without parsing strings.
type Kind string

const (
	// KindValidation covers malformed input: bad email shape, weak password,
	// missing required fields. Reported with field-level detail.
	KindValidation Kind = "validation"

	// KindAuthentication covers wrong credentials, ineligible accounts and
	// invalid or expired tokens.
	KindAuthentication Kind = "authentication"

	// KindConflict covers duplicate-email registration.
	KindConflict Kind = "conflict"

	// KindInfrastructure covers store or signing failures. The underlying
	// error is logged internally and never carried here verbatim.
	KindInfrastructure Kind = "infrastructure"
)

// Failure is the error side of a Result: a kind, a caller-facing message and
// an optional structured detail map (field name to problem for validation).
type Failure struct {
	Kind    Kind
	Message string
	Details map[string]string
}

// Error implements the error interface so a Failure can be handed to
// logging or wrapping helpers directly.
func (f Failure) Error() string {
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

// Result holds exactly one of a success payload or a Failure. The zero value
// is a failure with no message; construct values through Ok, Fail or
// FailWith.
type Result[T any] struct {
	ok      bool
	value   T
	failure Failure
}

// Ok wraps a success payload.
func Ok[T any](v T) Result[T] {
	return Result[T]{ok: true, value: v}
}

// Fail builds a failure Result with the given kind and message.
func Fail[T any](kind Kind, message string) Result[T] {
	return Result[T]{failure: Failure{Kind: kind, Message: message}}
}

// FailDetails is Fail with a structured detail map attached.
func FailDetails[T any](kind Kind, message string, details map[string]string) Result[T] {
	return Result[T]{failure: Failure{Kind: kind, Message: message, Details: details}}
}

// FailWith wraps an existing Failure, preserving kind, message and details.
// Used to re-type a failure when it crosses between Result payload types.
func FailWith[T any](f Failure) Result[T] {
	return Result[T]{failure: f}
}

// IsOK reports whether the Result holds a success payload.
func (r Result[T]) IsOK() bool { return r.ok }

// IsFailure reports whether the Result holds a Failure.
func (r Result[T]) IsFailure() bool { return !r.ok }

// Value returns the success payload. Calling Value on a failure is a caller
// bug and panics.
func (r Result[T]) Value() T {
	if !r.ok {
		panic(fmt.Sprintf("result: Value called on failure (%s)", r.failure.Error()))
	}
	return r.value
}

// Failure returns the failure side. Calling Failure on a success is a caller
// bug and panics.
func (r Result[T]) Failure() Failure {
	if r.ok {
		panic("result: Failure called on success")
	}
	return r.failure
}

// UnwrapOr returns the payload, or fallback when the Result is a failure.
func (r Result[T]) UnwrapOr(fallback T) T {
	if !r.ok {
		return fallback
	}
	return r.value
}

// Map transforms the payload of a success; failures pass through untouched.
func Map[T, U any](r Result[T], fn func(T) U) Result[U] {
	if !r.ok {
		return FailWith[U](r.failure)
	}
	return Ok(fn(r.value))
}

// FlatMap chains a Result-producing step onto a success; failures
// short-circuit.
func FlatMap[T, U any](r Result[T], fn func(T) Result[U]) Result[U] {
	if !r.ok {
		return FailWith[U](r.failure)
	}
	return fn(r.value)
}

// Match resolves a Result into a single value by applying exactly one of the
// two functions.
func Match[T, U any](r Result[T], onOK func(T) U, onFailure func(Failure) U) U {
	if r.ok {
		return onOK(r.value)
	}
	return onFailure(r.failure)
}
