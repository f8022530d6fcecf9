// Package dErrors provides coded domain errors. Services return these so
// transports can map failures to responses without string matching, and
// tests can assert on codes instead of messages.
//
// Codes are closed and deterministic: the same inputs always produce the
// same code. Infrastructure facts (row missing, connection refused) live in
// pkg/platform/sentinel; stores wrap them, services translate them here.
package dErrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a domain failure.
type Code string

const (
	// CodeBadRequest covers malformed or semantically invalid requests.
	CodeBadRequest Code = "bad_request"

	// CodeInvalidInput covers field-level validation failures at trust
	// boundaries (id parsing, enum parsing).
	CodeInvalidInput Code = "invalid_input"

	// CodeUnauthorized covers missing or invalid authentication.
	CodeUnauthorized Code = "unauthorized"

	// CodeNotFound covers references to entities that do not exist.
	CodeNotFound Code = "not_found"

	// CodeConflict covers writes that would violate a uniqueness or
	// immutability invariant.
	CodeConflict Code = "conflict"

	// CodeTimeout covers aborted work due to context expiry.
	CodeTimeout Code = "timeout"

	// CodeInternal covers unexpected failures. Messages for this code are
	// never surfaced to clients.
	CodeInternal Code = "internal_error"

	// Workflow taxonomy. These are terminal for the call that produced
	// them: the engine never retries, and the prior committed state is
	// left untouched.

	// CodeInvalidTransition: the action is not legal from the process's
	// current state.
	CodeInvalidTransition Code = "invalid_transition"

	// CodeUnauthorizedActor: the action is legal but the actor's role is
	// not permitted to perform it at this state.
	CodeUnauthorizedActor Code = "unauthorized_actor"

	// CodeMissingSimulation: an ESP approval was attempted before any
	// simulation result exists for the package.
	CodeMissingSimulation Code = "missing_simulation"

	// CodeUnavailable: an organizational data source could not be
	// reached. The in-flight transition was aborted cleanly; callers may
	// re-submit at the I/O edge.
	CodeUnavailable Code = "data_source_unavailable"
)

// Error is a coded domain error. It optionally wraps a cause for logs;
// the cause never leaks into client responses.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New builds a coded error with a human-readable message.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf builds a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying cause.
func Wrap(code Code, message string, err error) error {
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err (or anything it wraps) carries the code.
func HasCode(err error, code Code) bool {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal for
// uncoded errors so transports always have something to map.
func CodeOf(err error) Code {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return CodeInternal
}

// MessageOf extracts the client-safe message from err. Uncoded and
// internal errors yield an empty message.
func MessageOf(err error) string {
	var domainErr *Error
	if errors.As(err, &domainErr) && domainErr.Code != CodeInternal {
		return domainErr.Message
	}
	return ""
}

// ToHTTPStatus maps a code to its HTTP status.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest, CodeInvalidInput:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeUnauthorizedActor:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeInvalidTransition, CodeMissingSimulation:
		return http.StatusConflict
	case CodeTimeout:
		return http.StatusGatewayTimeout
	case CodeUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
