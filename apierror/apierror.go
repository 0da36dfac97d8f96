// Package apierror defines the error kinds surfaced by the gateway and how
// each one maps onto an HTTP status.
package apierror

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindValidation        Kind = "validation_error"
	KindInvalidImageData  Kind = "invalid_image_data"
	KindMissingCredential Kind = "missing_credential"
	KindTransport         Kind = "transport_error"
	KindUpstream          Kind = "upstream_error"
	KindUnexpected        Kind = "unexpected_error"
)

// Error is the single error type passed between gateway components.
type Error struct {
	Kind    Kind
	Message string

	// Set only for KindUpstream.
	UpstreamStatus int
	UpstreamBody   string

	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Status returns the HTTP status code the error should be reported with.
func (e *Error) Status() int {
	switch e.Kind {
	case KindValidation, KindInvalidImageData:
		return http.StatusBadRequest
	case KindTransport, KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func InvalidImageData(msg string) *Error {
	return &Error{Kind: KindInvalidImageData, Message: msg}
}

func MissingCredential(envName string) *Error {
	return &Error{Kind: KindMissingCredential, Message: envName + " not found in environment"}
}

func Transport(msg string, err error) *Error {
	return &Error{Kind: KindTransport, Message: msg, Err: err}
}

func Upstream(name string, status int, body string) *Error {
	return &Error{
		Kind:           KindUpstream,
		Message:        fmt.Sprintf("%s API error (status %d)", name, status),
		UpstreamStatus: status,
		UpstreamBody:   body,
	}
}

func Unexpected(msg string, err error) *Error {
	return &Error{Kind: KindUnexpected, Message: msg, Err: err}
}

// From converts any error into an *Error, treating unknown errors as
// unexpected.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Unexpected("Unexpected error", err)
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
