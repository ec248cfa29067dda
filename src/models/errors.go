package models

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind is the category of a pipeline failure.
type ErrorKind string

const (
	KindValidation        ErrorKind = "validation_error"
	KindNoViableModel     ErrorKind = "no_viable_model"
	KindNoCredential      ErrorKind = "no_credential"
	KindUpstreamAuth      ErrorKind = "upstream_auth"
	KindUpstreamTransient ErrorKind = "upstream_transient"
	KindUpstreamFatal     ErrorKind = "upstream_fatal"
	KindInternal          ErrorKind = "internal_error"
	KindCanceled          ErrorKind = "request_canceled"
)

// StatusClientClosedRequest is the non-standard status for requests the
// client abandoned.
const StatusClientClosedRequest = 499

// Error is the structured error returned by every stage of the pipeline.
type Error struct {
	Kind       ErrorKind
	Message    string
	Provider   string
	StatusCode int // upstream status, 0 when not an HTTP failure
	Err        error
}

func (e *Error) Error() string {
	msg := string(e.Kind) + ": " + e.Message
	if e.Provider != "" {
		msg = fmt.Sprintf("%s (provider=%s", msg, e.Provider)
		if e.StatusCode > 0 {
			msg = fmt.Sprintf("%s, status=%d", msg, e.StatusCode)
		}
		msg += ")"
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatus maps the error kind onto the status returned to gateway clients.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNoViableModel:
		return http.StatusUnprocessableEntity
	case KindNoCredential:
		return http.StatusPreconditionFailed
	case KindUpstreamAuth:
		return http.StatusUnauthorized
	case KindUpstreamTransient:
		if errors.Is(e.Err, context.DeadlineExceeded) {
			return http.StatusGatewayTimeout
		}
		return http.StatusBadGateway
	case KindUpstreamFatal:
		return http.StatusBadGateway
	case KindCanceled:
		return StatusClientClosedRequest
	default:
		return http.StatusInternalServerError
	}
}

func NewValidationError(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func NewNoViableModelError(msg string) *Error {
	return &Error{Kind: KindNoViableModel, Message: msg}
}

func NewNoCredentialError(provider string) *Error {
	return &Error{Kind: KindNoCredential, Message: "no credential configured for provider", Provider: provider}
}

func NewInternalError(msg string, err error) *Error {
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}

// NewUpstreamError classifies an upstream HTTP status into a kind.
func NewUpstreamError(provider string, status int, err error) *Error {
	e := &Error{Provider: provider, StatusCode: status, Err: err}
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		e.Kind, e.Message = KindUpstreamAuth, "upstream rejected credential"
	case status == http.StatusTooManyRequests || status >= 500:
		e.Kind, e.Message = KindUpstreamTransient, "upstream temporarily unavailable"
	default:
		e.Kind, e.Message = KindUpstreamFatal, "upstream request failed"
	}
	return e
}

func NewTransientError(provider, msg string, err error) *Error {
	return &Error{Kind: KindUpstreamTransient, Message: msg, Provider: provider, Err: err}
}

func NewFatalError(provider, msg string, err error) *Error {
	return &Error{Kind: KindUpstreamFatal, Message: msg, Provider: provider, Err: err}
}

// AsError returns the first *Error in err's chain. A bare context error
// becomes a timeout (upstream_transient, 504) or a cancellation (499);
// anything else is an internal error.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &Error{Kind: KindUpstreamTransient, Message: "request deadline exceeded", Err: err}
	case errors.Is(err, context.Canceled):
		return &Error{Kind: KindCanceled, Message: "request canceled by client", Err: err}
	}
	return NewInternalError("unexpected error", err)
}

// KindOf returns AsError(err).Kind, or KindInternal for a nil error.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindInternal
	}
	return AsError(err).Kind
}

func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}
