// Package apperr defines the error kinds the reporting pipeline surfaces to callers.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for mapping to a client response.
type Kind string

const (
	KindMalformedDocument      Kind = "malformed-document"
	KindUnsupportedReportType  Kind = "unsupported-report-type"
	KindUpstreamUnavailable    Kind = "upstream-unavailable"
	KindReportGenerationFailed Kind = "report-generation-failed"
	KindNotFound               Kind = "not-found"
	KindBadRequest             Kind = "bad-request"
	KindInternal               Kind = "internal"
)

// Sentinels usable with errors.Is.
var (
	ErrMalformedDocument      = &Error{Kind: KindMalformedDocument}
	ErrUnsupportedReportType  = &Error{Kind: KindUnsupportedReportType}
	ErrUpstreamUnavailable    = &Error{Kind: KindUpstreamUnavailable}
	ErrReportGenerationFailed = &Error{Kind: KindReportGenerationFailed}
	ErrNotFound               = &Error{Kind: KindNotFound}
	ErrBadRequest             = &Error{Kind: KindBadRequest}
)

// Error carries a kind, a client-facing message and the underlying cause.
// Status is the upstream HTTP status for KindUpstreamUnavailable, zero otherwise.
type Error struct {
	Kind    Kind
	Message string
	Status  int
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (upstream status %d)", msg, e.Status)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so sentinels work regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, err error, msg string) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// Upstream builds an UpstreamUnavailable error preserving the remote status code.
func Upstream(status int, err error, msg string) *Error {
	return &Error{Kind: KindUpstreamUnavailable, Message: msg, Status: status, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// HTTPStatus maps err to the status code returned to API clients.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindMalformedDocument, KindUnsupportedReportType, KindBadRequest,
		KindUpstreamUnavailable, KindReportGenerationFailed:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the client-facing message for err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		if e.Status != 0 {
			return fmt.Sprintf("%s (upstream status %d)", e.Message, e.Status)
		}
		return e.Message
	}
	return "internal error"
}
