package transport

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

// User-facing messages for the failure cases that carry no server text
const (
	MsgResponseFallback = "An error occurred while processing your request"
	MsgNetwork          = "Network error. Please check your internet connection."
	MsgUnexpected       = "An unexpected error occurred"
)

// ErrCancelled is returned for calls dropped because a forced logout is in
// progress. Callers should ignore it rather than surface it to the user.
var ErrCancelled = errors.New("request cancelled: session logout in progress")

// ErrorKind classifies a normalized error by where the failure happened
type ErrorKind int

const (
	// KindResponse is a non-2xx response that did not end the session
	KindResponse ErrorKind = iota + 1
	// KindUnauthorized is a response that triggered a forced logout
	KindUnauthorized
	// KindNetwork means no response was received
	KindNetwork
	// KindRequest means the request could not be built or its result could not be read
	KindRequest
)

func (k ErrorKind) String() string {
	switch k {
	case KindResponse:
		return "response"
	case KindUnauthorized:
		return "unauthorized"
	case KindNetwork:
		return "network"
	case KindRequest:
		return "request"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is the single error shape every failed call produces. Only Message is
// meant for display; Kind and Status are informational.
type Error struct {
	Kind    ErrorKind
	Status  int
	Message string
	cause   error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// IsCancelled reports whether err is the forced-logout cancellation signal
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}

// AsError extracts a normalized error from err
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

func responseError(status int, body []byte, unauthorized bool) *Error {
	kind := KindResponse
	if unauthorized {
		kind = KindUnauthorized
	}
	return &Error{Kind: kind, Status: status, Message: MessageFromBody(body)}
}

func networkError(err error) *Error {
	return &Error{Kind: KindNetwork, Message: MsgNetwork, cause: err}
}

func requestError(err error) *Error {
	return &Error{Kind: KindRequest, Message: MsgUnexpected, cause: err}
}

// MessageFromBody picks the display message out of an error body: the
// top-level message, then data.message, then the generic fallback. Empty or
// non-string fields are skipped.
func MessageFromBody(body []byte) string {
	if !gjson.ValidBytes(body) {
		return MsgResponseFallback
	}
	for _, path := range []string{"message", "data.message"} {
		if m := gjson.GetBytes(body, path); m.Type == gjson.String && m.Str != "" {
			return m.Str
		}
	}
	return MsgResponseFallback
}
