package llm

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies a failed generation. The set is closed: anything that is not
// one of the known failure boundaries is KindUnexpected.
type Kind string

const (
	KindInvalidRequest    Kind = "invalid_request"
	KindUpstreamTransport Kind = "upstream_transport"
	KindUpstreamContract  Kind = "upstream_contract"
	KindDecode            Kind = "decode"
	KindUnexpected        Kind = "unexpected"
)

// ClientError reports whether the caller, not the relay or upstream, is at fault.
func (k Kind) ClientError() bool {
	return k == KindInvalidRequest
}

// Error is a generation failure with a human-readable message.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func NewError(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		cause:   cause,
	}
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// KindOf returns the kind of err, KindUnexpected when err is not an *Error.
func KindOf(err error) Kind {
	var genErr *Error
	if errors.As(err, &genErr) {
		return genErr.Kind
	}
	return KindUnexpected
}

// AsError converts any error into an *Error, keeping known kinds as they are.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var genErr *Error
	if errors.As(err, &genErr) {
		return genErr
	}
	return NewError(KindUnexpected, err, "unexpected error: %s", err.Error())
}
