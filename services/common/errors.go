package common

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies a failure so the handler boundary can map it to an outward status.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidInput
	KindRateLimited
	KindUpstreamUnavailable
	KindUpstreamFormat
	KindMediaFetchFailed
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindRateLimited:
		return "rate_limited"
	case KindUpstreamUnavailable:
		return "upstream_unavailable"
	case KindUpstreamFormat:
		return "upstream_format"
	case KindMediaFetchFailed:
		return "media_fetch_failed"
	default:
		return "unknown"
	}
}

// Error carries a public Detail for the caller and an internal Cause that is only logged.
type Error struct {
	Kind   Kind
	Detail string
	Cause  error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return e.Detail
	}
	return fmt.Sprintf("%s: %v", e.Detail, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func NewError(kind Kind, detail string, cause error) *Error {
	return &Error{
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

func InvalidInput(detail string) *Error {
	return NewError(KindInvalidInput, detail, nil)
}

// KindOf returns the kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// DetailOf returns the public detail of err, falling back to a generic message
// so internal error text never leaks.
func DetailOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Detail != "" {
		return e.Detail
	}
	return "Unexpected error"
}
