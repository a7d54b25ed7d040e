package llm

import (
	"errors"
	"fmt"
)

// Kind is a semantic error category, independent of Go's type system, so
// callers can branch with errors.Is/As without string matching.
type Kind string

const (
	KindTransport       Kind = "transport"
	KindTrivialResponse Kind = "trivial_response"
	KindConfig          Kind = "config"
)

// ErrConfig is the sentinel wrapped by configuration failures (missing
// credentials, unknown provider).
var ErrConfig = errors.New("llm: configuration error")

// Error carries an optional UsageRecord alongside a transport or
// trivial-response failure, so the compaction engine can persist token
// accounting even when the call itself failed — replacing the source
// system's "LLM_ERROR:<json>::<message>" sentinel-string smuggling per the
// design note in spec.md §9.
type Error struct {
	Kind    Kind
	Usage   *UsageRecord
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("llm: %s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("llm: %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// NewTransportError builds a transport-kind Error, filling Usage.Status and
// Usage.ErrorMessage so the record is ready to persist as-is.
func NewTransportError(usage UsageRecord, message string, err error) *Error {
	usage.Status = "error"
	usage.ErrorMessage = message
	return &Error{Kind: KindTransport, Usage: &usage, Message: message, Err: err}
}

// NewTrivialResponseError builds a trivial-response Error: the Responses
// API returned usable text shorter than 20 trimmed characters.
func NewTrivialResponseError(usage UsageRecord) *Error {
	usage.Status = "error"
	usage.ErrorMessage = "trivial response"
	return &Error{Kind: KindTrivialResponse, Usage: &usage, Message: "trivial response"}
}

// IsTrivialResponse reports whether err is (or wraps) a trivial-response
// Error.
func IsTrivialResponse(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindTrivialResponse
}
