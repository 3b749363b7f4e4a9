package provider

import (
	"errors"
	"fmt"
)

// Failure kinds. Every error returned by a provider matches exactly one of
// them with errors.Is.
var (
	ErrTransport  = errors.New("transport error")
	ErrHTTPStatus = errors.New("http status error")
	ErrParse      = errors.New("parse error")
	ErrSchema     = errors.New("schema error")
)

// FetchError describes a failed provider call.
type FetchError struct {
	Kind       error
	StatusCode int
	Msg        string
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *FetchError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

func transportError(err error) *FetchError {
	return &FetchError{Kind: ErrTransport, Msg: "API request failed", Err: err}
}

func statusError(code int) *FetchError {
	return &FetchError{
		Kind:       ErrHTTPStatus,
		StatusCode: code,
		Msg:        fmt.Sprintf("API returned non-200 status code: %d", code),
	}
}

func parseError(err error) *FetchError {
	return &FetchError{Kind: ErrParse, Msg: "Invalid JSON response from API", Err: err}
}

func schemaError(msg string) *FetchError {
	return &FetchError{Kind: ErrSchema, Msg: msg}
}

// NoticeMessage renders err as the short text shown to administrators.
func NoticeMessage(err error) string {
	var fe *FetchError
	if !errors.As(err, &fe) {
		return "API request failed: " + err.Error()
	}
	switch {
	case errors.Is(fe.Kind, ErrTransport):
		if fe.Err != nil {
			return "API request failed: " + fe.Err.Error()
		}
		return "API request failed"
	case errors.Is(fe.Kind, ErrHTTPStatus):
		return fmt.Sprintf("API error: HTTP %d", fe.StatusCode)
	case errors.Is(fe.Kind, ErrParse):
		return "Invalid API response format"
	default:
		return fe.Msg
	}
}
