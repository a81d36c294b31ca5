package app

import (
	"errors"
	"fmt"
)

var (
	// ErrRateLimited signals the caller exceeded its fixed-window quota.
	ErrRateLimited = errors.New("rate limit exceeded")
	// ErrExtractionTimeout signals the model call exceeded its deadline.
	ErrExtractionTimeout = errors.New("extraction request timed out")
	// ErrPDFTimeout signals PDF rendering exceeded its deadline.
	ErrPDFTimeout = errors.New("pdf generation timed out")
	// ErrSendTimeout signals the email provider call exceeded its deadline.
	ErrSendTimeout = errors.New("email send timed out")
	// ErrPayloadTooLarge signals an attachment over the size ceiling.
	ErrPayloadTooLarge = errors.New("payload too large")
)

// ValidationError reports user-correctable bad input. Field is set when
// the error maps to a specific form field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// UpstreamError wraps an opaque third-party failure. The user sees a
// generic message; the wrapped cause is logged.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s upstream error: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
