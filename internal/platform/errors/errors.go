package errors

import stderrors "errors"

// Domain is the error domain for takehome errors.
const Domain = "github.com/louisbranch/takehome"

// Error is the domain error type with structured metadata.
type Error struct {
	Code     Code              // Machine-readable error code
	Message  string            // Internal message (for logs/telemetry)
	Metadata map[string]string // Additional context for diagnostics
	Cause    error             // Wrapped underlying error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates a simple domain error with a code and message.
func New(code Code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// WithMetadata creates a domain error with metadata for diagnostics.
func WithMetadata(code Code, message string, metadata map[string]string) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Metadata: metadata,
	}
}

// Wrap creates a domain error that wraps an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WrapWithMetadata creates a domain error with both metadata and a cause.
func WrapWithMetadata(code Code, message string, metadata map[string]string, cause error) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Metadata: metadata,
		Cause:    cause,
	}
}

// CodeOf extracts the domain code from err, or CodeUnknown when err carries
// no domain error in its chain.
func CodeOf(err error) Code {
	var domainErr *Error
	if stderrors.As(err, &domainErr) {
		return domainErr.Code
	}
	return CodeUnknown
}
