// Package errors provides standardized domain errors with codes for the transcript engine.
//
// Usage:
//
//	// In services - return typed errors
//	if ref == "" {
//	    return errors.MissingAudio("episode has no audio reference")
//	}
//
//	// In handlers - check with errors.Is
//	if errors.Is(err, errors.ErrTranscriptTimeout) {
//	    response.Error(w, http.StatusGatewayTimeout, err.Error(), logger)
//	    return
//	}
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
)

// Code represents a machine-readable error code.
type Code string

// Error codes used throughout the engine.
const (
	CodeNotFound   Code = "NOT_FOUND"
	CodeValidation Code = "VALIDATION"
	CodeInternal   Code = "INTERNAL"

	// Asset normalization failures.
	CodeMissingAudio Code = "MISSING_AUDIO"
	CodeAssetDecode  Code = "ASSET_DECODE"
	CodeAssetUpload  Code = "ASSET_UPLOAD"
	CodeURLTooLong   Code = "URL_TOO_LONG"

	// Generation failures.
	CodeGenerationSubmit  Code = "GENERATION_SUBMIT"
	CodePayloadTooLarge   Code = "PAYLOAD_TOO_LARGE"
	CodeTranscriptTimeout Code = "TRANSCRIPT_TIMEOUT"
	CodeConnectionDropped Code = "CONNECTION_DROPPED"
	CodeArchiveOutage     Code = "ARCHIVE_OUTAGE"
)

// HTTPStatus returns the appropriate HTTP status code for an error code.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeValidation, CodeMissingAudio, CodeAssetDecode, CodeURLTooLong:
		return http.StatusBadRequest
	case CodePayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case CodeTranscriptTimeout:
		return http.StatusGatewayTimeout
	case CodeConnectionDropped, CodeAssetUpload, CodeGenerationSubmit, CodeArchiveOutage:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Retryable reports whether a user-facing retry affordance makes sense for
// this code. Retrying a terminal input problem (missing audio, oversized URL,
// oversized payload) would reproduce the same failure.
func (c Code) Retryable() bool {
	switch c {
	case CodeMissingAudio, CodeURLTooLong, CodePayloadTooLarge, CodeValidation:
		return false
	default:
		return true
	}
}

// Error is a domain error with a code, message, and optional details.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error  // unexported, for wrapping
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target matches this error.
// Matches if target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// HTTPStatus returns the HTTP status code for this error.
func (e *Error) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// Retryable reports whether this error should carry a retry affordance.
func (e *Error) Retryable() bool {
	return e.Code.Retryable()
}

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		cause:   err,
	}
}

// WithDetails returns a new error with additional details.
func (e *Error) WithDetails(details any) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		cause:   e.cause,
	}
}

// Sentinel errors for use with errors.Is().
var (
	ErrNotFound          = &Error{Code: CodeNotFound, Message: "not found"}
	ErrValidation        = &Error{Code: CodeValidation, Message: "validation error"}
	ErrInternal          = &Error{Code: CodeInternal, Message: "internal error"}
	ErrMissingAudio      = &Error{Code: CodeMissingAudio, Message: "no audio reference"}
	ErrAssetDecode       = &Error{Code: CodeAssetDecode, Message: "audio asset decode failed"}
	ErrAssetUpload       = &Error{Code: CodeAssetUpload, Message: "audio asset upload failed"}
	ErrURLTooLong        = &Error{Code: CodeURLTooLong, Message: "resolved audio URL exceeds safe length"}
	ErrGenerationSubmit  = &Error{Code: CodeGenerationSubmit, Message: "transcript generation could not be started"}
	ErrPayloadTooLarge   = &Error{Code: CodePayloadTooLarge, Message: "audio payload too large for generation"}
	ErrTranscriptTimeout = &Error{Code: CodeTranscriptTimeout, Message: "transcript generation timed out"}
	ErrConnectionDropped = &Error{Code: CodeConnectionDropped, Message: "connection dropped during generation request"}
	ErrArchiveOutage     = &Error{Code: CodeArchiveOutage, Message: "archive tier unreachable"}
)

// Constructor functions for creating errors with custom messages.

// NotFound creates a not found error.
func NotFound(msg string) *Error {
	return &Error{Code: CodeNotFound, Message: msg}
}

// NotFoundf creates a not found error with formatted message.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// Validation creates a validation error.
func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

// ValidationWithDetails creates a validation error with details.
func ValidationWithDetails(msg string, details any) *Error {
	return &Error{Code: CodeValidation, Message: msg, Details: details}
}

// Internal creates an internal error.
func Internal(msg string) *Error {
	return &Error{Code: CodeInternal, Message: msg}
}

// Internalf creates an internal error with formatted message.
func Internalf(format string, args ...any) *Error {
	return &Error{Code: CodeInternal, Message: fmt.Sprintf(format, args...)}
}

// MissingAudio creates a missing audio error.
func MissingAudio(msg string) *Error {
	return &Error{Code: CodeMissingAudio, Message: msg}
}

// AssetDecode creates an asset decode error.
func AssetDecode(msg string) *Error {
	return &Error{Code: CodeAssetDecode, Message: msg}
}

// AssetUpload creates an asset upload error.
func AssetUpload(msg string) *Error {
	return &Error{Code: CodeAssetUpload, Message: msg}
}

// URLTooLongf creates a URL too long error with formatted message.
func URLTooLongf(format string, args ...any) *Error {
	return &Error{Code: CodeURLTooLong, Message: fmt.Sprintf(format, args...)}
}

// GenerationSubmit creates a generation submit error carrying the upstream message.
func GenerationSubmit(msg string) *Error {
	return &Error{Code: CodeGenerationSubmit, Message: msg}
}

// PayloadTooLarge creates a payload too large error.
func PayloadTooLarge(msg string) *Error {
	return &Error{Code: CodePayloadTooLarge, Message: msg}
}

// TranscriptTimeout creates a transcript timeout error.
func TranscriptTimeout(msg string) *Error {
	return &Error{Code: CodeTranscriptTimeout, Message: msg}
}

// ConnectionDropped creates a connection dropped error.
func ConnectionDropped(msg string) *Error {
	return &Error{Code: CodeConnectionDropped, Message: msg}
}

// ArchiveOutage creates an archive outage error.
func ArchiveOutage(msg string) *Error {
	return &Error{Code: CodeArchiveOutage, Message: msg}
}

// Wrap wraps an error with a code and message.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, cause: err}
}

// Wrapf wraps an error with a code and formatted message.
func Wrapf(err error, code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), cause: err}
}
