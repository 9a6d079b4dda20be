// Package errors provides coded domain errors for the asset library build.
//
// Usage:
//
//	// In the scanner - return typed errors
//	if !found {
//	    return errors.MetadataMissingf("no metadata file in %s", dir)
//	}
//
//	// In the driver - check with errors.Is
//	if errors.Is(err, errors.ErrMetadataMissing) {
//	    logger.Warn("skipping item", "error", err)
//	}
//
//	// Or use the Code directly for switch statements
//	var domainErr *errors.Error
//	if errors.As(err, &domainErr) {
//	    switch domainErr.Code {
//	    case errors.CodeNotFound:
//	        ...
//	    }
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

// Error codes used throughout the application.
const (
	CodeNotFound          Code = "NOT_FOUND"
	CodeValidation        Code = "VALIDATION_ERROR"
	CodeInternal          Code = "INTERNAL_ERROR"
	CodeMetadataMissing   Code = "METADATA_MISSING"
	CodeMetadataInvalid   Code = "METADATA_INVALID"
	CodeTranslationFailed Code = "TRANSLATION_FAILED"
	CodeThumbnailFailed   Code = "THUMBNAIL_FAILED"
	CodeCacheCorrupt      Code = "CACHE_CORRUPT"
	CodeWriteFailed       Code = "WRITE_FAILED"
)

// HTTPStatus returns the appropriate HTTP status code for an error code.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeNotFound, CodeMetadataMissing:
		return http.StatusNotFound
	case CodeValidation:
		return http.StatusBadRequest
	case CodeMetadataInvalid:
		return http.StatusUnprocessableEntity
	case CodeTranslationFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
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

// WithDetails returns a new error with additional details.
func (e *Error) WithDetails(details any) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		cause:   e.cause,
	}
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

// Sentinel errors for use with errors.Is().
var (
	ErrNotFound          = &Error{Code: CodeNotFound, Message: "not found"}
	ErrValidation        = &Error{Code: CodeValidation, Message: "validation error"}
	ErrInternal          = &Error{Code: CodeInternal, Message: "internal error"}
	ErrMetadataMissing   = &Error{Code: CodeMetadataMissing, Message: "metadata missing"}
	ErrMetadataInvalid   = &Error{Code: CodeMetadataInvalid, Message: "metadata invalid"}
	ErrTranslationFailed = &Error{Code: CodeTranslationFailed, Message: "translation failed"}
	ErrThumbnailFailed   = &Error{Code: CodeThumbnailFailed, Message: "thumbnail failed"}
	ErrCacheCorrupt      = &Error{Code: CodeCacheCorrupt, Message: "cache corrupt"}
	ErrWriteFailed       = &Error{Code: CodeWriteFailed, Message: "write failed"}
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

// Validationf creates a validation error with formatted message.
func Validationf(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
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

// MetadataMissingf creates an error for an item folder without a metadata file.
func MetadataMissingf(format string, args ...any) *Error {
	return &Error{Code: CodeMetadataMissing, Message: fmt.Sprintf(format, args...)}
}

// MetadataInvalid wraps a metadata parse failure.
func MetadataInvalid(err error, path string) *Error {
	return &Error{Code: CodeMetadataInvalid, Message: "invalid metadata file", Details: path, cause: err}
}

// Wrap wraps an error with a code and message.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, cause: err}
}

// Wrapf wraps an error with a code and formatted message.
func Wrapf(err error, code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), cause: err}
}
