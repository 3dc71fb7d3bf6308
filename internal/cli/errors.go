package cli

import (
	"github.com/aidanlsb/moodb/internal/model"
	"github.com/aidanlsb/moodb/internal/ui"
)

// Error codes for structured error responses.
// These codes are stable and can be relied upon by scripts.
const (
	// Store errors
	ErrStoreNotFound     = "STORE_NOT_FOUND"
	ErrStoreNotSpecified = "STORE_NOT_SPECIFIED"
	ErrConfigInvalid     = "CONFIG_INVALID"

	// Object errors
	ErrObjectNotFound   = "OBJECT_NOT_FOUND"
	ErrObjectExists     = "OBJECT_EXISTS"
	ErrPropertyNotFound = "PROPERTY_NOT_FOUND"

	// File errors
	ErrFileReadError  = "FILE_READ_ERROR"
	ErrFileWriteError = "FILE_WRITE_ERROR"
	ErrParseError     = "PARSE_ERROR"

	// Validation errors
	ErrValidationFailed = "VALIDATION_FAILED"
	ErrInvalidCallable  = "INVALID_CALLABLE"

	// Input errors
	ErrInvalidInput = "INVALID_INPUT"

	// General errors
	ErrInternal = "INTERNAL_ERROR"
)

// Warning codes for non-fatal issues.
const (
	WarnLoadFailed = "LOAD_FAILED"
)

// codeFor maps an object store error to its CLI error code.
func codeFor(err error) string {
	switch model.CodeOf(err) {
	case model.ErrCodeNotFound:
		return ErrObjectNotFound
	case model.ErrCodeConflict:
		return ErrObjectExists
	case model.ErrCodeValidation:
		return ErrValidationFailed
	case model.ErrCodeParse:
		return ErrParseError
	case model.ErrCodeIO:
		return ErrFileWriteError
	case model.ErrCodeInvalidCallable:
		return ErrInvalidCallable
	}
	return ErrInternal
}

func warningLine(w Warning) string {
	return ui.Warningf("%s", w.Message)
}
