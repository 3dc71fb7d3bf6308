package model

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes store errors. Codes are stable and appear in CLI
// JSON output.
type ErrorCode string

const (
	ErrCodeNotFound        ErrorCode = "NOT_FOUND"
	ErrCodeValidation      ErrorCode = "VALIDATION"
	ErrCodeConflict        ErrorCode = "CONFLICT"
	ErrCodeParse           ErrorCode = "PARSE"
	ErrCodeIO              ErrorCode = "IO"
	ErrCodeInvalidCallable ErrorCode = "INVALID_CALLABLE"
)

// Error is the error type returned by the object store and its codec.
type Error struct {
	Code     ErrorCode
	Message  string
	ObjectID string
	Path     string
	Err      error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := string(e.Code) + ": " + e.Message
	switch {
	case e.ObjectID != "" && e.Path != "":
		msg = fmt.Sprintf("%s (object=%s, path=%s)", msg, e.ObjectID, e.Path)
	case e.ObjectID != "":
		msg = fmt.Sprintf("%s (object=%s)", msg, e.ObjectID)
	case e.Path != "":
		msg = fmt.Sprintf("%s (path=%s)", msg, e.Path)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by code, so errors.Is(err, &Error{Code: ...})
// works regardless of the other fields.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// NotFound returns an error for an id that is not in the cache.
func NotFound(id string) *Error {
	return &Error{Code: ErrCodeNotFound, Message: "object not found", ObjectID: id}
}

// Validation returns an error for a record that fails presence checks.
func Validation(msg string) *Error {
	return &Error{Code: ErrCodeValidation, Message: msg}
}

// Conflict returns an error for a duplicate id.
func Conflict(id string) *Error {
	return &Error{Code: ErrCodeConflict, Message: "an object with that id already exists", ObjectID: id}
}

// Parse returns an error for a malformed descriptor or callable source.
func Parse(id, path string, err error) *Error {
	return &Error{Code: ErrCodeParse, Message: "malformed file", ObjectID: id, Path: path, Err: err}
}

// IO returns an error for a failed read, write or delete.
func IO(op, path string, err error) *Error {
	return &Error{Code: ErrCodeIO, Message: op + " failed", Path: path, Err: err}
}

// InvalidCallable returns an error for a value routed to the callable codec
// that is neither a Verb nor a Function.
func InvalidCallable(key string) *Error {
	return &Error{Code: ErrCodeInvalidCallable, Message: fmt.Sprintf("property %q is not a verb or function", key)}
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

func IsNotFound(err error) bool        { return CodeOf(err) == ErrCodeNotFound }
func IsValidation(err error) bool      { return CodeOf(err) == ErrCodeValidation }
func IsConflict(err error) bool        { return CodeOf(err) == ErrCodeConflict }
func IsParse(err error) bool           { return CodeOf(err) == ErrCodeParse }
func IsIO(err error) bool              { return CodeOf(err) == ErrCodeIO }
func IsInvalidCallable(err error) bool { return CodeOf(err) == ErrCodeInvalidCallable }
