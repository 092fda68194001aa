package vault

import (
	"errors"
	"fmt"
)

// Code classifies an operation failure into a stable, machine-readable
// category. Callers branch on codes, never on message text.
type Code string

const (
	CodeAccessDenied     Code = "access_denied"
	CodeNotFound         Code = "not_found"
	CodeNotADirectory    Code = "not_a_directory"
	CodeNotAFile         Code = "not_a_file"
	CodeConflict         Code = "conflict"
	CodeUserDirNotFound  Code = "user_dir_not_found"
	CodeMissingField     Code = "missing_field"
	CodeTypeMismatch     Code = "type_mismatch"
	CodeMalformedPayload Code = "malformed_payload"
	CodeOperationFailed  Code = "operation_failed"
)

// Error is the discriminated failure type returned by every vault and
// sandbox operation. Message is safe for callers: it never contains a
// resolved absolute path. The wrapped cause carries OS-level detail for
// logs only.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// AccessDenied reports a confinement violation. The message is fixed so
// that nothing about the resolved path leaks to the caller.
func AccessDenied() *Error {
	return &Error{Code: CodeAccessDenied, Message: "access denied: path is outside your directory"}
}

// NotFound reports a missing source or target. what is a caller-relative
// description such as "directory" or "source item".
func NotFound(what string) *Error {
	return &Error{Code: CodeNotFound, Message: what + " not found"}
}

// NotADirectory reports that an entry exists but is not a directory.
func NotADirectory() *Error {
	return &Error{Code: CodeNotADirectory, Message: "path is not a directory"}
}

// NotAFile reports that an entry exists but is not a regular file.
func NotAFile() *Error {
	return &Error{Code: CodeNotAFile, Message: "path is not a file"}
}

// Conflict reports a naming collision.
func Conflict(message string) *Error {
	return &Error{Code: CodeConflict, Message: message}
}

// UserDirNotFound reports that the named storage root does not exist.
// Terminal for the execution gateway: the caller must not retry.
func UserDirNotFound(dirName string) *Error {
	return &Error{
		Code:    CodeUserDirNotFound,
		Message: fmt.Sprintf("user directory %q does not exist", dirName),
	}
}

// MissingField reports a required payload field that is absent.
func MissingField(field string) *Error {
	return &Error{Code: CodeMissingField, Message: "missing required field: " + field}
}

// TypeMismatch reports a payload field of the wrong type.
func TypeMismatch(field, want string) *Error {
	return &Error{Code: CodeTypeMismatch, Message: fmt.Sprintf("%s must be a %s", field, want)}
}

// MalformedPayload reports a request body that could not be decoded.
func MalformedPayload() *Error {
	return &Error{Code: CodeMalformedPayload, Message: "invalid JSON payload"}
}

// OperationFailed wraps an unexpected OS-level failure. message must be
// caller-safe; cause goes to the logs through Unwrap.
func OperationFailed(message string, cause error) *Error {
	return &Error{Code: CodeOperationFailed, Message: message, cause: cause}
}

// CodeOf extracts the failure code, treating anything that is not a
// *Error as an internal failure.
func CodeOf(err error) Code {
	var ve *Error
	if errors.As(err, &ve) {
		return ve.Code
	}
	return CodeOperationFailed
}

// MessageOf returns the caller-safe message for err.
func MessageOf(err error) string {
	var ve *Error
	if errors.As(err, &ve) {
		return ve.Message
	}
	return "internal error"
}
