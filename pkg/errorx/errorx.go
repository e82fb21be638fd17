package errorx

import (
	"errors"
	"fmt"
)

// CodeError is an error carrying a business code.
// It implements the error interface, wraps an underlying cause with %w
// semantics, and is recognised by errors.Is/errors.As.
type CodeError struct {
	Code  int    // business code
	Msg   string // message reported to the caller
	cause error  // wrapped underlying error
}

// Error implements the standard error interface. When a cause is present
// the format is "msg: cause", otherwise just the message.
func (e *CodeError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.cause)
	}
	return e.Msg
}

// Unwrap exposes the cause to errors.Is/errors.As.
func (e *CodeError) Unwrap() error {
	return e.cause
}

// New creates a CodeError without a cause.
func New(code int, msg string) *CodeError {
	return &CodeError{
		Code: code,
		Msg:  msg,
	}
}

// Newf creates a CodeError with a formatted message.
func Newf(code int, format string, args ...any) *CodeError {
	return &CodeError{
		Code: code,
		Msg:  fmt.Sprintf(format, args...),
	}
}

// Wrap attaches a business code and message to an underlying error.
// Usage: errorx.Wrap(err, CodeNotFound, "conversation not found")
func Wrap(err error, code int, msg string) *CodeError {
	return &CodeError{
		Code:  code,
		Msg:   msg,
		cause: err,
	}
}

// Wrapf is Wrap with a formatted message.
func Wrapf(err error, code int, format string, args ...any) *CodeError {
	return &CodeError{
		Code:  code,
		Msg:   fmt.Sprintf(format, args...),
		cause: err,
	}
}

// GetCode extracts the business code from an error chain,
// falling back to CodeServerBusy for plain errors.
func GetCode(err error) int {
	if err == nil {
		return CodeSuccess
	}
	var codeErr *CodeError
	if errors.As(err, &codeErr) {
		return codeErr.Code
	}
	return CodeServerBusy
}

// Business codes.
const (
	CodeSuccess       = 1000 // ok
	CodeInvalidParam  = 1001 // malformed input
	CodeNotAuthorized = 1002 // caller lacks the required relationship (participant/sender/admin)
	CodeNotFound      = 1003 // entity absent
	CodeConflict      = 1004 // uniqueness violation, e.g. duplicate direct conversation
	CodeServerBusy    = 1005 // generic internal failure
	CodeUnauthorized  = 1006 // missing/invalid access token
	CodeUnavailable   = 1007 // persistent store or transport unavailable
	CodeDBError       = 1010 // database failure (an Unavailable subclass)
	CodeCacheError    = 1011 // cache failure (an Unavailable subclass)
)

// Predefined instances, usable directly and with errors.Is.
var (
	ErrInvalidParam = New(CodeInvalidParam, "invalid request parameter")
	ErrServerBusy   = New(CodeServerBusy, "server busy")
)

// IsNotFound reports whether err is a not-found business error. The
// repository layer maps store-level not-found errors to CodeNotFound
// before they escape, so the code is the only signal checked here.
func IsNotFound(err error) bool {
	var codeErr *CodeError
	return errors.As(err, &codeErr) && codeErr.Code == CodeNotFound
}

// IsConflict reports whether err is a uniqueness-violation business error.
func IsConflict(err error) bool {
	var codeErr *CodeError
	return errors.As(err, &codeErr) && codeErr.Code == CodeConflict
}

// IsNotAuthorized reports whether err is an authorization business error.
func IsNotAuthorized(err error) bool {
	var codeErr *CodeError
	return errors.As(err, &codeErr) && codeErr.Code == CodeNotAuthorized
}
