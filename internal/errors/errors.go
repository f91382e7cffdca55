package errors

import (
	"fmt"
)

// AppError represents a structured application error carrying a stable
// machine-readable code alongside a human-readable message. Messages never
// include stack traces or implementation detail.
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with additional context, preserving an existing code.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return &AppError{
			Code:    appErr.Code,
			Message: message,
			Cause:   appErr,
		}
	}
	return &AppError{
		Code:    CodeSystemError,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted additional context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WithCode attaches a code to an existing error.
func WithCode(code string, err error) error {
	if err == nil {
		return nil
	}
	return &AppError{
		Code:    code,
		Message: err.Error(),
		Cause:   err,
	}
}

// GetCode returns the error code if it's an AppError, otherwise "UNKNOWN".
func GetCode(err error) string {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}
	return "UNKNOWN"
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	_, ok := err.(*AppError)
	return ok
}

// Error taxonomy codes
const (
	CodeParseError       = "PARSE_ERROR"       // malformed or empty source
	CodeCancelled        = "CANCELLED"         // user-requested abort
	CodeInsufficientData = "INSUFFICIENT_DATA" // not enough valid rows for the statistic
	CodeSystemError      = "SYSTEM_ERROR"      // cache/persistence/worker failure
	CodeAnalysisError    = "ANALYSIS_ERROR"    // computation cannot produce a result
	CodeConfigInvalid    = "CONFIG_INVALID"
	CodeInvalidInput     = "INVALID_INPUT"
	CodeNotFound         = "NOT_FOUND"
)

// Common error constructors
func ParseError(message string) *AppError {
	return New(CodeParseError, message)
}

func Cancelled(message string) *AppError {
	return New(CodeCancelled, message)
}

func InsufficientData(message string) *AppError {
	return New(CodeInsufficientData, message)
}

func SystemError(message string, cause error) *AppError {
	return &AppError{Code: CodeSystemError, Message: message, Cause: cause}
}

func AnalysisError(message string) *AppError {
	return New(CodeAnalysisError, message)
}

func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message)
}

func NotFound(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource))
}
