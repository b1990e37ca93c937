// Package errors provides unified error handling across the stencil system.
//
// It standardizes error representation and categorization for every
// interface (interactive shell, headless CLI) and every subsystem
// (session state, save files, templates, rendering). Errors from the
// state and save-file layers are local to the operation that triggered
// them: they are reported to the caller and never crash the process.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorCode represents standardized error codes
type ErrorCode string

const (
	// Session state errors
	ErrCodeStateLoadFailed ErrorCode = "STATE_LOAD_FAILED"
	ErrCodeStateSaveFailed ErrorCode = "STATE_SAVE_FAILED"

	// Save file errors
	ErrCodeFileNotFound  ErrorCode = "FILE_NOT_FOUND"
	ErrCodeInvalidFormat ErrorCode = "INVALID_FORMAT"
	ErrCodeWriteFailed   ErrorCode = "WRITE_FAILED"

	// Template errors
	ErrCodeTemplateNotFound ErrorCode = "TEMPLATE_NOT_FOUND"
	ErrCodeTemplateFormat   ErrorCode = "TEMPLATE_FORMAT"
	ErrCodeVariableDef      ErrorCode = "VARIABLE_DEFINITION"

	// Validation errors
	ErrCodeValidation   ErrorCode = "VALIDATION_ERROR"
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"

	// Command errors
	ErrCodeCommandNotFound ErrorCode = "COMMAND_NOT_FOUND"
	ErrCodeCommandFailed   ErrorCode = "COMMAND_FAILED"

	// Catch-all
	ErrCodeInternalError ErrorCode = "INTERNAL_ERROR"
)

// ErrorSeverity represents the severity level of an error
type ErrorSeverity string

const (
	SeverityInfo     ErrorSeverity = "info"
	SeverityWarning  ErrorSeverity = "warning"
	SeverityError    ErrorSeverity = "error"
	SeverityCritical ErrorSeverity = "critical"
)

// ErrorCategory represents the category of an error
type ErrorCategory string

const (
	CategoryState      ErrorCategory = "state"
	CategorySaveFile   ErrorCategory = "savefile"
	CategoryTemplate   ErrorCategory = "template"
	CategoryValidation ErrorCategory = "validation"
	CategoryCommand    ErrorCategory = "command"
	CategorySystem     ErrorCategory = "system"
)

// AppError represents a standardized application error
type AppError struct {
	Code      ErrorCode     `json:"code"`
	Message   string        `json:"message"`
	Details   string        `json:"details,omitempty"`
	Severity  ErrorSeverity `json:"severity"`
	Category  ErrorCategory `json:"category"`
	Cause     error         `json:"-"`
	Timestamp time.Time     `json:"timestamp"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetails adds details to the error
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// NewAppError creates a new application error
func NewAppError(code ErrorCode, message string) *AppError {
	category, severity := categorizeError(code)
	return &AppError{
		Code:      code,
		Message:   message,
		Severity:  severity,
		Category:  category,
		Timestamp: time.Now(),
	}
}

// Wrap wraps an existing error with application error context
func Wrap(err error, code ErrorCode, message string) *AppError {
	category, severity := categorizeError(code)
	return &AppError{
		Code:      code,
		Message:   message,
		Severity:  severity,
		Category:  category,
		Cause:     err,
		Timestamp: time.Now(),
	}
}

// categorizeError determines the category and severity based on error code
func categorizeError(code ErrorCode) (ErrorCategory, ErrorSeverity) {
	switch code {
	case ErrCodeStateLoadFailed:
		return CategoryState, SeverityWarning
	case ErrCodeStateSaveFailed:
		return CategoryState, SeverityError

	case ErrCodeFileNotFound:
		return CategorySaveFile, SeverityInfo
	case ErrCodeInvalidFormat, ErrCodeWriteFailed:
		return CategorySaveFile, SeverityError

	case ErrCodeTemplateNotFound:
		return CategoryTemplate, SeverityInfo
	case ErrCodeTemplateFormat, ErrCodeVariableDef:
		return CategoryTemplate, SeverityError

	case ErrCodeValidation, ErrCodeInvalidInput:
		return CategoryValidation, SeverityWarning

	case ErrCodeCommandNotFound:
		return CategoryCommand, SeverityInfo
	case ErrCodeCommandFailed:
		return CategoryCommand, SeverityError

	case ErrCodeInternalError:
		return CategorySystem, SeverityCritical

	default:
		return CategorySystem, SeverityError
	}
}

// IsCode reports whether err carries the given error code anywhere in its chain.
func IsCode(err error, code ErrorCode) bool {
	var appErr *AppError
	for errors.As(err, &appErr) {
		if appErr.Code == code {
			return true
		}
		err = appErr.Cause
		appErr = nil
	}
	return false
}

// GetAppError extracts an AppError from an error, or converts it to one.
// Foreign errors become internal errors keeping their original message.
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Wrap(err, ErrCodeInternalError, err.Error())
}

// Common error constructors for frequently used errors

// StateLoadError reports a corrupt or unreadable state document.
// Callers at startup swallow it and begin with an empty session.
func StateLoadError(err error) *AppError {
	return Wrap(err, ErrCodeStateLoadFailed, "Failed to load session state")
}

// StateSaveError reports a failed state write. The previously persisted
// document is untouched.
func StateSaveError(err error) *AppError {
	return Wrap(err, ErrCodeStateSaveFailed, "Failed to save session state")
}

// NotFoundError reports a missing save file or template.
func NotFoundError(resource string) *AppError {
	return NewAppError(ErrCodeFileNotFound, fmt.Sprintf("%s not found", resource))
}

// FormatError reports a malformed INI or JSON document.
func FormatError(path string, err error) *AppError {
	return Wrap(err, ErrCodeInvalidFormat, fmt.Sprintf("Invalid format in %s", path))
}

// WriteError reports a failed save-file write.
func WriteError(path string, err error) *AppError {
	return Wrap(err, ErrCodeWriteFailed, fmt.Sprintf("Failed to write %s", path))
}

func ValidationError(message string) *AppError {
	return NewAppError(ErrCodeValidation, message)
}

func CommandNotFoundError(command string) *AppError {
	return NewAppError(ErrCodeCommandNotFound, fmt.Sprintf("Command '%s' not found", command))
}

func InternalError(message string) *AppError {
	return NewAppError(ErrCodeInternalError, message)
}
