// Package errors provides the typed error taxonomy used across the
// watch-build-serve pipeline.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeWatch    ErrorType = "watch"
	ErrorTypeBuild    ErrorType = "build"
	ErrorTypeIO       ErrorType = "io"
	ErrorTypeConfig   ErrorType = "config"
	ErrorTypeInternal ErrorType = "internal"
)

// Error codes shared between packages.
const (
	CodeWatchRootMissing = "WATCH_ROOT_MISSING"
	CodeWatchSubscribe   = "WATCH_SUBSCRIBE"
	CodeBuildSpawn       = "BUILD_SPAWN"
	CodeBuildExit        = "BUILD_EXIT"
	CodeReadFile         = "READ_FILE"
	CodeReadDir          = "READ_DIR"
	CodeWriteFile        = "WRITE_FILE"
	CodeInvalidConfig    = "INVALID_CONFIG"
	CodeRender           = "RENDER"
	CodeServerListen     = "SERVER_LISTEN"
)

// PipelineError is a structured error type with context.
type PipelineError struct {
	Type    ErrorType
	Code    string
	Message string
	Path    string
	Cause   error
	Context map[string]interface{}
	// Fatal marks errors that must stop the process at startup.
	Fatal bool
}

// Error implements the error interface.
func (e *PipelineError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.Path != "" {
		parts = append(parts, e.Path)
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison.
func (e *PipelineError) Is(target error) bool {
	var t *PipelineError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithContext adds context information to the error.
func (e *PipelineError) WithContext(key string, value interface{}) *PipelineError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// WithPath attaches the filesystem path the error concerns.
func (e *PipelineError) WithPath(path string) *PipelineError {
	e.Path = path

	return e
}

// Error creation functions

// NewWatchError creates a watch subscription error. These are fatal at startup.
func NewWatchError(code, message string, cause error) *PipelineError {
	return &PipelineError{
		Type:    ErrorTypeWatch,
		Code:    code,
		Message: message,
		Cause:   cause,
		Fatal:   true,
	}
}

// NewBuildError creates a build error.
func NewBuildError(code, message string, cause error) *PipelineError {
	return &PipelineError{
		Type:    ErrorTypeBuild,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewIOError creates an I/O error.
func NewIOError(code, message string, cause error) *PipelineError {
	return &PipelineError{
		Type:    ErrorTypeIO,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string) *PipelineError {
	return &PipelineError{
		Type:    ErrorTypeConfig,
		Code:    code,
		Message: message,
		Fatal:   true,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(code, message string, cause error) *PipelineError {
	return &PipelineError{
		Type:    ErrorTypeInternal,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Wrap wraps an error with additional context, creating a PipelineError if
// the input is not already one.
func Wrap(err error, errType ErrorType, code, message string) *PipelineError {
	if err == nil {
		return nil
	}

	var pe *PipelineError
	if errors.As(err, &pe) {
		return &PipelineError{
			Type:    errType,
			Code:    code,
			Message: message,
			Path:    pe.Path,
			Cause:   pe,
			Context: pe.Context,
			Fatal:   pe.Fatal,
		}
	}

	return &PipelineError{
		Type:    errType,
		Code:    code,
		Message: message,
		Cause:   err,
		Fatal:   errType == ErrorTypeWatch || errType == ErrorTypeConfig,
	}
}

// IsFatal reports whether err must stop the process.
func IsFatal(err error) bool {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Fatal
	}

	return false
}

// IsWatchError checks if an error comes from establishing a watch subscription.
func IsWatchError(err error) bool {
	return HasErrorType(err, ErrorTypeWatch)
}

// HasErrorType reports whether any PipelineError in the chain has errType.
func HasErrorType(err error, errType ErrorType) bool {
	for err != nil {
		var pe *PipelineError
		if !errors.As(err, &pe) {
			return false
		}
		if pe.Type == errType {
			return true
		}
		err = pe.Cause
	}

	return false
}

// HasErrorCode reports whether any PipelineError in the chain has code.
func HasErrorCode(err error, code string) bool {
	for err != nil {
		var pe *PipelineError
		if !errors.As(err, &pe) {
			return false
		}
		if pe.Code == code {
			return true
		}
		err = pe.Cause
	}

	return false
}
