// Unified error handling for the stage controller
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents the category of error
type ErrorCode string

const (
	// Configuration errors
	ErrConfigLoad  ErrorCode = "CONFIG_LOAD"
	ErrConfigSave  ErrorCode = "CONFIG_SAVE"
	ErrConfigValue ErrorCode = "CONFIG_VALUE"

	// Command errors
	ErrCommandParse   ErrorCode = "COMMAND_PARSE"
	ErrCommandUnknown ErrorCode = "COMMAND_UNKNOWN"
	ErrCommandBusy    ErrorCode = "COMMAND_BUSY"

	// Upload errors
	ErrUploadClosed ErrorCode = "UPLOAD_CLOSED"
	ErrUploadState  ErrorCode = "UPLOAD_STATE"

	// Motion errors
	ErrHomingActive ErrorCode = "HOMING_ACTIVE"
	ErrHomingFailed ErrorCode = "HOMING_FAILED"

	// Storage errors
	ErrStorage ErrorCode = "STORAGE"

	// Runtime errors
	ErrRuntime ErrorCode = "RUNTIME"
)

// StageError is the unified error type for the controller
type StageError struct {
	// Code is the error category
	Code ErrorCode

	// Message is a human-readable error description
	Message string

	// Component is the originating component, when known
	Component string

	// Err wraps the underlying error
	Err error

	// Context provides additional context
	Context map[string]interface{}
}

// Error implements the error interface
func (e *StageError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("[%s:%s] %s", e.Code, e.Component, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *StageError) Unwrap() error {
	return e.Err
}

// SetComponent sets the originating component
func (e *StageError) SetComponent(component string) *StageError {
	e.Component = component
	return e
}

// SetContext adds additional context
func (e *StageError) SetContext(key string, value interface{}) *StageError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// New creates a new StageError
func New(code ErrorCode, message string) *StageError {
	return &StageError{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new StageError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *StageError {
	return &StageError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an existing error with a code and message
func Wrap(err error, code ErrorCode, message string) *StageError {
	return &StageError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Is reports whether err carries the given code
func Is(err error, code ErrorCode) bool {
	var se *StageError
	if errors.As(err, &se) {
		return se.Code == code
	}
	return false
}

// IsConfig reports whether err is a configuration error
func IsConfig(err error) bool {
	var se *StageError
	if errors.As(err, &se) {
		switch se.Code {
		case ErrConfigLoad, ErrConfigSave, ErrConfigValue:
			return true
		}
	}
	return false
}

// IsCommand reports whether err is a command error
func IsCommand(err error) bool {
	var se *StageError
	if errors.As(err, &se) {
		switch se.Code {
		case ErrCommandParse, ErrCommandUnknown, ErrCommandBusy:
			return true
		}
	}
	return false
}
