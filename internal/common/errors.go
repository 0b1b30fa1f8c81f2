package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Pipeline error taxonomy. Callers must be able to distinguish "zero
// transactions found" from "extraction failed", so model-call and parse
// failures are never folded into an empty result.
var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrDocumentLoad    = errors.New("document load failed")
	ErrExtractionParse = errors.New("extraction output invalid")
	ErrExternalCall    = errors.New("external call failed")
	ErrPolicyDisabled  = errors.New("external model calls disabled by policy")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
