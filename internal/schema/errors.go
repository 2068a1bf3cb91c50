// file: internal/schema/errors.go
package schema

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrorCode defines validation error codes.
type ErrorCode int

// Defined validation error codes.
const (
	ErrSchemaCompileFailed ErrorCode = iota + 1000
	ErrValidationFailed
	ErrInvalidJSONFormat
)

// ValidationError represents a tool-argument validation error.
type ValidationError struct {
	// Code is the numeric error code.
	Code ErrorCode
	// Message is a human-readable error message.
	Message string
	// Cause is the underlying error, if any.
	Cause error
	// SchemaPath identifies the schema keyword that was violated.
	SchemaPath string
	// InstancePath identifies the part of the arguments that violated the schema.
	InstancePath string
	// Context contains additional error context.
	Context map[string]interface{}
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	base := fmt.Sprintf("[%d] %s", e.Code, e.Message)
	if e.SchemaPath != "" {
		base += fmt.Sprintf(" (schema path: %s)", e.SchemaPath)
	}
	if e.InstancePath != "" {
		base += fmt.Sprintf(" (instance path: %s)", e.InstancePath)
	}
	return base
}

// Unwrap returns the underlying error.
func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the validation error.
func (e *ValidationError) WithContext(key string, value interface{}) *ValidationError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewValidationError creates a new ValidationError.
func NewValidationError(code ErrorCode, message string, cause error) *ValidationError {
	var wrapped error
	if cause != nil {
		wrapped = errors.WithStack(cause)
	}
	return &ValidationError{
		Code:    code,
		Message: message,
		Cause:   wrapped,
	}
}

// convertValidationError converts a jsonschema.ValidationError to our ValidationError.
// The deepest leaf error is reported, since the root message is always the generic
// "doesn't validate with ..." summary.
func convertValidationError(valErr *jsonschema.ValidationError, args []byte) *ValidationError {
	basic := valErr.BasicOutput()

	leaf := valErr
	for len(leaf.Causes) > 0 {
		leaf = leaf.Causes[0]
	}

	customErr := NewValidationError(ErrValidationFailed, leaf.Message, valErr)
	customErr.SchemaPath = leaf.KeywordLocation
	customErr.InstancePath = leaf.InstanceLocation

	if len(basic.Errors) > 0 {
		causes := make([]string, 0, len(basic.Errors))
		for _, cause := range basic.Errors {
			if cause.Error == "" {
				continue
			}
			causes = append(causes, strings.TrimSpace(cause.InstanceLocation+" "+cause.Error))
		}
		customErr = customErr.WithContext("validationErrors", causes)
	}
	return customErr.WithContext("argsPreview", calculatePreview(args))
}
