// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package errors defines the error taxonomy for table merging. Each typed
// error matches one sentinel through errors.Is so callers can branch on the
// failure class without inspecting messages.
package errors

import (
	"errors"
	"fmt"
)

// Re-exported helpers so callers importing this package do not also need
// the standard library errors package.
var (
	New = errors.New
	Is  = errors.Is
	As  = errors.As
)

var (
	// ErrSourceRead indicates a source could not be opened or parsed.
	ErrSourceRead = errors.New("source read failed")

	// ErrSchema indicates a source declares an invalid schema.
	ErrSchema = errors.New("invalid schema")

	// ErrEmptySourceList indicates a merge was requested with no sources.
	ErrEmptySourceList = errors.New("no sources given")

	// ErrInvalidInput indicates invalid configuration or arguments.
	ErrInvalidInput = errors.New("invalid input")
)

// SourceReadError wraps a failure to open or parse one source.
type SourceReadError struct {
	Source string
	Err    error
}

// Error implements the error interface.
func (e *SourceReadError) Error() string {
	return fmt.Sprintf("reading source %s: %v", e.Source, e.Err)
}

// Unwrap implements errors.Unwrap.
func (e *SourceReadError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support.
func (e *SourceReadError) Is(target error) bool {
	return target == ErrSourceRead
}

// NewSourceReadError creates a new SourceReadError.
func NewSourceReadError(source string, err error) *SourceReadError {
	return &SourceReadError{Source: source, Err: err}
}

// SchemaError reports a column name declared more than once in a single
// source header.
type SchemaError struct {
	Source string
	Column string
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	return fmt.Sprintf("source %s: duplicate column %q in header", e.Source, e.Column)
}

// Is implements errors.Is support.
func (e *SchemaError) Is(target error) bool {
	return target == ErrSchema
}

// NewSchemaError creates a new SchemaError.
func NewSchemaError(source, column string) *SchemaError {
	return &SchemaError{Source: source, Column: column}
}

// EmptySourceListError is returned when a merge is given no sources.
type EmptySourceListError struct{}

// Error implements the error interface.
func (e *EmptySourceListError) Error() string {
	return "merge requires at least one source"
}

// Is implements errors.Is support.
func (e *EmptySourceListError) Is(target error) bool {
	return target == ErrEmptySourceList
}

// ValidationError represents a configuration or argument validation failure.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
