// Package errors provides the typed errors returned by docbridge transforms.
//
// Every typed error unwraps to a sentinel so callers can branch with
// errors.Is without knowing the concrete type. CallbackError is the one
// exception: it unwraps to the callback's own error so loader and saver
// failures reach the caller unchanged.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput indicates malformed input or a validation failure
	ErrInvalidInput = errors.New("invalid input")
	// ErrGenerate indicates a generator could not produce output
	ErrGenerate = errors.New("generate failed")
	// ErrUnsupported indicates an unsupported operation or capability
	ErrUnsupported = errors.New("unsupported")
	// ErrUnsupportedFormat indicates an unknown format identifier
	ErrUnsupportedFormat = errors.New("unsupported format")
)

// NotFoundError represents a resource not found error with context
type NotFoundError struct {
	Resource string // Type of resource (e.g., "image", "format")
	ID       string // Identifier of the resource
	Err      error  // Underlying error, if any
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e *NotFoundError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrNotFound
}

// ValidationError reports a document invariant violation.
type ValidationError struct {
	Field   string // Path of the offending node, e.g. "body[2].level"
	Message string // Human-readable error message
	Err     error  // Underlying error, if any
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// IOError represents an I/O operation error with context
type IOError struct {
	Operation string // Operation being performed (e.g., "read", "write", "open")
	Path      string // File/resource path involved
	Err       error  // Underlying error
}

func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to %s %s: %v", e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("failed to %s: %v", e.Operation, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// ParseError reports input that is not well-formed for the claimed format.
type ParseError struct {
	Format  string // Format being parsed (e.g., "markdown", "csv")
	Line    int    // 1-based line of the offending input, 0 when unknown
	Message string // Error details
	Err     error  // Underlying error, if any
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("failed to parse %s at line %d: %s", e.Format, e.Line, e.Message)
	}
	return fmt.Sprintf("failed to parse %s: %s", e.Format, e.Message)
}

func (e *ParseError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// GenerateError reports a generator or delegated codec failure.
type GenerateError struct {
	Format  string
	Message string
	Err     error
}

func (e *GenerateError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to generate %s: %s: %v", e.Format, e.Message, e.Err)
	}
	return fmt.Sprintf("failed to generate %s: %s", e.Format, e.Message)
}

func (e *GenerateError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrGenerate
}

// UnsupportedError represents an unsupported operation or capability
type UnsupportedError struct {
	Feature string // Feature or operation that is unsupported
	Reason  string // Why it's not supported
	Err     error  // Underlying error, if any
}

func (e *UnsupportedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("unsupported %s: %s", e.Feature, e.Reason)
	}
	return fmt.Sprintf("unsupported %s", e.Feature)
}

func (e *UnsupportedError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrUnsupported
}

// CallbackError carries a loader or saver failure out of a transform.
type CallbackError struct {
	Op     string // "load" or "save"
	Target string // URL or suggested file name
	Err    error
}

func (e *CallbackError) Error() string {
	return fmt.Sprintf("image %s %s: %v", e.Op, e.Target, e.Err)
}

func (e *CallbackError) Unwrap() error {
	return e.Err
}

// UnsupportedFormatError is returned for an unknown format identifier.
type UnsupportedFormatError struct {
	Name string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported format: %q", e.Name)
}

func (e *UnsupportedFormatError) Unwrap() error {
	return ErrUnsupportedFormat
}

// Helper functions for creating common errors

// NewNotFound creates a NotFoundError
func NewNotFound(resource, id string) *NotFoundError {
	return &NotFoundError{
		Resource: resource,
		ID:       id,
	}
}

// NewValidation creates a ValidationError
func NewValidation(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// NewIO creates an IOError
func NewIO(operation, path string, err error) *IOError {
	return &IOError{
		Operation: operation,
		Path:      path,
		Err:       err,
	}
}

// NewParse creates a ParseError for the given 1-based line.
func NewParse(format string, line int, message string) *ParseError {
	return &ParseError{
		Format:  format,
		Line:    line,
		Message: message,
	}
}

// WrapParse creates a ParseError that preserves a codec cause.
func WrapParse(format string, line int, err error) *ParseError {
	return &ParseError{
		Format:  format,
		Line:    line,
		Message: err.Error(),
		Err:     err,
	}
}

// NewGenerate creates a GenerateError
func NewGenerate(format, message string, err error) *GenerateError {
	return &GenerateError{
		Format:  format,
		Message: message,
		Err:     err,
	}
}

// NewUnsupported creates an UnsupportedError
func NewUnsupported(feature, reason string) *UnsupportedError {
	return &UnsupportedError{
		Feature: feature,
		Reason:  reason,
	}
}

// NewCallback creates a CallbackError
func NewCallback(op, target string, err error) *CallbackError {
	return &CallbackError{
		Op:     op,
		Target: target,
		Err:    err,
	}
}

// Wrap adds context to an error. If err is nil, returns nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf adds formatted context to an error. If err is nil, returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// Is wraps errors.Is for convenience
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
