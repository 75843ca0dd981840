// Package errors provides custom error types for the storefront client.
// The network errors form a closed taxonomy so callers can decide how to
// degrade without depending on transport-library details.
package errors

import (
	"errors"
	"fmt"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Is reports whether any error in err's tree matches target.
var Is = errors.Is

// As finds the first error in err's tree that matches target.
var As = errors.As

// Sentinel errors for the network taxonomy. Every *NetworkError matches
// exactly one of these through errors.Is.
var (
	// ErrInvalidRequest indicates the request could not be built client-side
	ErrInvalidRequest = errors.New("invalid request")

	// ErrInvalidServer indicates a non-2xx or non-HTTP response
	ErrInvalidServer = errors.New("invalid server response")

	// ErrDecoding indicates the payload did not match the expected shape
	ErrDecoding = errors.New("decoding error")

	// ErrUnknown indicates an unclassified transport failure
	ErrUnknown = errors.New("unknown error")

	// ErrPoorOrNoConnection indicates device-level connectivity loss
	ErrPoorOrNoConnection = errors.New("poor or no connection")
)

// Other sentinel errors.
var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")
)

// Kind classifies a NetworkError.
type Kind int

// Network error kinds.
const (
	KindUnknown Kind = iota
	KindInvalidRequest
	KindInvalidServer
	KindDecoding
	KindPoorOrNoConnection
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindInvalidRequest:
		return "invalid_request"
	case KindInvalidServer:
		return "invalid_server"
	case KindDecoding:
		return "decoding"
	case KindPoorOrNoConnection:
		return "poor_or_no_connection"
	default:
		return "unknown"
	}
}

// NetworkError is the single error type produced by the remote catalog client
// and propagated unchanged through the repository.
type NetworkError struct {
	Kind       Kind
	StatusCode int // set for KindInvalidServer, -1 for non-HTTP responses
	Endpoint   string
	Err        error // underlying cause, if any
}

// Error implements the error interface
func (e *NetworkError) Error() string {
	var msg string
	switch e.Kind {
	case KindInvalidRequest:
		msg = "invalid request"
	case KindInvalidServer:
		msg = fmt.Sprintf("invalid server response (status %d)", e.StatusCode)
	case KindDecoding:
		msg = "failed to decode response"
	case KindPoorOrNoConnection:
		msg = "poor or no connection"
	default:
		msg = "unknown network error"
	}
	if e.Endpoint != "" {
		msg += " from " + e.Endpoint
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap implements errors.Unwrap
func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *NetworkError) Is(target error) bool {
	switch e.Kind {
	case KindInvalidRequest:
		return target == ErrInvalidRequest
	case KindInvalidServer:
		return target == ErrInvalidServer
	case KindDecoding:
		return target == ErrDecoding
	case KindPoorOrNoConnection:
		return target == ErrPoorOrNoConnection
	default:
		return target == ErrUnknown
	}
}

// Retryable reports whether repeating the same request could succeed.
// Malformed requests and payload shape mismatches will fail the same way again.
func (e *NetworkError) Retryable() bool {
	return e.Kind != KindDecoding && e.Kind != KindInvalidRequest
}

// UserMessage returns the message shown next to degraded content.
func (e *NetworkError) UserMessage() string {
	switch e.Kind {
	case KindInvalidRequest:
		return "Invalid request. Please check your parameters."
	case KindInvalidServer:
		return fmt.Sprintf("Server returned an invalid response with status code: %d.", e.StatusCode)
	case KindDecoding:
		return "Failed to read the catalog response."
	case KindPoorOrNoConnection:
		return "Poor or no connection. Showing saved products."
	default:
		return "Something wrong happened, Retry again."
	}
}

// NewInvalidRequest creates a KindInvalidRequest error
func NewInvalidRequest(err error) *NetworkError {
	return &NetworkError{Kind: KindInvalidRequest, Err: err}
}

// NewInvalidServer creates a KindInvalidServer error for the given status code
func NewInvalidServer(endpoint string, statusCode int) *NetworkError {
	return &NetworkError{Kind: KindInvalidServer, Endpoint: endpoint, StatusCode: statusCode}
}

// NewDecodingError creates a KindDecoding error wrapping the parse failure
func NewDecodingError(endpoint string, err error) *NetworkError {
	return &NetworkError{Kind: KindDecoding, Endpoint: endpoint, Err: err}
}

// NewUnknown creates a KindUnknown error wrapping the transport failure
func NewUnknown(endpoint string, err error) *NetworkError {
	return &NetworkError{Kind: KindUnknown, Endpoint: endpoint, Err: err}
}

// NewPoorOrNoConnection creates a KindPoorOrNoConnection error
func NewPoorOrNoConnection() *NetworkError {
	return &NetworkError{Kind: KindPoorOrNoConnection}
}

// UserMessage returns a user-facing message for any error. Errors outside
// the network taxonomy get the generic retry message.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return netErr.UserMessage()
	}
	return (&NetworkError{Kind: KindUnknown}).UserMessage()
}

// IsRetryable checks if an error may succeed when repeated
func IsRetryable(err error) bool {
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return netErr.Retryable()
	}
	return false
}

// NotFoundError represents an error when a resource is not found
type NotFoundError struct {
	Resource string
	ID       string
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Resource, e.ID)
}

// Is implements errors.Is support
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ValidationError represents a validation failure
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// ConfigError represents a configuration error
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{
		Component: component,
		Message:   message,
		Err:       err,
	}
}

// ParseError represents an error when parsing data formats
type ParseError struct {
	Format  string // "json", "yaml"
	File    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("parse error in %s file %s: %s", e.Format, e.File, e.Message)
	}
	return fmt.Sprintf("%s parse error: %s", e.Format, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ParseError) Unwrap() error {
	return e.Err
}

// IOError represents an error during I/O operations
type IOError struct {
	Operation string // "read", "write", "create", "delete", "open", "close"
	Path      string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("IO error during %s of %s: %s", e.Operation, e.Path, e.Message)
	}
	return fmt.Sprintf("IO error during %s: %s", e.Operation, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *IOError) Unwrap() error {
	return e.Err
}

// ResourceError represents an error during resource operations
type ResourceError struct {
	Operation string // "create", "replace", "merge", "fetch"
	Resource  string // "store", "settings", "product"
	ID        string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ResourceError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("failed to %s %s %s: %s", e.Operation, e.Resource, e.ID, e.Message)
	}
	return fmt.Sprintf("failed to %s %s: %s", e.Operation, e.Resource, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ResourceError) Unwrap() error {
	return e.Err
}

// WrapIO wraps an error as an IOError
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return &IOError{Operation: operation, Path: path, Message: err.Error(), Err: err}
}

// WrapResource wraps an error as a ResourceError
func WrapResource(operation, resource, id string, err error) error {
	if err == nil {
		return nil
	}
	return &ResourceError{Operation: operation, Resource: resource, ID: id, Message: err.Error(), Err: err}
}

// WrapParse wraps an error as a ParseError
func WrapParse(format, file string, err error) error {
	if err == nil {
		return nil
	}
	return &ParseError{Format: format, File: file, Message: err.Error(), Err: err}
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}
