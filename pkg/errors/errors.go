// Package errors provides custom error types for the importer.
// The types map onto the failure taxonomy of an import run: malformed source
// documents, unresolved cross references, and store failures are all surfaced
// per record, while archive failures abort the whole run.
package errors

import (
	"errors"
	"fmt"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Common sentinel errors for the importer
var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates that a resource already exists
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrSourceFormat indicates a source document is missing a required element
	ErrSourceFormat = errors.New("source format")

	// ErrStore indicates that a target collection could not be loaded, created or written
	ErrStore = errors.New("store failure")

	// ErrCanceled indicates that an operation was canceled
	ErrCanceled = errors.New("operation canceled")
)

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

// SourceFormatError reports a required element that is missing or malformed
// in a source document. Mappers only return it when a dependent step cannot
// proceed; plain missing fields are treated as empty.
type SourceFormatError struct {
	Document string // archive entry name
	Element  string // element path, e.g. "ForcePower/AbilityRows"
	Message  string
}

// Error implements the error interface
func (e *SourceFormatError) Error() string {
	if e.Document != "" {
		return fmt.Sprintf("malformed %s in %s: %s", e.Element, e.Document, e.Message)
	}
	return fmt.Sprintf("malformed %s: %s", e.Element, e.Message)
}

// Is implements errors.Is support
func (e *SourceFormatError) Is(target error) bool {
	return target == ErrSourceFormat
}

// NewSourceFormatError creates a new SourceFormatError
func NewSourceFormatError(document, element, message string) *SourceFormatError {
	return &SourceFormatError{Document: document, Element: element, Message: message}
}

// LookupMissError reports a cross reference (talent by key, skill by key,
// ability by key) that did not resolve.
type LookupMissError struct {
	Kind string // "ability", "talent", "skill"
	Key  string
}

// Error implements the error interface
func (e *LookupMissError) Error() string {
	return fmt.Sprintf("%s %q could not be resolved", e.Kind, e.Key)
}

// Is implements errors.Is support
func (e *LookupMissError) Is(target error) bool {
	return target == ErrNotFound
}

// NewLookupMissError creates a new LookupMissError
func NewLookupMissError(kind, key string) *LookupMissError {
	return &LookupMissError{Kind: kind, Key: key}
}

// StoreError reports a failure of the external indexed store.
type StoreError struct {
	Operation  string // "index", "create", "update", "open"
	Collection string
	ID         string
	Err        error
}

// Error implements the error interface
func (e *StoreError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("store %s failed for %s/%s: %v", e.Operation, e.Collection, e.ID, e.Err)
	}
	return fmt.Sprintf("store %s failed for %s: %v", e.Operation, e.Collection, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *StoreError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *StoreError) Is(target error) bool {
	return target == ErrStore
}

// NewStoreError creates a new StoreError
func NewStoreError(operation, collection, id string, err error) *StoreError {
	return &StoreError{
		Operation:  operation,
		Collection: collection,
		ID:         id,
		Err:        err,
	}
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
	Format  string // "xml", "yaml", "json"
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

// NewParseError creates a new ParseError
func NewParseError(format, file string, message string, err error) *ParseError {
	return &ParseError{
		Format:  format,
		File:    file,
		Message: message,
		Err:     err,
	}
}

// IOError represents an error during I/O operations
type IOError struct {
	Operation string // "read", "write", "create", "open"
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

// NewIOError creates a new IOError
func NewIOError(operation, path string, err error) *IOError {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &IOError{
		Operation: operation,
		Path:      path,
		Message:   message,
		Err:       err,
	}
}

// ResourceError represents an error during resource operations
type ResourceError struct {
	Operation string // "create", "load", "export"
	Resource  string // "library", "collection", "config"
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

// NewResourceError creates a new ResourceError
func NewResourceError(operation, resource, id string, err error) *ResourceError {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ResourceError{
		Operation: operation,
		Resource:  resource,
		ID:        id,
		Message:   message,
		Err:       err,
	}
}

// Helper functions for error checking

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if an error is an already exists error
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsSourceFormat checks if an error is a malformed-source error
func IsSourceFormat(err error) bool {
	return errors.Is(err, ErrSourceFormat)
}

// IsStoreError checks if an error came from the indexed store
func IsStoreError(err error) bool {
	return errors.Is(err, ErrStore)
}

// IsCanceled checks if an error is a cancellation error
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled)
}

// Helper wrapping functions for common patterns

// WrapIO wraps an error as an IOError
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return NewIOError(operation, path, err)
}

// WrapResource wraps an error as a ResourceError
func WrapResource(operation, resource, id string, err error) error {
	if err == nil {
		return nil
	}
	return NewResourceError(operation, resource, id, err)
}

// WrapParse wraps an error as a ParseError
func WrapParse(format, file string, err error) error {
	if err == nil {
		return nil
	}
	return NewParseError(format, file, err.Error(), err)
}

// WrapStore wraps an error as a StoreError
func WrapStore(operation, collection, id string, err error) error {
	if err == nil {
		return nil
	}
	return NewStoreError(operation, collection, id, err)
}
