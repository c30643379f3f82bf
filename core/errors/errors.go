// Package errors provides standardized error types and helpers for the psrdb codebase.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	// ErrNotOpen indicates an operation on a closed or never-opened database
	ErrNotOpen = errors.New("database is not open")
	// ErrInvalidArgument indicates invalid caller input (empty table, empty fields)
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrSchemaMismatch indicates a referenced column or table does not exist
	ErrSchemaMismatch = errors.New("schema mismatch")
	// ErrTypeMismatch indicates a value's kind is incompatible with a column's declared type
	ErrTypeMismatch = errors.New("type mismatch")
	// ErrRelationNotFound indicates a foreign-key label matched no row in the target table
	ErrRelationNotFound = errors.New("relation not found")
	// ErrGroupLengthMismatch indicates unequal lengths within one vector group or time series
	ErrGroupLengthMismatch = errors.New("group length mismatch")
	// ErrGroupNotFound indicates a vector column or time-series group has no backing table
	ErrGroupNotFound = errors.New("group not found")
	// ErrExecution indicates the underlying engine rejected a statement
	ErrExecution = errors.New("execution error")
	// ErrNotFound indicates a lookup matched no row
	ErrNotFound = errors.New("not found")
)

// TypeMismatchError reports a scalar value whose kind is incompatible with
// the target column's declared type
type TypeMismatchError struct {
	Column   string // Column whose declared type was violated
	Expected string // Declared type from the schema
	Actual   string // Kind of the offending value
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch for column %q: expected %s but got %s", e.Column, e.Expected, e.Actual)
}

func (e *TypeMismatchError) Unwrap() error { return ErrTypeMismatch }

// RelationNotFoundError reports a foreign-key label that resolved to no row
type RelationNotFoundError struct {
	Label      string // Label that failed to resolve
	Collection string // Table owning the foreign-key column
	Target     string // Table the label was looked up in
}

func (e *RelationNotFoundError) Error() string {
	return fmt.Sprintf("label %q not found in %q (referenced from %q)", e.Label, e.Target, e.Collection)
}

func (e *RelationNotFoundError) Unwrap() error { return ErrRelationNotFound }

// GroupLengthError reports unequal array lengths within one backing-table group
type GroupLengthError struct {
	Table string // Backing table whose group had mismatched lengths
}

func (e *GroupLengthError) Error() string {
	return fmt.Sprintf("vectors in group %q must have the same length", e.Table)
}

func (e *GroupLengthError) Unwrap() error { return ErrGroupLengthMismatch }

// SchemaError reports a column or table the live schema does not know about
type SchemaError struct {
	Table   string // Table involved, if known
	Column  string // Column involved, if known
	Message string // Human-readable detail
}

func (e *SchemaError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("schema error for column %q: %s", e.Column, e.Message)
	}
	if e.Table != "" {
		return fmt.Sprintf("schema error for table %q: %s", e.Table, e.Message)
	}
	return fmt.Sprintf("schema error: %s", e.Message)
}

func (e *SchemaError) Unwrap() error { return ErrSchemaMismatch }

// ExecutionError wraps a statement rejection from the underlying engine,
// carrying the engine's diagnostic verbatim
type ExecutionError struct {
	Operation string // "prepare", "bind", "step"
	Err       error  // Engine diagnostic
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("failed to %s statement: %v", e.Operation, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// Is lets ExecutionError match the ErrExecution sentinel while still
// unwrapping to the engine diagnostic.
func (e *ExecutionError) Is(target error) bool { return target == ErrExecution }

// NotFoundError represents a failed lookup with context
type NotFoundError struct {
	Resource string // Type of resource (e.g., "element", "time series group")
	ID       string // Identifier that was looked up
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// Helper functions for creating common errors

// NewTypeMismatch creates a TypeMismatchError
func NewTypeMismatch(column, expected, actual string) *TypeMismatchError {
	return &TypeMismatchError{Column: column, Expected: expected, Actual: actual}
}

// NewRelationNotFound creates a RelationNotFoundError
func NewRelationNotFound(label, collection, target string) *RelationNotFoundError {
	return &RelationNotFoundError{Label: label, Collection: collection, Target: target}
}

// NewGroupLength creates a GroupLengthError
func NewGroupLength(table string) *GroupLengthError {
	return &GroupLengthError{Table: table}
}

// NewSchema creates a SchemaError
func NewSchema(table, column, message string) *SchemaError {
	return &SchemaError{Table: table, Column: column, Message: message}
}

// NewExecution creates an ExecutionError
func NewExecution(operation string, err error) *ExecutionError {
	return &ExecutionError{Operation: operation, Err: err}
}

// NewNotFound creates a NotFoundError
func NewNotFound(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
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
