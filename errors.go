package structcol

import (
	"errors"
	"fmt"
)

// Standard sentinel errors for common operations.
var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("structcol: row not found")

	// ErrAbsent is returned by typed reconstruction helpers when the whole
	// structured value is NULL and the caller asked for a concrete instance.
	ErrAbsent = errors.New("structcol: aggregate is absent")
)

// DescriptorError reports an invalid struct-type mapping. It is detected when
// the descriptor is built, before any statement executes.
type DescriptorError struct {
	DBType string // named database struct type
	msg    string
}

// Error returns the error string.
func (e *DescriptorError) Error() string {
	return fmt.Sprintf("structcol: descriptor %q: %s", e.DBType, e.msg)
}

// NewDescriptorError returns a new DescriptorError for the given struct type.
func NewDescriptorError(dbType, format string, args ...any) *DescriptorError {
	return &DescriptorError{DBType: dbType, msg: fmt.Sprintf(format, args...)}
}

// IsDescriptorError returns true if the error is a DescriptorError.
func IsDescriptorError(err error) bool {
	if err == nil {
		return false
	}
	var e *DescriptorError
	return errors.As(err, &e)
}

// ProjectionError reports a column tuple that does not match the descriptor:
// wrong arity, a value of an incompatible type, or NULL for a sub-column
// whose attribute cannot hold it. It is surfaced at read time and not retried.
type ProjectionError struct {
	DBType string
	Column string // offending sub-column, empty for arity mismatches
	msg    string
}

// Error returns the error string.
func (e *ProjectionError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("structcol: projecting %q column %q: %s", e.DBType, e.Column, e.msg)
	}
	return fmt.Sprintf("structcol: projecting %q: %s", e.DBType, e.msg)
}

// NewProjectionError returns a new ProjectionError.
func NewProjectionError(dbType, column, format string, args ...any) *ProjectionError {
	return &ProjectionError{DBType: dbType, Column: column, msg: fmt.Sprintf(format, args...)}
}

// IsProjectionError returns true if the error is a ProjectionError.
func IsProjectionError(err error) bool {
	if err == nil {
		return false
	}
	var e *ProjectionError
	return errors.As(err, &e)
}

// ConflictError reports contradictory assignments within a single update
// statement, e.g. setting the aggregate root to NULL while also assigning one
// of its members. The statement is rejected before any SQL executes; it is
// never partially applied.
type ConflictError struct {
	Root  string // root attribute or column of the structured value
	Paths []string
}

// Error returns the error string.
func (e *ConflictError) Error() string {
	return fmt.Sprintf("structcol: conflicting assignments to %q: %v", e.Root, e.Paths)
}

// NewConflictError returns a new ConflictError for the given root and the
// assignment paths that contradict each other.
func NewConflictError(root string, paths ...string) *ConflictError {
	return &ConflictError{Root: root, Paths: paths}
}

// IsConflict returns true if the error is a ConflictError.
func IsConflict(err error) bool {
	if err == nil {
		return false
	}
	var e *ConflictError
	return errors.As(err, &e)
}

// ConstraintError represents a database constraint violation surfaced by a
// mutation.
type ConstraintError struct {
	msg  string
	wrap error
}

// Error returns the error string.
func (e ConstraintError) Error() string {
	return fmt.Sprintf("structcol: constraint failed: %s", e.msg)
}

// Unwrap returns the underlying error.
func (e ConstraintError) Unwrap() error {
	return e.wrap
}

// NewConstraintError returns a new ConstraintError with the given message.
func NewConstraintError(msg string, wrap error) error {
	return ConstraintError{msg: msg, wrap: wrap}
}

// IsConstraintError returns true if the error is a ConstraintError.
func IsConstraintError(err error) bool {
	if err == nil {
		return false
	}
	var e ConstraintError
	return errors.As(err, &e)
}

// NotFoundError represents an error when a holder row is not found.
type NotFoundError struct {
	table string
	id    any
}

// Error returns the error string.
func (e *NotFoundError) Error() string {
	if e.id != nil {
		return fmt.Sprintf("structcol: %s not found (id=%v)", e.table, e.id)
	}
	return fmt.Sprintf("structcol: %s not found", e.table)
}

// Is reports whether the target error matches NotFoundError.
// This allows errors.Is(notFoundErr, ErrNotFound) to return true.
func (e *NotFoundError) Is(err error) bool {
	return err == ErrNotFound
}

// Table returns the table the lookup ran against.
func (e *NotFoundError) Table() string {
	return e.table
}

// ID returns the ID that was searched for, if available.
func (e *NotFoundError) ID() any {
	return e.id
}

// NewNotFoundError returns a new NotFoundError for the given table and ID.
func NewNotFoundError(table string, id any) *NotFoundError {
	return &NotFoundError{table: table, id: id}
}

// IsNotFound returns true if the error is a NotFoundError.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	var e *NotFoundError
	return errors.As(err, &e) || errors.Is(err, ErrNotFound)
}
