package jsondb

import (
	"errors"
	"fmt"
)

var (
	// ErrTableNotFound is returned when an operation names an absent table.
	ErrTableNotFound = errors.New("table not found")
	// ErrColumnNotFound is returned when an operation names an absent column.
	ErrColumnNotFound = errors.New("column not found")
	// ErrTypeMismatch is recorded when a value's type differs from its column's.
	ErrTypeMismatch = errors.New("type mismatch")
	// ErrInvalidType is recorded when a column is declared with an unknown tag.
	ErrInvalidType = errors.New("invalid data type")
	// ErrRowWidth is recorded when a row does not have one value per column.
	ErrRowWidth = errors.New("row width does not match schema")
	// ErrIdentityColumn is returned when a caller tries to set OBJECT_ID.
	ErrIdentityColumn = errors.New("identity column is not settable")
	// ErrDuplicateColumn is recorded when a column name is declared twice.
	ErrDuplicateColumn = errors.New("duplicate column")
	// ErrIntegerOverflow is returned for an integer literal outside of int64.
	ErrIntegerOverflow = errors.New("integer out of range")
	// ErrEmptyTableName is returned by CreateTable for an empty name.
	ErrEmptyTableName = errors.New("table name is required")
)

// TableNotFoundError names the missing table.
type TableNotFoundError struct {
	Table string
}

func (e *TableNotFoundError) Error() string {
	return fmt.Sprintf("%q named table not found", e.Table)
}

// Is reports whether target is ErrTableNotFound.
func (e *TableNotFoundError) Is(target error) bool { return target == ErrTableNotFound }

// ColumnNotFoundError names the missing column.
type ColumnNotFoundError struct {
	Table  string
	Column string
}

func (e *ColumnNotFoundError) Error() string {
	return fmt.Sprintf("%q named column not found in table %q", e.Column, e.Table)
}

// Is reports whether target is ErrColumnNotFound.
func (e *ColumnNotFoundError) Is(target error) bool { return target == ErrColumnNotFound }

// TypeMismatchError describes a value rejected by its column.
//
// Row is the index of the candidate row within the Insert call, or -1 for
// updates.
type TypeMismatchError struct {
	Table  string
	Column string
	Row    int
	Want   Type
	Value  Value
}

func (e *TypeMismatchError) Error() string {
	if e.Row < 0 {
		return fmt.Sprintf("%s value %q is not valid for %s column %q", e.Value.Type(), e.Value.String(), e.Want, e.Column)
	}
	return fmt.Sprintf("row %d: %s value %q is not valid for %s column %q", e.Row, e.Value.Type(), e.Value.String(), e.Want, e.Column)
}

// Is reports whether target is ErrTypeMismatch.
func (e *TypeMismatchError) Is(target error) bool { return target == ErrTypeMismatch }

// InvalidTypeError describes an unrecognized type tag.
type InvalidTypeError struct {
	Column string
	Type   string
}

func (e *InvalidTypeError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("%q is not a valid data type", e.Type)
	}
	return fmt.Sprintf("column %q: %q is not a valid data type", e.Column, e.Type)
}

// Is reports whether target is ErrInvalidType.
func (e *InvalidTypeError) Is(target error) bool { return target == ErrInvalidType }

// RowWidthError describes a candidate row with the wrong number of values.
type RowWidthError struct {
	Row  int
	Got  int
	Want int
}

func (e *RowWidthError) Error() string {
	return fmt.Sprintf("row %d: got %d values, want %d", e.Row, e.Got, e.Want)
}

// Is reports whether target is ErrRowWidth.
func (e *RowWidthError) Is(target error) bool { return target == ErrRowWidth }
