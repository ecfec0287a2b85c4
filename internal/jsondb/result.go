package jsondb

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// Op identifies the operation that produced a Result.
type Op string

// Operations reported in Result.Op.
const (
	OpCreate Op = "create"
	OpInsert Op = "insert"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Result reports the outcome of a mutation.
type Result struct {
	Op    Op
	Table string
	// Count is the number of columns added (create) or rows affected.
	Count int
	// Rejected lists the items skipped by the operation, in encounter order.
	Rejected []error
}

// String returns the status line of the mutation.
func (r Result) String() string {
	switch r.Op {
	case OpCreate:
		return fmt.Sprintf("Change applied: %d column added.", r.Count)
	case OpInsert:
		return fmt.Sprintf("Change applied: %d row inserted.", r.Count)
	case OpUpdate:
		return fmt.Sprintf("Change applied: %d row updated.", r.Count)
	case OpDelete:
		return fmt.Sprintf("Change applied: %d row deleted.", r.Count)
	default:
		return fmt.Sprintf("Change applied: %d.", r.Count)
	}
}

// Err returns the rejections as a single error, or nil if there are none.
func (r Result) Err() error {
	var merr *multierror.Error
	for _, err := range r.Rejected {
		merr = multierror.Append(merr, err)
	}
	return merr.ErrorOrNil()
}

func (r *Result) reject(err error) {
	r.Rejected = append(r.Rejected, err)
}
