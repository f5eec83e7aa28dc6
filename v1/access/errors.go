package access

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/multierr"
)

var (
	// ErrNoTable is returned when a table operation runs without a table name.
	ErrNoTable = errors.New("access: no table name configured")

	// ErrNoPrimaryKey is returned when an operation needs a primary key the
	// table binding or the item does not have.
	ErrNoPrimaryKey = errors.New("access: primary key required")

	// ErrCompoundGeneratedKey is returned when a generated key is configured on
	// a compound primary key.
	ErrCompoundGeneratedKey = errors.New("access: generated keys require a single-column primary key")

	// ErrUntypedOutputParameter is returned when a non-input parameter has a nil
	// value and no declared type on a provider that needs one.
	ErrUntypedOutputParameter = errors.New("access: output parameter has no value and no declared type")

	// ErrRowCountDirection is returned when RowCount is bound to a non-output parameter.
	ErrRowCountDirection = errors.New("access: RowCount may only be bound to an output parameter")

	// ErrConnectionAsParameter is returned when a connection is passed where
	// parameter values were expected.
	ErrConnectionAsParameter = errors.New("access: connection passed as a parameter")

	// ErrPartialKey is returned when an item carries some but not all primary-key fields.
	ErrPartialKey = errors.New("access: all or no primary key fields must be present")

	// ErrMixedDefaultKeys is returned when some key fields hold default values and others do not.
	ErrMixedDefaultKeys = errors.New("access: primary key fields mix default and non-default values")

	// ErrValidation is matched by every *ValidationError.
	ErrValidation = errors.New("access: validation failed")

	// ErrAnonymousColumn is returned when a dynamic row meets an unnamed column.
	ErrAnonymousColumn = errors.New("access: unnamed column in dynamic result")

	// ErrRecordNotFound is returned by single-row reads that find nothing.
	ErrRecordNotFound = errors.New("access: record not found")

	// ErrUnknownAction is returned for an Action outside the known set.
	ErrUnknownAction = errors.New("access: unknown action")

	// ErrCursorInUse is returned when a cursor is iterated more than once.
	ErrCursorInUse = errors.New("access: cursor already consumed")

	// ErrUnsupported is returned when the dialect lacks a capability an operation needs.
	ErrUnsupported = errors.New("access: not supported by dialect")
)

// OperationError names the attempted action and, when known, the offending
// field or parameter.
type OperationError struct {
	Action string
	Field  string
	Err    error
}

func (e *OperationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s %q: %v", e.Action, e.Field, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Action, e.Err)
}

func (e *OperationError) Unwrap() error { return e.Err }

func opError(action, field string, err error) error {
	if err == nil {
		return nil
	}
	var oe *OperationError
	if errors.As(err, &oe) {
		return err
	}
	return &OperationError{Action: action, Field: field, Err: err}
}

// ItemErrors are the validation errors of one item in a batch.
type ItemErrors struct {
	Index int
	Item  any
	Err   error
}

// ValidationError rejects a batch before any write. It lists every failing item.
type ValidationError struct {
	Action Action
	Items  []ItemErrors
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: validation failed for %d item(s)", e.Action, len(e.Items))
	for _, it := range e.Items {
		fmt.Fprintf(&b, "; item %d: %v", it.Index, it.Err)
	}
	return b.String()
}

// Unwrap exposes ErrValidation and every item error.
func (e *ValidationError) Unwrap() []error {
	out := []error{ErrValidation}
	for _, it := range e.Items {
		out = append(out, multierr.Errors(it.Err)...)
	}
	return out
}
