package dialect

import "errors"

var (
	// ErrNoTable is returned when a statement is built without a table.
	ErrNoTable = errors.New("dialect: no table name")

	// ErrNoColumns is returned when an UPDATE has nothing to set.
	ErrNoColumns = errors.New("dialect: no columns")

	// ErrNoWhere is returned when an UPDATE or DELETE has no WHERE fragment.
	ErrNoWhere = errors.New("dialect: refusing to build an unrestricted statement")

	// ErrInvalidPage is returned for a page size or page number below one.
	ErrInvalidPage = errors.New("dialect: page size and page number must be positive")

	// ErrSequencesUnsupported is returned by BuildNextval on providers without sequences.
	ErrSequencesUnsupported = errors.New("dialect: sequences are not supported")

	// ErrMismatchedValues is returned when an INSERT has a different number of columns and values.
	ErrMismatchedValues = errors.New("dialect: columns and values length mismatch")

	// ErrUnknownDialect is returned by ForName.
	ErrUnknownDialect = errors.New("dialect: unknown provider")
)
