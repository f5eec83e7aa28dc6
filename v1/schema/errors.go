package schema

import "errors"

var (
	// ErrNilItem is returned when a nil item is enumerated.
	ErrNilItem = errors.New("schema: nil item")

	// ErrUnsupportedItem is returned for item shapes that carry no field names.
	ErrUnsupportedItem = errors.New("schema: item has no named fields")

	// ErrTypeMismatch is returned when a contract is asked about an item of another type.
	ErrTypeMismatch = errors.New("schema: item type does not match contract")

	// ErrNotAssignable is returned when a database value cannot be stored in a field.
	ErrNotAssignable = errors.New("schema: value not assignable")
)
