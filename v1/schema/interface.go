package schema

import "reflect"

// Contract maps the fields of one item type to database columns.
type Contract interface {
	// ColumnFor maps a field name (struct field name, tag name or map key) to its column.
	ColumnFor(field string) string

	// FieldFor resolves a result column to the struct field it populates.
	// ok is false when the column has no target and must be skipped.
	FieldFor(column string) (FieldInfo, bool)

	// Fields enumerates the fields item currently carries, in a stable order.
	Fields(item any) ([]Field, error)

	// CaseSensitive reports whether column lookups are case-sensitive.
	CaseSensitive() bool

	// DefaultValue returns the default value of a column, if the contract knows one.
	DefaultValue(column string) (any, bool)

	// Model returns the table metadata derived from the type. Zero values mean unknown.
	Model() Model
}

// Provider resolves the Contract for an item type. Implementations cache per type
// and are safe for concurrent use.
type Provider interface {
	For(t reflect.Type) (Contract, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(t reflect.Type) (Contract, error)

func (f ProviderFunc) For(t reflect.Type) (Contract, error) { return f(t) }

// NamedValues is implemented by ordered name/value containers.
type NamedValues interface {
	Names() []string
	Values() []any
}

// Field is one present field of an item.
type Field struct {
	Name   string
	Column string
	Value  any
	Type   reflect.Type

	// Zero is true when Value equals the zero value of its type.
	Zero bool

	PrimaryKey    bool
	AutoIncrement bool
}

// FieldInfo locates a struct field reachable from the item type.
type FieldInfo struct {
	Name   string
	Column string
	Index  []int
	Type   reflect.Type

	PrimaryKey    bool
	AutoIncrement bool
}

// Model is the table metadata a contract can derive from a type.
type Model struct {
	Table         string
	PrimaryKeys   []string
	AutoIncrement string
	Columns       []string
}
