package access

import (
	"database/sql"
	"reflect"
)

// Direction of a command parameter.
type Direction int

const (
	In Direction = iota
	Out
	InOut
	ReturnValue
)

func (d Direction) String() string {
	switch d {
	case Out:
		return "out"
	case InOut:
		return "inout"
	case ReturnValue:
		return "return"
	default:
		return "in"
	}
}

type rowCount struct{}

// RowCount, bound to an Out parameter, receives the number of rows affected by
// the command after it runs.
var RowCount any = rowCount{}

type cursor struct{}

// Cursor, bound to an Out parameter, marks a cursor result. On providers with
// cursors the call runs in a transaction and the output receives the rows read
// from the cursor as []*Record.
var Cursor any = cursor{}

// Typed pairs a value with a declared type, for output parameters that start
// out nil.
type Typed struct {
	Value any
	Type  reflect.Type
}

// TypedNull returns a nil value declared as T.
func TypedNull[T any]() Typed {
	return Typed{Type: reflect.TypeFor[T]()}
}

// Bags groups the directional parameter collections of a command. Each bag is
// a struct, a pointer to a struct, a map with string keys or a *Record. Mutable
// Out, InOut and Return bags receive the output values after execution.
type Bags struct {
	In     any
	Out    any
	InOut  any
	Return any
}

// KeyFilter restricts which named entries of a bag are bound.
type KeyFilter int

const (
	KeysAll KeyFilter = iota
	KeysOnly
	KeysExcluded
)

// Parameter is one bound command parameter.
type Parameter struct {
	Name      string
	Value     any
	Direction Direction
	Type      reflect.Type
	Cursor    bool

	// Token is the SQL the parameter renders to: a provider placeholder or NULL.
	Token string

	rowCount bool
	sent     bool
	ordinal  int
	dest     reflect.Value
}

// Sent reports whether the parameter is passed to the driver (false for NULL
// literals, RowCount and outputs read from the result row).
func (p *Parameter) Sent() bool { return p.sent }

func (p *Parameter) output() bool { return p.Direction != In }

// driverArg renders the argument handed to database/sql.
func (p *Parameter) driverArg(named, outputs bool) any {
	if p.output() && outputs {
		typ := p.Type
		if typ == nil {
			typ = reflect.TypeFor[any]()
		}
		p.dest = reflect.New(typ)
		if p.Direction == InOut && p.Value != nil {
			v := reflect.ValueOf(p.Value)
			if v.Kind() == reflect.Pointer {
				v = v.Elem()
			}
			if v.Type().AssignableTo(typ) {
				p.dest.Elem().Set(v)
			} else if v.Type().ConvertibleTo(typ) {
				p.dest.Elem().Set(v.Convert(typ))
			}
		}
		return sql.Named(p.Name, sql.Out{Dest: p.dest.Interface(), In: p.Direction == InOut})
	}
	if named {
		return sql.Named(p.Name, p.Value)
	}
	return p.Value
}
