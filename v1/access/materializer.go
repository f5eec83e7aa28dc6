package access

import (
	"database/sql"
	"fmt"
	"reflect"
	"slices"
	"time"

	"github.com/Aleph-Alpha/dbaccess/v1/schema"
)

type rowKind int

const (
	rowRecord rowKind = iota
	rowMap
	rowAny
	rowStruct
	rowStructPtr
	rowScalar
)

var (
	recordPtrType = reflect.TypeFor[*Record]()
	mapType       = reflect.TypeFor[map[string]any]()
	timeType      = reflect.TypeFor[time.Time]()
	scannerType   = reflect.TypeFor[sql.Scanner]()
)

// materializer turns scanned column values into T. The output kind is fixed by
// T: *Record, map[string]any and interface types are dynamic rows, structs
// (and pointers to them) are typed rows, anything else is a single-column scalar.
type materializer[T any] struct {
	kind     rowKind
	typ      reflect.Type
	contract schema.Contract
}

func newMaterializer[T any](contracts schema.Provider) (*materializer[T], error) {
	t := reflect.TypeFor[T]()
	m := &materializer[T]{typ: t}
	switch {
	case t == recordPtrType:
		m.kind = rowRecord
	case t == mapType:
		m.kind = rowMap
	case t.Kind() == reflect.Interface && recordPtrType.Implements(t):
		m.kind = rowAny
	case isTypedRow(t):
		m.kind = rowStruct
	case t.Kind() == reflect.Pointer && isTypedRow(t.Elem()):
		m.kind = rowStructPtr
		m.typ = t.Elem()
	default:
		m.kind = rowScalar
		return m, nil
	}
	if m.kind == rowStruct || m.kind == rowStructPtr {
		c, err := contracts.For(m.typ)
		if err != nil {
			return nil, err
		}
		m.contract = c
	}
	return m, nil
}

func isTypedRow(t reflect.Type) bool {
	return t.Kind() == reflect.Struct && t != timeType && !reflect.PointerTo(t).Implements(scannerType)
}

func (m *materializer[T]) dynamic() bool {
	return m.kind == rowRecord || m.kind == rowMap || m.kind == rowAny
}

// rowPlan is computed once per result set.
type rowPlan struct {
	columns []string
	targets [][]int
}

func (m *materializer[T]) plan(columns []string) (*rowPlan, error) {
	p := &rowPlan{columns: columns}
	switch {
	case m.dynamic():
		for i, c := range columns {
			if c == "" || c == "?column?" {
				return nil, opError("materialize", fmt.Sprintf("column %d", i+1), ErrAnonymousColumn)
			}
		}
	case m.kind == rowScalar:
		if len(columns) != 1 {
			return nil, opError("materialize", "", fmt.Errorf("cannot map %d columns into %s", len(columns), m.typ))
		}
	default:
		p.targets = make([][]int, len(columns))
		for i, c := range columns {
			if fi, ok := m.contract.FieldFor(c); ok {
				p.targets[i] = fi.Index
			}
		}
	}
	return p, nil
}

// row builds one output value. values is owned by the row afterwards.
func (m *materializer[T]) row(p *rowPlan, values []any) (T, error) {
	var out T
	switch m.kind {
	case rowRecord, rowAny:
		r := &Record{names: slices.Clone(p.columns), values: values}
		return any(r).(T), nil
	case rowMap:
		mm := make(map[string]any, len(values))
		for i, c := range p.columns {
			mm[c] = values[i]
		}
		return any(mm).(T), nil
	case rowScalar:
		if err := schema.Assign(reflect.ValueOf(&out).Elem(), values[0]); err != nil {
			return out, opError("materialize", p.columns[0], err)
		}
		return out, nil
	}

	v := reflect.New(m.typ)
	for i, idx := range p.targets {
		if idx == nil {
			continue
		}
		if err := schema.Assign(schema.FieldByIndex(v.Elem(), idx), values[i]); err != nil {
			return out, opError("materialize", p.columns[i], err)
		}
	}
	if m.kind == rowStructPtr {
		return v.Interface().(T), nil
	}
	return v.Elem().Interface().(T), nil
}

// scanValues fetches all column values of the current row in one call.
func scanValues(rows *sql.Rows, n int) ([]any, error) {
	values := make([]any, n)
	ptrs := make([]any, n)
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, err
	}
	return values, nil
}
