package schema

import (
	"database/sql/driver"
	"fmt"
	"reflect"
	"sort"
	"time"
)

var (
	valuerType = reflect.TypeFor[driver.Valuer]()
	timeType   = reflect.TypeFor[time.Time]()
)

// ValueOnly reports whether item carries no field names and returns its values.
// Scalars yield one value, []any yields its elements. Structs, maps with string
// keys and NamedValues are named items.
func ValueOnly(item any) ([]any, bool) {
	if item == nil {
		return nil, false
	}
	if vs, ok := item.([]any); ok {
		return vs, true
	}
	if _, ok := item.(NamedValues); ok {
		return nil, false
	}
	t := reflect.TypeOf(item)
	if t.Implements(valuerType) {
		return []any{item}, true
	}
	base := t
	for base.Kind() == reflect.Pointer {
		base = base.Elem()
	}
	switch {
	case base == timeType:
		return []any{item}, true
	case base.Kind() == reflect.Struct:
		return nil, false
	case base.Kind() == reflect.Map && base.Key().Kind() == reflect.String:
		return nil, false
	}
	return []any{item}, true
}

// namedFields enumerates NamedValues and string-keyed maps. Map keys are sorted
// so generated SQL is stable.
func namedFields(item any, columnFor func(string) string) ([]Field, bool) {
	if nv, ok := item.(NamedValues); ok {
		names, values := nv.Names(), nv.Values()
		fields := make([]Field, len(names))
		for i, n := range names {
			var v any
			if i < len(values) {
				v = values[i]
			}
			fields[i] = valueField(n, columnFor(n), v)
		}
		return fields, true
	}

	rv := reflect.ValueOf(item)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	keys := make([]string, 0, rv.Len())
	for _, k := range rv.MapKeys() {
		keys = append(keys, k.String())
	}
	sort.Strings(keys)
	fields := make([]Field, len(keys))
	for i, k := range keys {
		v := rv.MapIndex(reflect.ValueOf(k).Convert(rv.Type().Key()))
		fields[i] = valueField(k, columnFor(k), v.Interface())
	}
	return fields, true
}

func valueField(name, column string, v any) Field {
	v = Normalize(v)
	f := Field{Name: name, Column: column, Value: v, Zero: IsZero(v)}
	if v != nil {
		f.Type = reflect.TypeOf(v)
	}
	return f
}

// Normalize turns nil pointers and nil interfaces into nil.
func Normalize(v any) any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
	}
	return v
}

// IsZero reports whether v is nil or the zero value of its type.
func IsZero(v any) bool {
	if v == nil {
		return true
	}
	return reflect.ValueOf(v).IsZero()
}

// structValue dereferences item to an addressable-or-not struct of type want.
func structValue(item any, want reflect.Type) (reflect.Value, error) {
	if item == nil {
		return reflect.Value{}, ErrNilItem
	}
	rv := reflect.ValueOf(item)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return reflect.Value{}, ErrNilItem
		}
		rv = rv.Elem()
	}
	if rv.Type() != want {
		return reflect.Value{}, fmt.Errorf("%w: got %s, want %s", ErrTypeMismatch, rv.Type(), want)
	}
	return rv, nil
}

// fieldByIndexRead follows index without allocating; ok is false when a nil
// embedded pointer is crossed. Negative entries (GORM's marker for embedded
// pointers) are accepted.
func fieldByIndexRead(v reflect.Value, index []int) (reflect.Value, bool) {
	for _, x := range index {
		if x < 0 {
			x = -x - 1
		}
		if v.Kind() == reflect.Pointer {
			if v.IsNil() {
				return reflect.Value{}, false
			}
			v = v.Elem()
		}
		v = v.Field(x)
	}
	return v, true
}

// FieldByIndex returns the field at index in the addressable struct v,
// allocating nil embedded pointers on the way.
func FieldByIndex(v reflect.Value, index []int) reflect.Value {
	for _, x := range index {
		if x < 0 {
			x = -x - 1
		}
		if v.Kind() == reflect.Pointer {
			if v.IsNil() {
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = v.Field(x)
	}
	return v
}

func deref(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

type tabler interface {
	TableName() string
}

func tableNameOf(t reflect.Type) string {
	if t == nil {
		return ""
	}
	if t.Implements(reflect.TypeFor[tabler]()) {
		return reflect.Zero(t).Interface().(tabler).TableName()
	}
	if reflect.PointerTo(t).Implements(reflect.TypeFor[tabler]()) {
		return reflect.New(t).Interface().(tabler).TableName()
	}
	return ""
}
