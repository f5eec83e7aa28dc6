package access

import (
	"encoding/json"
	"slices"
	"strings"
)

// Record is a dynamic row: ordered name/value pairs with names taken verbatim
// from the result columns. Lookups fall back to a case-insensitive match.
type Record struct {
	names  []string
	values []any
}

// NewRecord builds a Record from parallel name and value slices.
func NewRecord(names []string, values []any) *Record {
	r := &Record{
		names:  slices.Clone(names),
		values: make([]any, len(names)),
	}
	copy(r.values, values)
	return r
}

// Names returns the field names in order.
func (r *Record) Names() []string { return r.names }

// Values returns the field values in order.
func (r *Record) Values() []any { return r.values }

// Len returns the number of fields.
func (r *Record) Len() int { return len(r.names) }

func (r *Record) index(name string) int {
	for i, n := range r.names {
		if n == name {
			return i
		}
	}
	for i, n := range r.names {
		if strings.EqualFold(n, name) {
			return i
		}
	}
	return -1
}

// Get returns the value of name.
func (r *Record) Get(name string) (any, bool) {
	if i := r.index(name); i >= 0 {
		return r.values[i], true
	}
	return nil, false
}

// Set overwrites name or appends it.
func (r *Record) Set(name string, value any) {
	if i := r.index(name); i >= 0 {
		r.values[i] = value
		return
	}
	r.names = append(r.names, name)
	r.values = append(r.values, value)
}

// Delete removes name.
func (r *Record) Delete(name string) {
	if i := r.index(name); i >= 0 {
		r.names = slices.Delete(r.names, i, i+1)
		r.values = slices.Delete(r.values, i, i+1)
	}
}

// Clone returns a copy that shares no state with r.
func (r *Record) Clone() *Record {
	return NewRecord(r.names, r.values)
}

// Map returns the fields as a map.
func (r *Record) Map() map[string]any {
	m := make(map[string]any, len(r.names))
	for i, n := range r.names {
		m[n] = r.values[i]
	}
	return m
}

// UpdateKey sets a generated key in place.
func (r *Record) UpdateKey(column string, key int64) error {
	r.Set(column, key)
	return nil
}

// MarshalJSON encodes the record as an object with fields in order.
func (r *Record) MarshalJSON() ([]byte, error) {
	var b strings.Builder
	b.WriteByte('{')
	for i, n := range r.names {
		if i > 0 {
			b.WriteByte(',')
		}
		k, err := json.Marshal(n)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(r.values[i])
		if err != nil {
			return nil, err
		}
		b.Write(k)
		b.WriteByte(':')
		b.Write(v)
	}
	b.WriteByte('}')
	return []byte(b.String()), nil
}

// KeyUpdater is implemented by items that accept a generated key in place.
type KeyUpdater interface {
	UpdateKey(column string, key int64) error
}

var _ KeyUpdater = (*Record)(nil)
