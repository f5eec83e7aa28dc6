package schema

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/jmoiron/sqlx/reflectx"
)

// Tag options recognized by Mapper.
const (
	OptionPrimaryKey    = "pk"
	OptionAutoIncrement = "auto"
)

// MapperOption configures a Mapper.
type MapperOption func(*Mapper)

// WithTagName sets the struct tag read for column names. Default "db".
func WithTagName(tag string) MapperOption {
	return func(m *Mapper) { m.tagName = tag }
}

// WithNameFunc sets the function deriving a column from an untagged field name.
// Default strings.ToLower.
func WithNameFunc(f func(string) string) MapperOption {
	return func(m *Mapper) { m.nameFunc = f }
}

// WithCaseSensitive makes result-column lookups case-sensitive.
func WithCaseSensitive() MapperOption {
	return func(m *Mapper) { m.caseSensitive = true }
}

// WithDefaults sets column defaults returned by DefaultValue.
func WithDefaults(defaults map[string]any) MapperOption {
	return func(m *Mapper) { m.defaults = defaults }
}

// Mapper is the tag-driven Provider.
type Mapper struct {
	tagName       string
	nameFunc      func(string) string
	caseSensitive bool
	defaults      map[string]any

	rm        *reflectx.Mapper
	contracts sync.Map // reflect.Type -> *TagContract
}

// NewMapper creates a tag-driven Provider.
func NewMapper(opts ...MapperOption) *Mapper {
	m := &Mapper{tagName: "db", nameFunc: strings.ToLower}
	for _, opt := range opts {
		opt(m)
	}
	m.rm = reflectx.NewMapperFunc(m.tagName, m.nameFunc)
	return m
}

// For returns the contract of t. A nil t or a non-struct type yields a contract
// for maps and NamedValues only.
func (m *Mapper) For(t reflect.Type) (Contract, error) {
	key := deref(t)
	if key == nil {
		key = reflect.TypeFor[map[string]any]()
	}
	if c, ok := m.contracts.Load(key); ok {
		return c.(*TagContract), nil
	}
	c := m.build(key)
	actual, _ := m.contracts.LoadOrStore(key, c)
	return actual.(*TagContract), nil
}

func (m *Mapper) build(t reflect.Type) *TagContract {
	c := &TagContract{
		typ:           t,
		caseSensitive: m.caseSensitive,
		defaults:      m.defaults,
		byField:       map[string]int{},
		byColumn:      map[string]int{},
	}
	if t.Kind() != reflect.Struct || t == timeType {
		return c
	}
	c.model.Table = tableNameOf(t)
	for _, fi := range m.rm.TypeMap(t).Index {
		if fi.Embedded || strings.Contains(fi.Path, ".") || fi.Name == "" {
			continue
		}
		info := FieldInfo{
			Name:   fi.Field.Name,
			Column: fi.Name,
			Index:  fi.Index,
			Type:   fi.Field.Type,
		}
		_, info.PrimaryKey = fi.Options[OptionPrimaryKey]
		_, info.AutoIncrement = fi.Options[OptionAutoIncrement]
		if _, dup := c.byColumn[c.key(info.Column)]; dup {
			continue
		}
		i := len(c.fields)
		c.fields = append(c.fields, info)
		c.byField[info.Name] = i
		c.byField[info.Column] = i
		c.byColumn[c.key(info.Column)] = i
		c.model.Columns = append(c.model.Columns, info.Column)
		if info.PrimaryKey {
			c.model.PrimaryKeys = append(c.model.PrimaryKeys, info.Column)
			if info.AutoIncrement {
				c.model.AutoIncrement = info.Column
			}
		}
	}
	return c
}

// TagContract is the Contract produced by Mapper.
type TagContract struct {
	typ           reflect.Type
	caseSensitive bool
	defaults      map[string]any

	fields   []FieldInfo
	byField  map[string]int
	byColumn map[string]int
	model    Model
}

func (c *TagContract) key(column string) string {
	if c.caseSensitive {
		return column
	}
	return strings.ToLower(column)
}

func (c *TagContract) ColumnFor(field string) string {
	if i, ok := c.byField[field]; ok {
		return c.fields[i].Column
	}
	return field
}

func (c *TagContract) FieldFor(column string) (FieldInfo, bool) {
	i, ok := c.byColumn[c.key(column)]
	if !ok {
		return FieldInfo{}, false
	}
	return c.fields[i], true
}

func (c *TagContract) CaseSensitive() bool { return c.caseSensitive }

func (c *TagContract) DefaultValue(column string) (any, bool) {
	if c.defaults == nil {
		return nil, false
	}
	if v, ok := c.defaults[column]; ok {
		return v, true
	}
	if !c.caseSensitive {
		for k, v := range c.defaults {
			if strings.EqualFold(k, column) {
				return v, true
			}
		}
	}
	return nil, false
}

func (c *TagContract) Model() Model { return c.model }

func (c *TagContract) Fields(item any) ([]Field, error) {
	if item == nil {
		return nil, ErrNilItem
	}
	if fields, ok := namedFields(item, c.ColumnFor); ok {
		return fields, nil
	}
	if c.typ.Kind() != reflect.Struct || c.typ == timeType {
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedItem, item)
	}
	rv, err := structValue(item, c.typ)
	if err != nil {
		return nil, err
	}
	fields := make([]Field, 0, len(c.fields))
	for _, fi := range c.fields {
		fv, ok := fieldByIndexRead(rv, fi.Index)
		if !ok {
			continue
		}
		f := valueField(fi.Name, fi.Column, fv.Interface())
		f.Zero = fv.IsZero()
		f.Type = fi.Type
		f.PrimaryKey = fi.PrimaryKey
		f.AutoIncrement = fi.AutoIncrement
		fields = append(fields, f)
	}
	return fields, nil
}

var _ Contract = (*TagContract)(nil)
