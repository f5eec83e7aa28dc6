package schema

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	gschema "gorm.io/gorm/schema"
)

// GormProvider derives contracts from GORM model definitions.
type GormProvider struct {
	namer     gschema.Namer
	cache     *sync.Map
	contracts sync.Map // reflect.Type -> *GormContract
}

// NewGormProvider creates a Provider parsing models with namer.
// A nil namer uses gschema.NamingStrategy{}.
func NewGormProvider(namer gschema.Namer) *GormProvider {
	if namer == nil {
		namer = gschema.NamingStrategy{}
	}
	return &GormProvider{namer: namer, cache: &sync.Map{}}
}

// For parses t as a GORM model. t must be a struct or a pointer to one.
func (p *GormProvider) For(t reflect.Type) (Contract, error) {
	key := deref(t)
	if key == nil || key.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %v is not a GORM model", ErrUnsupportedItem, t)
	}
	if c, ok := p.contracts.Load(key); ok {
		return c.(*GormContract), nil
	}
	s, err := gschema.Parse(reflect.New(key).Interface(), p.cache, p.namer)
	if err != nil {
		return nil, fmt.Errorf("schema: parse %s: %w", key, err)
	}
	c := newGormContract(key, s)
	actual, _ := p.contracts.LoadOrStore(key, c)
	return actual.(*GormContract), nil
}

// GormContract is the Contract backed by a parsed GORM schema.
type GormContract struct {
	typ    reflect.Type
	schema *gschema.Schema
	fields []*gschema.Field
	model  Model
}

func newGormContract(t reflect.Type, s *gschema.Schema) *GormContract {
	c := &GormContract{typ: t, schema: s}
	c.model.Table = s.Table
	c.model.PrimaryKeys = append([]string(nil), s.PrimaryFieldDBNames...)
	for _, f := range s.Fields {
		if f.DBName == "" {
			continue
		}
		c.fields = append(c.fields, f)
		c.model.Columns = append(c.model.Columns, f.DBName)
		if f.PrimaryKey && f.AutoIncrement && len(s.PrimaryFields) == 1 {
			c.model.AutoIncrement = f.DBName
		}
	}
	return c
}

// Schema exposes the parsed GORM schema.
func (c *GormContract) Schema() *gschema.Schema { return c.schema }

func (c *GormContract) ColumnFor(field string) string {
	if f := c.schema.LookUpField(field); f != nil && f.DBName != "" {
		return f.DBName
	}
	return field
}

func (c *GormContract) lookup(column string) *gschema.Field {
	if f, ok := c.schema.FieldsByDBName[column]; ok {
		return f
	}
	for _, f := range c.fields {
		if strings.EqualFold(f.DBName, column) {
			return f
		}
	}
	return nil
}

func (c *GormContract) FieldFor(column string) (FieldInfo, bool) {
	f := c.lookup(column)
	if f == nil || !f.Readable {
		return FieldInfo{}, false
	}
	return gormFieldInfo(f), true
}

func gormFieldInfo(f *gschema.Field) FieldInfo {
	return FieldInfo{
		Name:          f.Name,
		Column:        f.DBName,
		Index:         f.StructField.Index,
		Type:          f.FieldType,
		PrimaryKey:    f.PrimaryKey,
		AutoIncrement: f.AutoIncrement,
	}
}

// CaseSensitive is false: GORM column names are matched case-insensitively.
func (c *GormContract) CaseSensitive() bool { return false }

func (c *GormContract) DefaultValue(column string) (any, bool) {
	f := c.lookup(column)
	if f == nil || !f.HasDefaultValue || f.DefaultValueInterface == nil {
		return nil, false
	}
	return f.DefaultValueInterface, true
}

func (c *GormContract) Model() Model { return c.model }

func (c *GormContract) Fields(item any) ([]Field, error) {
	if item == nil {
		return nil, ErrNilItem
	}
	if fields, ok := namedFields(item, c.ColumnFor); ok {
		return fields, nil
	}
	rv, err := structValue(item, c.typ)
	if err != nil {
		return nil, err
	}
	fields := make([]Field, 0, len(c.fields))
	for _, gf := range c.fields {
		fv, ok := fieldByIndexRead(rv, gf.StructField.Index)
		if !ok {
			continue
		}
		f := valueField(gf.Name, gf.DBName, fv.Interface())
		f.Zero = fv.IsZero()
		f.Type = gf.FieldType
		f.PrimaryKey = gf.PrimaryKey
		f.AutoIncrement = gf.AutoIncrement
		fields = append(fields, f)
	}
	return fields, nil
}

var _ Contract = (*GormContract)(nil)
