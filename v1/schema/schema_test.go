package schema

import (
	"database/sql"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Audit struct {
	CreatedBy string `db:"created_by"`
}

type user struct {
	Audit
	ID       int64   `db:"id,pk,auto"`
	Name     string  `db:"name"`
	Email    *string `db:"email"`
	Internal string  `db:"-"`
	Score    float64
}

func (user) TableName() string { return "users" }

type order struct {
	ID      uint `gorm:"primaryKey"`
	Product string
	Qty     int `gorm:"default:1"`
}

type names struct {
	names  []string
	values []any
}

func (n names) Names() []string { return n.names }
func (n names) Values() []any   { return n.values }

func TestMapperModel(t *testing.T) {
	c, err := NewMapper().For(reflect.TypeFor[user]())
	require.NoError(t, err)

	m := c.Model()
	assert.Equal(t, "users", m.Table)
	assert.Equal(t, []string{"id"}, m.PrimaryKeys)
	assert.Equal(t, "id", m.AutoIncrement)
	assert.ElementsMatch(t, []string{"id", "name", "email", "score", "created_by"}, m.Columns)
	assert.NotContains(t, m.Columns, "internal")
}

func TestMapperColumnAndFieldLookup(t *testing.T) {
	c, err := NewMapper().For(reflect.TypeFor[*user]())
	require.NoError(t, err)

	assert.Equal(t, "name", c.ColumnFor("Name"))
	assert.Equal(t, "score", c.ColumnFor("Score"))
	assert.Equal(t, "unknown", c.ColumnFor("unknown"))

	fi, ok := c.FieldFor("NAME")
	require.True(t, ok)
	assert.Equal(t, "Name", fi.Name)

	fi, ok = c.FieldFor("created_by")
	require.True(t, ok)
	assert.Equal(t, []int{0, 0}, fi.Index)

	_, ok = c.FieldFor("missing")
	assert.False(t, ok)
	assert.False(t, c.CaseSensitive())

	cs, err := NewMapper(WithCaseSensitive()).For(reflect.TypeFor[user]())
	require.NoError(t, err)
	_, ok = cs.FieldFor("NAME")
	assert.False(t, ok)
}

func TestMapperFields(t *testing.T) {
	c, err := NewMapper().For(reflect.TypeFor[user]())
	require.NoError(t, err)

	fields, err := c.Fields(&user{ID: 7, Name: "A"})
	require.NoError(t, err)

	byColumn := map[string]Field{}
	for _, f := range fields {
		byColumn[f.Column] = f
	}
	require.Contains(t, byColumn, "id")
	assert.True(t, byColumn["id"].PrimaryKey)
	assert.True(t, byColumn["id"].AutoIncrement)
	assert.False(t, byColumn["id"].Zero)
	assert.Equal(t, int64(7), byColumn["id"].Value)
	assert.Nil(t, byColumn["email"].Value)
	assert.True(t, byColumn["email"].Zero)

	_, err = c.Fields(order{})
	assert.ErrorIs(t, err, ErrTypeMismatch)
	_, err = c.Fields(nil)
	assert.ErrorIs(t, err, ErrNilItem)
}

func TestNamedItems(t *testing.T) {
	c, err := NewMapper().For(nil)
	require.NoError(t, err)

	fields, err := c.Fields(map[string]any{"name": "A", "id": 0})
	require.NoError(t, err)
	require.Len(t, fields, 2)
	assert.Equal(t, "id", fields[0].Column)
	assert.True(t, fields[0].Zero)
	assert.Equal(t, "name", fields[1].Column)

	fields, err = c.Fields(names{names: []string{"b", "a"}, values: []any{1, nil}})
	require.NoError(t, err)
	assert.Equal(t, "b", fields[0].Name)
	assert.Equal(t, "a", fields[1].Name)
	assert.Nil(t, fields[1].Value)

	_, err = c.Fields(42)
	assert.ErrorIs(t, err, ErrUnsupportedItem)
}

func TestValueOnly(t *testing.T) {
	vs, ok := ValueOnly(7)
	assert.True(t, ok)
	assert.Equal(t, []any{7}, vs)

	vs, ok = ValueOnly([]any{1, "a"})
	assert.True(t, ok)
	assert.Len(t, vs, 2)

	_, ok = ValueOnly(time.Now())
	assert.True(t, ok)
	_, ok = ValueOnly(sql.NullInt64{Int64: 1, Valid: true})
	assert.True(t, ok)

	_, ok = ValueOnly(user{})
	assert.False(t, ok)
	_, ok = ValueOnly(map[string]any{})
	assert.False(t, ok)
	_, ok = ValueOnly(names{})
	assert.False(t, ok)
}

func TestGormProvider(t *testing.T) {
	p := NewGormProvider(nil)
	c, err := p.For(reflect.TypeFor[order]())
	require.NoError(t, err)

	m := c.Model()
	assert.Equal(t, "orders", m.Table)
	assert.Equal(t, []string{"id"}, m.PrimaryKeys)
	assert.Equal(t, "id", m.AutoIncrement)
	assert.Equal(t, "product", c.ColumnFor("Product"))

	fi, ok := c.FieldFor("QTY")
	require.True(t, ok)
	assert.Equal(t, "Qty", fi.Name)

	def, ok := c.DefaultValue("qty")
	require.True(t, ok)
	assert.EqualValues(t, 1, def)

	fields, err := c.Fields(&order{Product: "pen"})
	require.NoError(t, err)
	require.Len(t, fields, 3)
	assert.Equal(t, "id", fields[0].Column)
	assert.True(t, fields[0].Zero)
	assert.True(t, fields[0].PrimaryKey)

	again, err := p.For(reflect.TypeFor[*order]())
	require.NoError(t, err)
	assert.Same(t, c, again)

	_, err = p.For(reflect.TypeFor[int]())
	assert.ErrorIs(t, err, ErrUnsupportedItem)
}

func TestAssign(t *testing.T) {
	var dst struct {
		I   int32
		U   uint8
		S   string
		B   []byte
		F   float64
		OK  bool
		P   *string
		N   sql.NullString
		Any any
	}
	v := reflect.ValueOf(&dst).Elem()

	require.NoError(t, Assign(v.Field(0), int64(12)))
	require.NoError(t, Assign(v.Field(1), []byte("200")))
	require.NoError(t, Assign(v.Field(2), []byte("text")))
	require.NoError(t, Assign(v.Field(3), "raw"))
	require.NoError(t, Assign(v.Field(4), int64(3)))
	require.NoError(t, Assign(v.Field(5), int64(1)))
	require.NoError(t, Assign(v.Field(6), "ptr"))
	require.NoError(t, Assign(v.Field(7), "null-string"))
	require.NoError(t, Assign(v.Field(8), int64(5)))

	assert.Equal(t, int32(12), dst.I)
	assert.Equal(t, uint8(200), dst.U)
	assert.Equal(t, "text", dst.S)
	assert.Equal(t, []byte("raw"), dst.B)
	assert.Equal(t, 3.0, dst.F)
	assert.True(t, dst.OK)
	require.NotNil(t, dst.P)
	assert.Equal(t, "ptr", *dst.P)
	assert.Equal(t, sql.NullString{String: "null-string", Valid: true}, dst.N)
	assert.Equal(t, int64(5), dst.Any)

	require.NoError(t, Assign(v.Field(6), nil))
	assert.Nil(t, dst.P)

	assert.ErrorIs(t, Assign(v.Field(1), int64(300)), ErrNotAssignable)
	assert.ErrorIs(t, Assign(v.Field(0), "abc"), ErrNotAssignable)
}

func TestToInt64(t *testing.T) {
	for _, in := range []any{int32(5), int64(5), uint16(5), []byte("5"), "5", float64(5)} {
		n, err := ToInt64(in)
		require.NoError(t, err)
		assert.Equal(t, int64(5), n)
	}
	_, err := ToInt64(nil)
	require.NoError(t, err)
}

func TestFieldByIndexAllocates(t *testing.T) {
	type Inner struct{ X int }
	type Outer struct{ *Inner }

	var o Outer
	f := FieldByIndex(reflect.ValueOf(&o).Elem(), []int{0, 0})
	f.SetInt(3)
	require.NotNil(t, o.Inner)
	assert.Equal(t, 3, o.X)
}
