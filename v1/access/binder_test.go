package access

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aleph-Alpha/dbaccess/internal/sqltest"
	"github.com/Aleph-Alpha/dbaccess/v1/dialect"
	"github.com/Aleph-Alpha/dbaccess/v1/schema"
)

func TestPositionalNaming(t *testing.T) {
	pg, _ := newTestDB(t, dialect.NewPostgres(), nil)
	cmd, err := pg.CreateCommand("SELECT * FROM t WHERE a = $1 AND b = $2", 1, "x")
	require.NoError(t, err)
	require.Len(t, cmd.Parameters, 2)
	assert.Equal(t, "", cmd.Parameters[0].Name)
	assert.Equal(t, "$2", cmd.Parameters[1].Token)
	assert.Equal(t, []any{1, "x"}, cmd.Args())

	ms, _ := newTestDB(t, dialect.NewSQLServer(), nil)
	cmd, err = ms.CreateCommand("SELECT * FROM t WHERE a = @p1 AND b = @since", 1, sql.Named("since", "2024"))
	require.NoError(t, err)
	assert.Equal(t, "p1", cmd.Parameters[0].Name)
	assert.Equal(t, "@since", cmd.Parameters[1].Token)
	assert.Equal(t, []any{sql.Named("p1", 1), sql.Named("since", "2024")}, cmd.Args())
}

func TestBindingOrder(t *testing.T) {
	db, _ := newTestDB(t, dialect.NewSQLServer(), nil)
	cmd, err := db.CreateDirectionalCommand("EXEC proc", Bags{
		In:     map[string]any{"in": 1},
		Out:    map[string]any{"out": TypedNull[int64]()},
		InOut:  map[string]any{"io": 2},
		Return: map[string]any{"ret": TypedNull[int]()},
	}, "first", "second")
	require.NoError(t, err)

	var dirs []Direction
	var names []string
	for _, p := range cmd.Parameters {
		dirs = append(dirs, p.Direction)
		names = append(names, p.Name)
	}
	assert.Equal(t, []Direction{In, In, In, Out, InOut, ReturnValue}, dirs)
	assert.Equal(t, []string{"p1", "p2", "in", "out", "io", "ret"}, names)

	out, ok := cmd.Parameter("OUT")
	require.True(t, ok)
	assert.Equal(t, reflect.TypeFor[int64](), out.Type)
}

func TestNullInputRendersLiteral(t *testing.T) {
	for _, d := range []dialect.Dialect{dialect.NewPostgres(), dialect.NewMySQL(), dialect.NewSQLServer()} {
		t.Run(d.Name(), func(t *testing.T) {
			db, _ := newTestDB(t, d, nil)
			cmd, _, err := newUsers(t, db).Resolve(&user{ID: 1}, Update)
			require.NoError(t, err)
			assert.Contains(t, cmd.Text, "age = NULL")
			for _, p := range cmd.Parameters {
				if p.Value == nil {
					assert.False(t, p.Sent())
					assert.Equal(t, "NULL", p.Token)
				}
			}
			assert.Len(t, cmd.Args(), 2)
		})
	}
}

func TestNilPositionalIsSent(t *testing.T) {
	db, _ := newTestDB(t, dialect.NewPostgres(), nil)
	cmd, err := db.CreateCommand("UPDATE t SET a = $1", nil)
	require.NoError(t, err)
	assert.Equal(t, []any{nil}, cmd.Args())
}

func TestBindingErrors(t *testing.T) {
	ms, _ := newTestDB(t, dialect.NewSQLServer(), nil)
	pg, _ := newTestDB(t, dialect.NewPostgres(), nil)

	tests := []struct {
		name string
		db   *DB
		bags Bags
		args []any
		want error
	}{
		{name: "untyped output", db: ms, bags: Bags{Out: map[string]any{"x": nil}}, want: ErrUntypedOutputParameter},
		{name: "untyped return", db: ms, bags: Bags{Return: map[string]any{"r": nil}}, want: ErrUntypedOutputParameter},
		{name: "row count as input", db: pg, bags: Bags{In: map[string]any{"n": RowCount}}, want: ErrRowCountDirection},
		{name: "row count as in-out", db: pg, bags: Bags{InOut: map[string]any{"n": RowCount}}, want: ErrRowCountDirection},
		{name: "row count positional", db: pg, args: []any{RowCount}, want: ErrRowCountDirection},
		{name: "cursor positional", db: pg, args: []any{Cursor}, want: ErrUnsupported},
		{name: "cursor as input", db: pg, bags: Bags{In: map[string]any{"c": Cursor}}, want: ErrUnsupported},
		{name: "cursor without cursor support", db: ms, bags: Bags{Out: map[string]any{"c": Cursor}}, want: ErrUnsupported},
		{name: "connection positional", db: pg, args: []any{pg.SQL()}, want: ErrConnectionAsParameter},
		{name: "connection as bag", db: pg, bags: Bags{In: pg.SQL()}, want: ErrConnectionAsParameter},
		{name: "db as bag", db: pg, bags: Bags{Out: pg}, want: ErrConnectionAsParameter},
		{name: "connection as value", db: pg, bags: Bags{In: map[string]any{"c": pg.SQL()}}, want: ErrConnectionAsParameter},
		{name: "value as bag", db: pg, bags: Bags{In: 5}, want: schema.ErrUnsupportedItem},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.db.CreateDirectionalCommand("SELECT 1", tt.bags, tt.args...)
			require.ErrorIs(t, err, tt.want)
		})
	}

	_, err := pg.CreateDirectionalCommand("SELECT 1", Bags{}, Cursor)
	require.NotErrorIs(t, err, ErrRowCountDirection)
	assert.ErrorContains(t, err, "Cursor requires an output parameter")

	// providers that ignore output types accept untyped outputs
	_, err = pg.CreateDirectionalCommand("SELECT 1", Bags{Out: map[string]any{"x": nil}})
	require.NoError(t, err)
}

func TestKeyFilter(t *testing.T) {
	db, _ := newTestDB(t, dialect.NewPostgres(), nil)
	pk := &PrimaryKey{Columns: []string{"id"}}
	item := map[string]any{"id": 1, "name": "a"}

	for filter, want := range map[KeyFilter][]string{
		KeysAll:      {"id", "name"},
		KeysOnly:     {"id"},
		KeysExcluded: {"name"},
	} {
		b := newBinder(db.Dialect(), db.config().Contracts)
		require.NoError(t, b.bind(nil, Bags{In: item}, filter, pk))
		var names []string
		for _, p := range b.cmd.Parameters {
			names = append(names, p.Name)
		}
		assert.Equal(t, want, names, filter)
	}
}

func TestRowCountOutput(t *testing.T) {
	db, drv := newTestDB(t, dialect.NewPostgres(), func(sqltest.Statement) sqltest.Response {
		return sqltest.Exec(4, 0)
	})
	out := map[string]any{"affected": RowCount}
	cmd, err := db.CreateDirectionalCommand("UPDATE users SET active = false WHERE age < $1", Bags{Out: out}, 18)
	require.NoError(t, err)

	n, err := db.ExecuteCommand(context.Background(), cmd)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	assert.Equal(t, int64(4), out["affected"])
	assert.Equal(t, sqltest.KindExec, drv.Statements()[0].Kind)
	assert.Equal(t, []any{int64(18)}, drv.Statements()[0].Values())
}

func TestOutputParametersThroughDriver(t *testing.T) {
	db, drv := newTestDB(t, dialect.NewSQLServer(), func(sqltest.Statement) sqltest.Response {
		return sqltest.Response{Out: map[string]any{"total": int64(99), "ret": int64(0), "counter": int64(3)}}
	})
	type totals struct {
		Total int64 `db:"total"`
	}
	out := &totals{}
	inOut := map[string]any{"counter": 2}
	ret := map[string]any{"ret": TypedNull[int64]()}

	res, err := db.Call(context.Background(), "get_total", Bags{
		In:     map[string]any{"region": "eu"},
		Out:    out,
		InOut:  inOut,
		Return: ret,
	})
	require.NoError(t, err)
	assert.Equal(t, "EXEC @ret = get_total @region, @total OUTPUT, @counter OUTPUT", drv.Queries()[0])
	assert.Equal(t, int64(99), out.Total)
	assert.Equal(t, 3, inOut["counter"])
	assert.Equal(t, int64(0), ret["ret"])

	v, ok := res.Get("counter")
	require.True(t, ok)
	assert.Equal(t, 3, v)
	_, ok = res.Get("region")
	assert.False(t, ok)

	stmt := drv.Statements()[0]
	require.Len(t, stmt.Args, 4)
	assert.Equal(t, "eu", stmt.Args[0].Value)
	counter, ok := stmt.Args[2].Value.(sql.Out)
	require.True(t, ok)
	assert.True(t, counter.In)
}

func TestOutputsFromResultRow(t *testing.T) {
	db, drv := newTestDB(t, dialect.NewPostgres(), func(sqltest.Statement) sqltest.Response {
		return sqltest.Rows([]string{"total", "label"}, []driver.Value{int64(12), "eu"})
	})
	out := NewRecord([]string{"total", "label"}, []any{nil, nil})
	res, err := db.Call(context.Background(), "get_total", Bags{In: map[string]any{"region": "eu"}, Out: out})
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM get_total($1)", drv.Queries()[0])
	v, _ := out.Get("total")
	assert.Equal(t, int64(12), v)
	v, _ = res.Get("label")
	assert.Equal(t, "eu", v)
}
