package access

import (
	"context"
	"reflect"

	"github.com/Aleph-Alpha/dbaccess/v1/dialect"
	"github.com/Aleph-Alpha/dbaccess/v1/schema"
)

// Table binds a database table to the row type T. T is a struct or pointer to
// struct for typed rows, or *Record / any for dynamic rows.
type Table[T any] struct {
	db       *DB
	name     string
	columns  string
	pk       *PrimaryKey
	contract schema.Contract
}

// NewTable creates a table binding. Table name and primary key fall back to
// what the schema contract derives from T.
func NewTable[T any](db *DB, cfg TableConfig) (*Table[T], error) {
	c := db.config()
	contract, err := contractFor(c, reflect.TypeFor[T]())
	if err != nil {
		return nil, err
	}
	model := contract.Model()
	if cfg.Name == "" {
		cfg.Name = model.Table
	}
	pk, err := newPrimaryKey(cfg, model, db.dialect)
	if err != nil {
		return nil, err
	}
	return &Table[T]{
		db:       db,
		name:     cfg.Name,
		columns:  cfg.Columns,
		pk:       pk,
		contract: contract,
	}, nil
}

// Name returns the table name.
func (t *Table[T]) Name() string { return t.name }

// PrimaryKey returns the resolved primary key.
func (t *Table[T]) PrimaryKey() *PrimaryKey { return t.pk }

// Contract returns the schema contract of T.
func (t *Table[T]) Contract() schema.Contract { return t.contract }

// contractOf returns the contract for item, reusing T's when the types match.
func (t *Table[T]) contractOf(cfg Config, item any) (schema.Contract, error) {
	it := reflect.TypeOf(item)
	tt := reflect.TypeFor[T]()
	if it == tt || (tt.Kind() == reflect.Pointer && it == tt.Elem()) || (it.Kind() == reflect.Pointer && it.Elem() == tt) {
		return t.contract, nil
	}
	return contractFor(cfg, it)
}

// TableQuery selects rows of the table.
type TableQuery struct {
	// Columns overrides the table's column list.
	Columns string
	Where   string
	OrderBy string

	// Limit caps the rows read; 0 reads all.
	Limit int
	Args  []any
}

// Query streams matching rows.
func (t *Table[T]) Query(ctx context.Context, q TableQuery) (*Rows[T], error) {
	return t.query(ctx, "query", q)
}

func (t *Table[T]) query(ctx context.Context, name string, q TableQuery) (*Rows[T], error) {
	if t.name == "" {
		return nil, opError(name, "", ErrNoTable)
	}
	columns := q.Columns
	if columns == "" {
		columns = t.columns
	}
	text, err := t.db.dialect.BuildSelect(dialect.Select{
		Columns: columns,
		Table:   t.name,
		Where:   q.Where,
		OrderBy: q.OrderBy,
		Limit:   q.Limit,
	})
	if err != nil {
		return nil, opError(name, "", err)
	}
	cfg := t.db.config()
	b := newBinder(t.db.dialect, cfg.Contracts)
	if err := b.positional(q.Args); err != nil {
		return nil, err
	}
	return queryRows[T](ctx, t.db, cfg, name, t.name, b.command(text), q.Limit)
}

// All returns every row matching where.
func (t *Table[T]) All(ctx context.Context, where string, args ...any) ([]T, error) {
	rows, err := t.Query(ctx, TableQuery{Where: where, Args: args})
	if err != nil {
		return nil, err
	}
	return rows.Collect()
}

// Single returns the first row matching where, or ErrRecordNotFound.
func (t *Table[T]) Single(ctx context.Context, where string, args ...any) (T, error) {
	rows, err := t.query(ctx, "single", TableQuery{Where: where, Args: args, Limit: 1})
	if err != nil {
		var zero T
		return zero, err
	}
	return first(rows)
}

// Get returns the row with the given key values, in key column order.
func (t *Table[T]) Get(ctx context.Context, key ...any) (T, error) {
	var zero T
	if t.name == "" {
		return zero, opError("get", "", ErrNoTable)
	}
	if t.pk.Arity() == 0 {
		return zero, opError("get", "", ErrNoPrimaryKey)
	}
	if len(key) != t.pk.Arity() {
		return zero, opError("get", "", ErrPartialKey)
	}
	cfg := t.db.config()
	b := newBinder(t.db.dialect, cfg.Contracts)
	keys := make([]schema.Field, len(key))
	for i, k := range key {
		keys[i] = schema.Field{Column: t.pk.Columns[i], Value: schema.Normalize(k)}
	}
	where, err := keyPredicate(b, keys, nil, false)
	if err != nil {
		return zero, err
	}
	text, err := t.db.dialect.BuildSelect(dialect.Select{Columns: t.columns, Table: t.name, Where: where, Limit: 1})
	if err != nil {
		return zero, opError("get", "", err)
	}
	rows, err := queryRows[T](ctx, t.db, cfg, "get", t.name, b.command(text), 1)
	if err != nil {
		return zero, err
	}
	return first(rows)
}

// Count returns the number of rows matching where.
func (t *Table[T]) Count(ctx context.Context, where string, args ...any) (int64, error) {
	if t.name == "" {
		return 0, opError("count", "", ErrNoTable)
	}
	text, err := t.db.dialect.BuildSelect(dialect.Select{Columns: "COUNT(*)", Table: t.name, Where: where})
	if err != nil {
		return 0, opError("count", "", err)
	}
	cfg := t.db.config()
	cmd, err := t.db.CreateCommand(text, args...)
	if err != nil {
		return 0, err
	}
	ctx, op := t.db.startOperation(ctx, cfg, "count", t.name)
	v, err := t.db.scalar(ctx, cfg, op, cmd)
	var n int64
	if err == nil {
		n, err = schema.ToInt64(v)
	}
	op.end(1, err)
	return n, err
}

// New returns a fresh Record holding the default value of every known column.
func (t *Table[T]) New() *Record {
	r := &Record{}
	columns := splitColumns(t.columns)
	if len(columns) == 0 || (len(columns) == 1 && columns[0] == "*") {
		columns = t.contract.Model().Columns
	}
	for _, c := range columns {
		v, _ := t.contract.DefaultValue(c)
		r.Set(c, v)
	}
	return r
}
