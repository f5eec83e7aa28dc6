package access

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"

	"go.uber.org/multierr"

	"github.com/Aleph-Alpha/dbaccess/v1/dialect"
	"github.com/Aleph-Alpha/dbaccess/v1/schema"
)

// DB executes commands on a connection pool using one dialect.
type DB struct {
	pool    *sql.DB
	dialect dialect.Dialect
	opts    []Option
}

// New wraps pool. Options override the process defaults for this DB.
func New(pool *sql.DB, d dialect.Dialect, opts ...Option) *DB {
	return &DB{pool: pool, dialect: d, opts: opts}
}

// Dialect returns the dialect in use.
func (db *DB) Dialect() dialect.Dialect { return db.dialect }

// SQL returns the underlying pool.
func (db *DB) SQL() *sql.DB { return db.pool }

// config reads the defaults and applies this DB's options.
func (db *DB) config() Config {
	cfg := Defaults()
	for _, opt := range db.opts {
		opt(&cfg)
	}
	return cfg.withFallbacks()
}

// contractFor resolves the contract of t; dynamic types fall back to the tag
// mapper when the configured provider only understands models.
func contractFor(cfg Config, t reflect.Type) (schema.Contract, error) {
	c, err := cfg.Contracts.For(t)
	if err == nil {
		return c, nil
	}
	base := t
	for base != nil && base.Kind() == reflect.Pointer {
		base = base.Elem()
	}
	if base == nil || base.Kind() != reflect.Struct {
		return defaultContracts.For(t)
	}
	return nil, err
}

// CreateCommand binds positional arguments to text. Arguments are referenced
// with the dialect's tokens ($1, ?, @p1).
func (db *DB) CreateCommand(text string, args ...any) (*Command, error) {
	return db.CreateDirectionalCommand(text, Bags{}, args...)
}

// CreateDirectionalCommand binds positional arguments followed by the
// directional bags. Bag entries are named by their column and follow the
// positional arguments in binding order.
func (db *DB) CreateDirectionalCommand(text string, bags Bags, args ...any) (*Command, error) {
	b := newBinder(db.dialect, db.config().Contracts)
	b.sendNulls = true
	if err := b.bind(args, bags, KeysAll, nil); err != nil {
		return nil, err
	}
	return b.command(text), nil
}

// Execute runs a statement and returns the number of affected rows.
func (db *DB) Execute(ctx context.Context, text string, args ...any) (int64, error) {
	cmd, err := db.CreateCommand(text, args...)
	if err != nil {
		return 0, err
	}
	return db.ExecuteCommand(ctx, cmd)
}

// ExecuteCommand runs cmd and fills its output parameters. It returns the
// number of affected rows, or the number of rows read when outputs come back
// as a result row.
func (db *DB) ExecuteCommand(ctx context.Context, cmd *Command) (int64, error) {
	cfg := db.config()
	ctx, op := db.startOperation(ctx, cfg, "execute", "")
	n, err := db.run(ctx, cfg, op, cmd)
	op.end(n, err)
	return n, err
}

func (db *DB) run(ctx context.Context, cfg Config, op *operation, cmd *Command) (n int64, err error) {
	sess, err := db.acquire(ctx, cfg, cmd.traits())
	if err != nil {
		return 0, err
	}
	defer func() {
		err = multierr.Append(err, sess.release(err == nil, err))
	}()

	op.debug(cmd.Text, len(cmd.Parameters))
	var row *Record
	if cmd.hasRowOutputs() {
		row, n, err = firstRecord(ctx, sess.conn, cmd.Text, cmd.Args())
	} else {
		var res sql.Result
		if res, err = sess.conn.ExecContext(ctx, cmd.Text, cmd.Args()...); err == nil {
			n, err = res.RowsAffected()
		}
	}
	if err != nil {
		return 0, err
	}
	cmd.collectOutputs(row, n)
	if err := db.dereferenceCursors(ctx, sess.conn, cmd); err != nil {
		return n, err
	}
	return n, cmd.writeBack()
}

// firstRecord reads every row of a query and keeps the first as a Record.
func firstRecord(ctx context.Context, conn Conn, text string, args []any) (*Record, int64, error) {
	rows, err := conn.QueryContext(ctx, text, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	cols, err := rows.Columns()
	if err != nil {
		return nil, 0, err
	}
	var first *Record
	var n int64
	for rows.Next() {
		values, err := scanValues(rows, len(cols))
		if err != nil {
			return nil, n, err
		}
		if first == nil {
			first = &Record{names: cols, values: values}
		}
		n++
	}
	return first, n, rows.Err()
}

// dereferenceCursors replaces cursor names returned by a procedure with the
// rows they point to.
func (db *DB) dereferenceCursors(ctx context.Context, conn Conn, cmd *Command) error {
	for _, p := range cmd.Parameters {
		if !p.Cursor || p.Value == nil {
			continue
		}
		name, ok := p.Value.(string)
		if !ok {
			if b, isBytes := p.Value.([]byte); isBytes {
				name, ok = string(b), true
			}
		}
		if !ok {
			continue
		}
		text, supported := db.dialect.DereferenceCursor(name)
		if !supported {
			return opError("call", p.Name, fmt.Errorf("%w: cursors", ErrUnsupported))
		}
		rows, err := conn.QueryContext(ctx, text)
		if err != nil {
			return opError("call", p.Name, err)
		}
		mat := &materializer[*Record]{kind: rowRecord, typ: recordPtrType}
		records, err := newRows(ctx, rows, mat, func(bool, int64, error) error { return nil }).Collect()
		if err != nil {
			return opError("call", p.Name, err)
		}
		p.Value = records
	}
	return nil
}

// Call runs a stored procedure and returns its output values. Out, InOut and
// Return bags that are mutable receive the values too.
func (db *DB) Call(ctx context.Context, name string, bags Bags) (*Record, error) {
	cfg := db.config()
	b := newBinder(db.dialect, cfg.Contracts)
	if err := b.bind(nil, bags, KeysAll, nil); err != nil {
		return nil, err
	}
	cmd := b.command(db.dialect.BuildProcedureCall(name, b.procedureArgs()))
	cmd.ProcedureCall = true

	ctx, op := db.startOperation(ctx, cfg, "call", name)
	n, err := db.run(ctx, cfg, op, cmd)
	op.end(n, err)
	if err != nil {
		return nil, opError("call "+name, "", err)
	}
	return cmd.Outputs(), nil
}

// Scalar returns the first column of the first row, or nil when there is no row.
func (db *DB) Scalar(ctx context.Context, text string, args ...any) (any, error) {
	cmd, err := db.CreateCommand(text, args...)
	if err != nil {
		return nil, err
	}
	cfg := db.config()
	ctx, op := db.startOperation(ctx, cfg, "scalar", "")
	v, err := db.scalar(ctx, cfg, op, cmd)
	op.end(1, err)
	return v, err
}

func (db *DB) scalar(ctx context.Context, cfg Config, op *operation, cmd *Command) (v any, err error) {
	sess, err := db.acquire(ctx, cfg, cmd.traits())
	if err != nil {
		return nil, err
	}
	defer func() {
		err = multierr.Append(err, sess.release(err == nil, err))
	}()
	op.debug(cmd.Text, len(cmd.Parameters))
	return firstColumn(ctx, sess.conn, cmd.Text, cmd.Args())
}

// firstColumn returns the first column of the first row and stops reading
// there.
func firstColumn(ctx context.Context, conn Conn, text string, args []any) (any, error) {
	rows, err := conn.QueryContext(ctx, text, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	cols, err := rows.Columns()
	if err != nil || len(cols) == 0 {
		return nil, err
	}
	if !rows.Next() {
		return nil, rows.Err()
	}
	values, err := scanValues(rows, len(cols))
	if err != nil {
		return nil, err
	}
	return values[0], rows.Close()
}

// Query runs text and streams its rows as T.
func Query[T any](ctx context.Context, db *DB, text string, args ...any) (*Rows[T], error) {
	cmd, err := db.CreateCommand(text, args...)
	if err != nil {
		return nil, err
	}
	return QueryCommand[T](ctx, db, cmd)
}

// QueryCommand runs cmd and streams its rows as T.
func QueryCommand[T any](ctx context.Context, db *DB, cmd *Command) (*Rows[T], error) {
	return queryRows[T](ctx, db, db.config(), "query", "", cmd, 0)
}

// Single returns the first row of text, or ErrRecordNotFound.
func Single[T any](ctx context.Context, db *DB, text string, args ...any) (T, error) {
	var zero T
	cmd, err := db.CreateCommand(text, args...)
	if err != nil {
		return zero, err
	}
	rows, err := queryRows[T](ctx, db, db.config(), "single", "", cmd, 1)
	if err != nil {
		return zero, err
	}
	return first(rows)
}

func first[T any](rows *Rows[T]) (T, error) {
	var zero T
	defer rows.Close()
	if rows.Next() {
		row := rows.Row()
		return row, rows.Close()
	}
	if err := rows.Err(); err != nil {
		return zero, err
	}
	return zero, ErrRecordNotFound
}

// QueryMultiple runs text and walks its result sets.
func QueryMultiple[T any](ctx context.Context, db *DB, text string, args ...any) (*ResultSets[T], error) {
	cmd, err := db.CreateCommand(text, args...)
	if err != nil {
		return nil, err
	}
	cfg := db.config()
	mat, err := newMaterializer[T](cfg.Contracts)
	if err != nil {
		return nil, err
	}
	ctx, op := db.startOperation(ctx, cfg, "query_multiple", "")
	rows, release, err := db.open(ctx, cfg, op, cmd)
	if err != nil {
		return nil, err
	}
	return newResultSets(ctx, rows, mat, release), nil
}

func queryRows[T any](ctx context.Context, db *DB, cfg Config, name, resource string, cmd *Command, limit int) (*Rows[T], error) {
	mat, err := newMaterializer[T](cfg.Contracts)
	if err != nil {
		return nil, err
	}
	ctx, op := db.startOperation(ctx, cfg, name, resource)
	rows, release, err := db.open(ctx, cfg, op, cmd)
	if err != nil {
		return nil, err
	}
	r := newRows(ctx, rows, mat, release)
	r.limit = limit
	return r, nil
}

// open acquires a session and opens a cursor. The returned release ends the
// session and the operation; on error both are already ended.
func (db *DB) open(ctx context.Context, cfg Config, op *operation, cmd *Command) (*sql.Rows, releaseFunc, error) {
	sess, err := db.acquire(ctx, cfg, cmd.traits())
	if err != nil {
		op.end(0, err)
		return nil, nil, err
	}
	op.debug(cmd.Text, len(cmd.Parameters))
	rows, err := sess.conn.QueryContext(ctx, cmd.Text, cmd.Args()...)
	if err != nil {
		err = multierr.Append(err, sess.release(false, err))
		op.end(0, err)
		return nil, nil, err
	}
	release := func(consumed bool, n int64, cause error) error {
		relErr := sess.release(consumed, cause)
		if cause == nil {
			cause = relErr
		}
		op.end(n, cause)
		return relErr
	}
	return rows, release, nil
}
