// Package sqltest is an in-memory database/sql driver for unit tests.
//
// Every statement is handed to a Handler which decides the response; the
// driver records statements, arguments and transaction activity so tests can
// assert on exactly what was sent.
package sqltest

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"reflect"
	"sync"

	"github.com/Aleph-Alpha/dbaccess/v1/schema"
)

// Kind tells whether a statement arrived through Query or Exec.
type Kind string

const (
	KindQuery Kind = "query"
	KindExec  Kind = "exec"
)

// Statement is one recorded statement.
type Statement struct {
	Kind  Kind
	Query string
	Args  []driver.NamedValue
	InTx  bool
	Conn  int
}

// Values returns the argument values in binding order.
func (s Statement) Values() []any {
	out := make([]any, len(s.Args))
	for i, a := range s.Args {
		out[i] = a.Value
	}
	return out
}

// Set is one result set.
type Set struct {
	Columns []string
	Rows    [][]driver.Value
}

// Response is what a Handler returns for a statement.
type Response struct {
	Sets         []Set
	RowsAffected int64
	LastInsertID int64

	// Out holds values written to sql.Out arguments, keyed by argument name.
	Out map[string]any

	Err error
}

// Handler answers statements.
type Handler func(Statement) Response

// Rows is a one-set Response.
func Rows(columns []string, rows ...[]driver.Value) Response {
	return Response{Sets: []Set{{Columns: columns, Rows: rows}}}
}

// Exec is a Response for a statement returning no rows.
func Exec(rowsAffected, lastInsertID int64) Response {
	return Response{RowsAffected: rowsAffected, LastInsertID: lastInsertID}
}

// Stats counts driver-level activity.
type Stats struct {
	Opened     int
	Closed     int
	Begun      int
	Committed  int
	RolledBack int
	RowsClosed int
	RowsRead   int
}

// Driver is the in-memory driver. Use DB to obtain a *sql.DB backed by it.
type Driver struct {
	mu         sync.Mutex
	handler    Handler
	statements []Statement
	stats      Stats
	pingErr    error
}

// New creates a Driver answering with h. A nil h answers every statement with
// an empty Response.
func New(h Handler) *Driver {
	if h == nil {
		h = func(Statement) Response { return Response{} }
	}
	return &Driver{handler: h}
}

// DB opens a *sql.DB on the driver.
func (d *Driver) DB() *sql.DB {
	return sql.OpenDB(&connector{d: d})
}

// Statements returns the statements recorded so far.
func (d *Driver) Statements() []Statement {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Statement(nil), d.statements...)
}

// Queries returns the text of the statements recorded so far.
func (d *Driver) Queries() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.statements))
	for i, s := range d.statements {
		out[i] = s.Query
	}
	return out
}

// Stats returns a snapshot of driver activity.
func (d *Driver) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

func (d *Driver) handle(st Statement) Response {
	d.mu.Lock()
	d.statements = append(d.statements, st)
	h := d.handler
	d.mu.Unlock()
	return h(st)
}

// FailPing makes every later Ping return err; nil restores success.
func (d *Driver) FailPing(err error) {
	d.mu.Lock()
	d.pingErr = err
	d.mu.Unlock()
}

func (d *Driver) count(f func(*Stats)) {
	d.mu.Lock()
	f(&d.stats)
	d.mu.Unlock()
}

type connector struct {
	d *Driver
}

func (c *connector) Connect(context.Context) (driver.Conn, error) {
	var id int
	c.d.count(func(s *Stats) {
		s.Opened++
		id = s.Opened
	})
	return &conn{d: c.d, id: id}, nil
}

func (c *connector) Driver() driver.Driver { return fakeDriver{} }

type fakeDriver struct{}

func (fakeDriver) Open(string) (driver.Conn, error) {
	return nil, errors.New("sqltest: use sql.OpenDB with the connector")
}

type conn struct {
	d    *Driver
	id   int
	inTx bool
}

func (c *conn) Prepare(string) (driver.Stmt, error) { return nil, driver.ErrSkip }

func (c *conn) Ping(context.Context) error {
	c.d.mu.Lock()
	defer c.d.mu.Unlock()
	return c.d.pingErr
}

func (c *conn) Close() error {
	c.d.count(func(s *Stats) { s.Closed++ })
	return nil
}

func (c *conn) Begin() (driver.Tx, error) {
	return c.BeginTx(context.Background(), driver.TxOptions{})
}

func (c *conn) BeginTx(context.Context, driver.TxOptions) (driver.Tx, error) {
	if c.inTx {
		return nil, errors.New("sqltest: transaction already open")
	}
	c.inTx = true
	c.d.count(func(s *Stats) { s.Begun++ })
	return &tx{c: c}, nil
}

// CheckNamedValue accepts sql.Out and defers everything else to the default converter.
func (c *conn) CheckNamedValue(nv *driver.NamedValue) error {
	if _, ok := nv.Value.(sql.Out); ok {
		return nil
	}
	return driver.ErrSkip
}

func (c *conn) statement(kind Kind, query string, args []driver.NamedValue) Statement {
	return Statement{
		Kind:  kind,
		Query: query,
		Args:  append([]driver.NamedValue(nil), args...),
		InTx:  c.inTx,
		Conn:  c.id,
	}
}

func (c *conn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resp := c.d.handle(c.statement(KindQuery, query, args))
	if resp.Err != nil {
		return nil, resp.Err
	}
	if err := writeOut(args, resp.Out); err != nil {
		return nil, err
	}
	return &rows{d: c.d, sets: resp.Sets}, nil
}

func (c *conn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resp := c.d.handle(c.statement(KindExec, query, args))
	if resp.Err != nil {
		return nil, resp.Err
	}
	if err := writeOut(args, resp.Out); err != nil {
		return nil, err
	}
	return result{affected: resp.RowsAffected, lastID: resp.LastInsertID}, nil
}

func writeOut(args []driver.NamedValue, values map[string]any) error {
	for _, a := range args {
		out, ok := a.Value.(sql.Out)
		if !ok {
			continue
		}
		v, ok := values[a.Name]
		if !ok {
			continue
		}
		dest := reflect.ValueOf(out.Dest)
		if dest.Kind() != reflect.Pointer || dest.IsNil() {
			return fmt.Errorf("sqltest: sql.Out %q needs a non-nil pointer", a.Name)
		}
		if err := schema.Assign(dest.Elem(), v); err != nil {
			return fmt.Errorf("sqltest: write %q: %w", a.Name, err)
		}
	}
	return nil
}

type tx struct {
	c *conn
}

func (t *tx) Commit() error {
	t.c.inTx = false
	t.c.d.count(func(s *Stats) { s.Committed++ })
	return nil
}

func (t *tx) Rollback() error {
	t.c.inTx = false
	t.c.d.count(func(s *Stats) { s.RolledBack++ })
	return nil
}

type result struct {
	affected int64
	lastID   int64
}

func (r result) LastInsertId() (int64, error) { return r.lastID, nil }
func (r result) RowsAffected() (int64, error) { return r.affected, nil }

type rows struct {
	d    *Driver
	sets []Set
	set  int
	i    int
}

func (r *rows) current() Set {
	if r.set < len(r.sets) {
		return r.sets[r.set]
	}
	return Set{}
}

func (r *rows) Columns() []string {
	return append([]string(nil), r.current().Columns...)
}

func (r *rows) Close() error {
	r.d.count(func(s *Stats) { s.RowsClosed++ })
	return nil
}

func (r *rows) Next(dest []driver.Value) error {
	cur := r.current()
	if r.i >= len(cur.Rows) {
		return io.EOF
	}
	row := cur.Rows[r.i]
	for i := range dest {
		if i < len(row) {
			dest[i] = row[i]
		} else {
			dest[i] = nil
		}
	}
	r.i++
	r.d.count(func(s *Stats) { s.RowsRead++ })
	return nil
}

func (r *rows) HasNextResultSet() bool { return r.set+1 < len(r.sets) }

func (r *rows) NextResultSet() error {
	if !r.HasNextResultSet() {
		return io.EOF
	}
	r.set++
	r.i = 0
	return nil
}

var (
	_ driver.QueryerContext    = (*conn)(nil)
	_ driver.ExecerContext     = (*conn)(nil)
	_ driver.ConnBeginTx       = (*conn)(nil)
	_ driver.NamedValueChecker = (*conn)(nil)
	_ driver.RowsNextResultSet = (*rows)(nil)
)
