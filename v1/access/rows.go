package access

import (
	"context"
	"database/sql"
	"iter"
)

// releaseFunc ends the operation that produced a cursor. consumed is true
// when the cursor was read to the end without error.
type releaseFunc func(consumed bool, n int64, err error) error

// Rows is a lazy, forward-only sequence of materialized rows. It owns its
// cursor: call Close (or read to the end) to release the connection.
//
// Rows returned by ResultSets belong to their parent: they never close the
// cursor, and they end as soon as the parent moves to the next result set.
type Rows[T any] struct {
	ctx     context.Context
	rows    *sql.Rows
	mat     *materializer[T]
	plan    *rowPlan
	limit   int
	n       int64
	cur     T
	err     error
	started bool
	closed  bool

	release releaseFunc
	parent  interface{ innerFailed(error) }
}

func newRows[T any](ctx context.Context, rows *sql.Rows, mat *materializer[T], release releaseFunc) *Rows[T] {
	return &Rows[T]{ctx: ctx, rows: rows, mat: mat, release: release}
}

// Next advances to the next row. It returns false at the end of the result
// set, on error and after Close.
func (r *Rows[T]) Next() bool {
	r.started = true
	if r.closed {
		return false
	}
	if err := r.ctx.Err(); err != nil {
		r.fail(err)
		return false
	}
	if r.limit > 0 && r.n >= int64(r.limit) {
		r.finish(true, nil)
		return false
	}
	if !r.rows.Next() {
		if err := r.rows.Err(); err != nil {
			r.fail(err)
			return false
		}
		r.finish(true, nil)
		return false
	}
	if r.plan == nil {
		cols, err := r.rows.Columns()
		if err != nil {
			r.fail(err)
			return false
		}
		if r.plan, err = r.mat.plan(cols); err != nil {
			r.fail(err)
			return false
		}
	}
	values, err := scanValues(r.rows, len(r.plan.columns))
	if err != nil {
		r.fail(err)
		return false
	}
	row, err := r.mat.row(r.plan, values)
	if err != nil {
		r.fail(err)
		return false
	}
	r.cur = row
	r.n++
	return true
}

// Row returns the current row.
func (r *Rows[T]) Row() T { return r.cur }

// Err returns the error that ended iteration, if any.
func (r *Rows[T]) Err() error { return r.err }

// Count returns the number of rows read so far.
func (r *Rows[T]) Count() int64 { return r.n }

// Close releases the cursor. Closing before the end rolls back a local
// transaction opened for the command.
func (r *Rows[T]) Close() error {
	if r.closed {
		return nil
	}
	return r.finish(false, nil)
}

func (r *Rows[T]) fail(err error) {
	r.err = err
	r.finish(false, err)
	if r.parent != nil {
		r.parent.innerFailed(err)
	}
}

func (r *Rows[T]) finish(consumed bool, err error) error {
	r.closed = true
	if r.parent != nil {
		return nil
	}
	closeErr := r.rows.Close()
	if err == nil && consumed {
		err = closeErr
		consumed = closeErr == nil
	}
	relErr := r.release(consumed, r.n, err)
	if relErr != nil && r.err == nil {
		r.err = relErr
	}
	return relErr
}

// detach ends an inner sequence without touching the cursor.
func (r *Rows[T]) detach() { r.closed = true }

// All returns an iterator over the remaining rows that closes the cursor when
// the loop ends. A cursor can be iterated once.
func (r *Rows[T]) All() iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		if r.started {
			yield(zero, ErrCursorInUse)
			return
		}
		defer r.Close()
		for r.Next() {
			if !yield(r.cur, nil) {
				return
			}
		}
		if r.err != nil {
			yield(zero, r.err)
		}
	}
}

// Collect reads all rows and closes the cursor.
func (r *Rows[T]) Collect() ([]T, error) {
	var out []T
	for row, err := range r.All() {
		if err != nil {
			return out, err
		}
		out = append(out, row)
	}
	return out, nil
}
