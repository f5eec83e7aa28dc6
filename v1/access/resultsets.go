package access

import (
	"context"
	"database/sql"
	"iter"
)

// ResultSets walks the result sets of one command. Exactly one inner Rows is
// live at a time: moving to the next result set ends the current inner
// sequence, discarding its unread rows. An ended inner sequence reports no
// more rows and no error.
//
//	sets, err := access.QueryMultiple[*access.Record](ctx, db, "SELECT 1 AS a; SELECT 2 AS b")
//	if err != nil {
//		return err
//	}
//	defer sets.Close()
//	for sets.NextResultSet() {
//		rows := sets.Rows()
//		for rows.Next() {
//			fmt.Println(rows.Row())
//		}
//	}
//	return sets.Err()
type ResultSets[T any] struct {
	ctx     context.Context
	rows    *sql.Rows
	mat     *materializer[T]
	release releaseFunc

	current *Rows[T]
	started bool
	closed  bool
	err     error
	n       int64
}

func newResultSets[T any](ctx context.Context, rows *sql.Rows, mat *materializer[T], release releaseFunc) *ResultSets[T] {
	return &ResultSets[T]{ctx: ctx, rows: rows, mat: mat, release: release}
}

// NextResultSet moves to the next result set. The first call selects the
// first one. It returns false when there are no more sets or on error.
func (m *ResultSets[T]) NextResultSet() bool {
	if m.closed {
		return false
	}
	if m.current != nil {
		m.n += m.current.n
		m.current.detach()
		m.current = nil
	}
	if err := m.ctx.Err(); err != nil {
		m.innerFailed(err)
		return false
	}
	if m.started {
		if !m.rows.NextResultSet() {
			if err := m.rows.Err(); err != nil {
				m.innerFailed(err)
				return false
			}
			m.finish(true, nil)
			return false
		}
	}
	m.started = true
	m.current = &Rows[T]{ctx: m.ctx, rows: m.rows, mat: m.mat, parent: m}
	return true
}

// Rows returns the current inner sequence, or nil before the first
// NextResultSet and after the last.
func (m *ResultSets[T]) Rows() *Rows[T] { return m.current }

// Err returns the error that ended iteration, if any.
func (m *ResultSets[T]) Err() error { return m.err }

// Close releases the cursor.
func (m *ResultSets[T]) Close() error {
	if m.closed {
		return nil
	}
	if m.current != nil {
		m.n += m.current.n
		m.current.detach()
		m.current = nil
	}
	return m.finish(false, nil)
}

func (m *ResultSets[T]) innerFailed(err error) {
	if m.closed {
		return
	}
	m.err = err
	if m.current != nil {
		m.n += m.current.n
		m.current.detach()
		m.current = nil
	}
	m.finish(false, err)
}

func (m *ResultSets[T]) finish(consumed bool, err error) error {
	m.closed = true
	closeErr := m.rows.Close()
	if err == nil && consumed {
		err = closeErr
		consumed = closeErr == nil
	}
	relErr := m.release(consumed, m.n, err)
	if relErr != nil && m.err == nil {
		m.err = relErr
	}
	return relErr
}

// All iterates the result sets, closing the cursor when the loop ends.
func (m *ResultSets[T]) All() iter.Seq2[*Rows[T], error] {
	return func(yield func(*Rows[T], error) bool) {
		if m.started {
			yield(nil, ErrCursorInUse)
			return
		}
		defer m.Close()
		for m.NextResultSet() {
			if !yield(m.current, nil) {
				return
			}
		}
		if m.err != nil {
			yield(nil, m.err)
		}
	}
}
