package access

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/multierr"

	"github.com/Aleph-Alpha/dbaccess/v1/dialect"
)

type connKey struct{}

// WithConn returns a context whose operations run on c. The caller keeps
// ownership: c is never closed and no local transaction is opened on it.
func WithConn(ctx context.Context, c Conn) context.Context {
	return context.WithValue(ctx, connKey{}, c)
}

// ConnFrom returns the connection installed by WithConn or Transaction.
func ConnFrom(ctx context.Context) (Conn, bool) {
	c, ok := ctx.Value(connKey{}).(Conn)
	return c, ok && c != nil
}

// session is the connection an operation runs on. Private sessions own a
// pooled connection and, when the dialect asks for it, a local transaction.
type session struct {
	conn    Conn
	private *sql.Conn
	tx      *sql.Tx
	logger  Logger
}

func (db *DB) acquire(ctx context.Context, cfg Config, traits dialect.CommandTraits) (*session, error) {
	if c, ok := ConnFrom(ctx); ok {
		return &session{conn: c, logger: cfg.Logger}, nil
	}
	c, err := db.pool.Conn(ctx)
	if err != nil {
		return nil, err
	}
	s := &session{conn: c, private: c, logger: cfg.Logger}
	if db.dialect.RequiresWrappingTransaction(traits) {
		tx, err := c.BeginTx(ctx, nil)
		if err != nil {
			_ = c.Close()
			return nil, err
		}
		s.tx, s.conn = tx, tx
	}
	return s, nil
}

// external reports whether the session runs on a caller-owned connection.
func (s *session) external() bool { return s.private == nil }

// release commits a local transaction when the work completed, otherwise rolls
// it back, and returns a private connection to the pool.
func (s *session) release(completed bool, cause error) error {
	var err error
	if s.tx != nil {
		if completed && cause == nil {
			if cerr := s.tx.Commit(); cerr != nil {
				s.logger.Error("failed to commit local transaction", cerr)
				err = multierr.Append(err, cerr)
			}
		} else {
			s.logger.Warn("rolling back local transaction", cause)
			if rerr := s.tx.Rollback(); rerr != nil && !errors.Is(rerr, sql.ErrTxDone) {
				err = multierr.Append(err, rerr)
			}
		}
		s.tx = nil
	}
	if s.private != nil {
		err = multierr.Append(err, s.private.Close())
		s.private = nil
	}
	return err
}

// Transaction runs fn in a transaction. Operations that use the context passed
// to fn join it. When ctx already carries a connection, fn joins that one.
func (db *DB) Transaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := ConnFrom(ctx); ok {
		return fn(ctx)
	}
	tx, err := db.pool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()
	if err := fn(WithConn(ctx, tx)); err != nil {
		if rerr := tx.Rollback(); rerr != nil && !errors.Is(rerr, sql.ErrTxDone) {
			return multierr.Append(err, rerr)
		}
		return err
	}
	return tx.Commit()
}
