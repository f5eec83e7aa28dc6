package access

import (
	"context"
	"database/sql"
)

// Logger is the logging contract of this package; *logger.Logger satisfies it.
//
//go:generate mockgen -source=interface.go -destination=mock_logger.go -package=access -exclude_interfaces=Conn,Validator
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Debug(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
}

// Conn is the subset of *sql.DB, *sql.Conn and *sql.Tx the package executes on.
type Conn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Validator checks items before a write. Problems are passed to report; an
// item with at least one reported error fails validation.
type Validator interface {
	ValidateForAction(ctx context.Context, action Action, item any, report func(error))
}

// ValidatorFunc adapts a function to Validator.
type ValidatorFunc func(ctx context.Context, action Action, item any, report func(error))

func (f ValidatorFunc) ValidateForAction(ctx context.Context, action Action, item any, report func(error)) {
	f(ctx, action, item, report)
}

// ActionFilter is consulted before validation; returning false skips the item.
type ActionFilter func(ctx context.Context, action Action, item any) bool

type nopLogger struct{}

func (nopLogger) Info(string, error, ...map[string]interface{})  {}
func (nopLogger) Debug(string, error, ...map[string]interface{}) {}
func (nopLogger) Warn(string, error, ...map[string]interface{})  {}
func (nopLogger) Error(string, error, ...map[string]interface{}) {}

var (
	_ Conn = (*sql.DB)(nil)
	_ Conn = (*sql.Conn)(nil)
	_ Conn = (*sql.Tx)(nil)
)
