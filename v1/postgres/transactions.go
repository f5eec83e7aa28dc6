package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/Aleph-Alpha/dbaccess/v1/access"
)

// ErrNoTransactionConn is returned when GORM hands out a transaction that is
// not backed by a database/sql connection, e.g. with PrepareStmt enabled.
var ErrNoTransactionConn = errors.New("transaction is not backed by a database/sql connection")

// Transaction runs fn in one database transaction shared by GORM and the
// access layer: tx is the GORM handle, and every access operation called with
// the ctx passed to fn runs on the same connection. The transaction commits
// when fn returns nil and rolls back otherwise.
//
//	err := pg.Transaction(ctx, func(ctx context.Context, tx *gorm.DB) error {
//	    if err := tx.Create(&audit).Error; err != nil {
//	        return err
//	    }
//	    _, err := users.Update(ctx, user)
//	    return err
//	})
func (p *Postgres) Transaction(ctx context.Context, fn func(ctx context.Context, tx *gorm.DB) error) error {
	return p.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		conn, ok := tx.Statement.ConnPool.(access.Conn)
		if !ok {
			return ErrNoTransactionConn
		}
		return fn(access.WithConn(ctx, conn), tx)
	})
}
