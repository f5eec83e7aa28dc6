package mariadb

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/Aleph-Alpha/dbaccess/v1/access"
)

// ErrNoTransactionConn is returned when GORM hands out a transaction that is
// not backed by a database/sql connection.
var ErrNoTransactionConn = errors.New("transaction is not backed by a database/sql connection")

// Transaction runs fn in one transaction shared by GORM and the access layer.
// Access operations called with the ctx passed to fn run on the transaction.
func (m *MariaDB) Transaction(ctx context.Context, fn func(ctx context.Context, tx *gorm.DB) error) error {
	return m.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		conn, ok := tx.Statement.ConnPool.(access.Conn)
		if !ok {
			return ErrNoTransactionConn
		}
		return fn(access.WithConn(ctx, conn), tx)
	})
}
