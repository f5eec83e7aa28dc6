package mariadb

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/Aleph-Alpha/dbaccess/internal/sqltest"
	"github.com/Aleph-Alpha/dbaccess/v1/access"
)

type nopLogger struct{}

func (nopLogger) Info(string, error, ...map[string]interface{})  {}
func (nopLogger) Debug(string, error, ...map[string]interface{}) {}
func (nopLogger) Warn(string, error, ...map[string]interface{})  {}
func (nopLogger) Error(string, error, ...map[string]interface{}) {}

type order struct {
	ID     int64  `db:"id,pk,auto"`
	Status string `db:"status"`
}

func (order) TableName() string { return "orders" }

func newTestMariaDB(t *testing.T, h sqltest.Handler) (*MariaDB, *sqltest.Driver) {
	t.Helper()
	drv := sqltest.New(h)
	m, err := newMariaDB(Config{}, nopLogger{}, mysql.New(mysql.Config{
		Conn:                      drv.DB(),
		SkipInitializeWithVersion: true,
	}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.GracefulShutdown() })
	return m, drv
}

func TestDSN(t *testing.T) {
	dsn, err := DSN(Connection{
		Host:        "db",
		Port:        "3306",
		User:        "app",
		Password:    "p@ss:word",
		DbName:      "billing",
		ParseTime:   true,
		Loc:         "UTC",
		TLS:         "skip-verify",
		Timeout:     "5s",
		ReadTimeout: "30s",
	})
	require.NoError(t, err)

	parsed, err := mysqldriver.ParseDSN(dsn)
	require.NoError(t, err)
	assert.Equal(t, "app", parsed.User)
	assert.Equal(t, "p@ss:word", parsed.Passwd)
	assert.Equal(t, "tcp", parsed.Net)
	assert.Equal(t, "db:3306", parsed.Addr)
	assert.Equal(t, "billing", parsed.DBName)
	assert.True(t, parsed.ParseTime)
	assert.Equal(t, time.UTC, parsed.Loc)
	assert.Equal(t, "skip-verify", parsed.TLSConfig)
	assert.Equal(t, 5*time.Second, parsed.Timeout)
	assert.Equal(t, 30*time.Second, parsed.ReadTimeout)
	assert.Equal(t, "utf8mb4", parsed.Params["charset"])
}

func TestDSNErrors(t *testing.T) {
	_, err := DSN(Connection{Host: "db", Port: "3306", Loc: "Mars/Olympus"})
	assert.Error(t, err)

	_, err = DSN(Connection{Host: "db", Port: "3306", WriteTimeout: "soon"})
	assert.ErrorContains(t, err, "writeTimeout")
}

func TestInsertReadsLastInsertID(t *testing.T) {
	m, drv := newTestMariaDB(t, func(sqltest.Statement) sqltest.Response {
		return sqltest.Exec(1, 42)
	})
	assert.Equal(t, "mysql", m.Dialect().Name())

	db, err := m.Access()
	require.NoError(t, err)
	orders, err := access.NewTable[*order](db, access.TableConfig{})
	require.NoError(t, err)

	o := &order{Status: "new"}
	results, err := orders.Insert(context.Background(), o)
	require.NoError(t, err)
	assert.EqualValues(t, 42, o.ID)
	assert.True(t, results[0].InPlace)
	assert.Equal(t, []string{"INSERT INTO orders (status) VALUES (?)"}, drv.Queries())
}

func TestTransactionSharedWithAccess(t *testing.T) {
	m, drv := newTestMariaDB(t, func(sqltest.Statement) sqltest.Response {
		return sqltest.Exec(1, 0)
	})
	db, err := m.Access()
	require.NoError(t, err)

	err = m.Transaction(context.Background(), func(ctx context.Context, tx *gorm.DB) error {
		_, err := db.Execute(ctx, "UPDATE orders SET status = ?", "paid")
		return err
	})
	require.NoError(t, err)
	require.Len(t, drv.Statements(), 1)
	assert.True(t, drv.Statements()[0].InTx)
	assert.Equal(t, 1, drv.Stats().Committed)
}

func TestHealthLoops(t *testing.T) {
	m, drv := newTestMariaDB(t, nil)
	m.cfg.ConnectionDetails.HealthCheckInterval = 10 * time.Millisecond
	m.retryInterval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{}, 2)
	go func() { m.MonitorConnection(ctx); done <- struct{}{} }()
	go func() { m.RetryConnection(ctx); done <- struct{}{} }()

	drv.FailPing(errors.New("server has gone away"))
	assert.Eventually(t, func() bool { return !m.Healthy() }, time.Second, 5*time.Millisecond)
	drv.FailPing(nil)
	assert.Eventually(t, m.Healthy, time.Second, 5*time.Millisecond)

	cancel()
	for range 2 {
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("health loops did not stop")
		}
	}
}

func TestTranslateError(t *testing.T) {
	tests := []struct {
		err      error
		want     error
		category ErrorCategory
	}{
		{&mysqldriver.MySQLError{Number: 1062}, ErrDuplicateKey, CategoryConstraint},
		{&mysqldriver.MySQLError{Number: 1452}, ErrForeignKey, CategoryConstraint},
		{&mysqldriver.MySQLError{Number: 3819}, ErrCheckConstraint, CategoryConstraint},
		{&mysqldriver.MySQLError{Number: 1406}, ErrInvalidData, CategoryData},
		{&mysqldriver.MySQLError{Number: 1213}, ErrDeadlock, CategoryConcurrency},
		{&mysqldriver.MySQLError{Number: 1205}, ErrTimeout, CategoryTimeout},
		{&mysqldriver.MySQLError{Number: 1040}, ErrTooManyConnections, CategoryResource},
		{&mysqldriver.MySQLError{Number: 1045}, ErrPermission, CategoryPermission},
		{&mysqldriver.MySQLError{Number: 1146}, ErrUndefinedObject, CategorySchema},
		{&mysqldriver.MySQLError{Number: 1064}, ErrSyntax, CategorySchema},
		{mysqldriver.ErrInvalidConn, ErrConnection, CategoryConnection},
		{driver.ErrBadConn, ErrConnection, CategoryConnection},
		{gorm.ErrRecordNotFound, ErrRecordNotFound, CategoryNotFound},
		{gorm.ErrDuplicatedKey, ErrDuplicateKey, CategoryConstraint},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			wrapped := fmt.Errorf("orders: %w", tt.err)
			got := TranslateError(wrapped)
			assert.ErrorIs(t, got, tt.want)
			assert.ErrorIs(t, got, tt.err)
			assert.Equal(t, tt.category, GetErrorCategory(wrapped))
		})
	}

	unknown := &mysqldriver.MySQLError{Number: 9999}
	assert.Same(t, error(unknown), TranslateError(unknown))
	assert.NoError(t, TranslateError(nil))
}

func TestErrorPredicates(t *testing.T) {
	m := &MariaDB{}
	assert.True(t, m.IsRetryable(&mysqldriver.MySQLError{Number: 1213}))
	assert.False(t, m.IsRetryable(&mysqldriver.MySQLError{Number: 1062}))
	assert.True(t, m.IsTemporary(&mysqldriver.MySQLError{Number: 1205}))
	assert.True(t, m.IsCritical(&mysqldriver.MySQLError{Number: 1142}))
	assert.False(t, m.IsCritical(&mysqldriver.MySQLError{Number: 1062}))
	assert.Equal(t, CategoryConstraint, m.GetErrorCategory(&mysqldriver.MySQLError{Number: 1451}))
	assert.ErrorIs(t, m.TranslateError(&mysqldriver.MySQLError{Number: 1451}), ErrForeignKey)
}
