package access

import (
	"database/sql/driver"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Aleph-Alpha/dbaccess/internal/sqltest"
	"github.com/Aleph-Alpha/dbaccess/v1/dialect"
	"github.com/Aleph-Alpha/dbaccess/v1/observability"
)

type user struct {
	ID   int64  `db:"id,pk,auto"`
	Name string `db:"name"`
	Age  *int   `db:"age"`
}

func (user) TableName() string { return "users" }

type membership struct {
	GroupID int64  `db:"group_id,pk"`
	UserID  int64  `db:"user_id,pk"`
	Role    string `db:"role"`
}

func (membership) TableName() string { return "memberships" }

func newTestDB(t *testing.T, d dialect.Dialect, h sqltest.Handler, opts ...Option) (*DB, *sqltest.Driver) {
	t.Helper()
	drv := sqltest.New(h)
	pool := drv.DB()
	t.Cleanup(func() { _ = pool.Close() })
	return New(pool, d, opts...), drv
}

func newUsers(t *testing.T, db *DB) *Table[*user] {
	t.Helper()
	users, err := NewTable[*user](db, TableConfig{})
	require.NoError(t, err)
	return users
}

// routes answers statements by the first prefix of their text that matches.
func routes(r map[string]sqltest.Response) sqltest.Handler {
	return func(st sqltest.Statement) sqltest.Response {
		best := ""
		for prefix := range r {
			if strings.HasPrefix(st.Query, prefix) && len(prefix) > len(best) {
				best = prefix
			}
		}
		if best == "" {
			return sqltest.Response{}
		}
		return r[best]
	}
}

func userRows(n int) [][]driver.Value {
	rows := make([][]driver.Value, n)
	for i := range rows {
		rows[i] = []driver.Value{int64(i + 1), "user"}
	}
	return rows
}

type recordingObserver struct {
	mu  sync.Mutex
	ops []observability.OperationContext
}

func (o *recordingObserver) ObserveOperation(ctx observability.OperationContext) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.ops = append(o.ops, ctx)
}

func (o *recordingObserver) operations() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]string, len(o.ops))
	for i, op := range o.ops {
		out[i] = op.Operation
	}
	return out
}

func intPtr(v int) *int { return &v }
