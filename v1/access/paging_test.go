package access

import (
	"context"
	"database/sql/driver"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aleph-Alpha/dbaccess/internal/sqltest"
	"github.com/Aleph-Alpha/dbaccess/v1/dialect"
)

// pagedUsers serves a table of total rows to COUNT and LIMIT/OFFSET queries.
func pagedUsers(total int) sqltest.Handler {
	return func(st sqltest.Statement) sqltest.Response {
		if strings.HasPrefix(st.Query, "SELECT COUNT(*)") {
			return sqltest.Rows([]string{"count"}, []driver.Value{int64(total)})
		}
		var limit, offset int
		if i := strings.Index(st.Query, " LIMIT "); i >= 0 {
			parseInts(st.Query[i:], &limit, &offset)
		}
		rows := userRows(total)
		if offset > len(rows) {
			offset = len(rows)
		}
		rows = rows[offset:]
		if limit > 0 && limit < len(rows) {
			rows = rows[:limit]
		}
		return sqltest.Rows([]string{"id", "name"}, rows...)
	}
}

func parseInts(s string, limit, offset *int) {
	fields := strings.Fields(s)
	for i := 0; i+1 < len(fields); i++ {
		var target *int
		switch fields[i] {
		case "LIMIT":
			target = limit
		case "OFFSET":
			target = offset
		default:
			continue
		}
		n := 0
		for _, c := range fields[i+1] {
			n = n*10 + int(c-'0')
		}
		*target = n
	}
}

func TestPagedTotals(t *testing.T) {
	db, drv := newTestDB(t, dialect.NewPostgres(), pagedUsers(45))
	users := newUsers(t, db)

	page, err := users.Paged(context.Background(), PageQuery{OrderBy: "id", PageSize: 20, CurrentPage: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(45), page.TotalRecords)
	assert.Equal(t, int64(3), page.TotalPages)
	assert.Equal(t, 2, page.CurrentPage)
	require.Len(t, page.Items, 20)
	assert.Equal(t, int64(21), page.Items[0].ID)

	assert.ElementsMatch(t, []string{
		"SELECT COUNT(*) FROM users",
		"SELECT * FROM users ORDER BY id LIMIT 20 OFFSET 20",
	}, drv.Queries())
	assert.Equal(t, 0, db.SQL().Stats().InUse)

	last, err := users.Paged(context.Background(), PageQuery{OrderBy: "id", PageSize: 20, CurrentPage: 3})
	require.NoError(t, err)
	assert.Len(t, last.Items, 5)
}

func TestPagedDefaultsAndErrors(t *testing.T) {
	db, drv := newTestDB(t, dialect.NewPostgres(), pagedUsers(3))
	ctx := context.Background()

	page, err := Paged[*Record](ctx, db, "users", PageQuery{Where: "name = $1", Args: []any{"user"}})
	require.NoError(t, err)
	assert.Equal(t, DefaultPageSize, page.PageSize)
	assert.Equal(t, 1, page.CurrentPage)
	assert.Equal(t, int64(1), page.TotalPages)
	assert.Len(t, page.Items, 3)
	for _, st := range drv.Statements() {
		assert.Equal(t, []any{"user"}, st.Values())
	}

	_, err = Paged[*Record](ctx, db, "users", PageQuery{PageSize: -1})
	require.ErrorIs(t, err, dialect.ErrInvalidPage)

	empty, err := NewTable[*Record](db, TableConfig{})
	require.NoError(t, err)
	_, err = empty.Paged(ctx, PageQuery{})
	require.ErrorIs(t, err, ErrNoTable)
}

func TestPagedOnExternalConnectionRunsSequentially(t *testing.T) {
	db, drv := newTestDB(t, dialect.NewPostgres(), pagedUsers(45))
	ctx := context.Background()

	err := db.Transaction(ctx, func(ctx context.Context) error {
		page, err := Paged[user](ctx, db, "users", PageQuery{OrderBy: "id", PageSize: 10, CurrentPage: 5})
		if err != nil {
			return err
		}
		assert.Len(t, page.Items, 5)
		assert.Equal(t, int64(5), page.TotalPages)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"SELECT COUNT(*) FROM users",
		"SELECT * FROM users ORDER BY id LIMIT 10 OFFSET 40",
	}, drv.Queries())
	for _, st := range drv.Statements() {
		assert.True(t, st.InTx)
	}
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, int64(0), totalPages(0, 20))
	assert.Equal(t, int64(1), totalPages(20, 20))
	assert.Equal(t, int64(3), totalPages(41, 20))
}
