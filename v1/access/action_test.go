package access

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aleph-Alpha/dbaccess/v1/dialect"
	"github.com/Aleph-Alpha/dbaccess/v1/schema"
)

func TestSaveResolvesInsertOrUpdate(t *testing.T) {
	db, _ := newTestDB(t, dialect.NewPostgres(), nil)
	users := newUsers(t, db)

	cmd, action, err := users.Resolve(&user{Name: "A"}, Save)
	require.NoError(t, err)
	assert.Equal(t, Insert, action)
	assert.Equal(t, "INSERT INTO users (name,age) VALUES ($1,NULL) RETURNING id", cmd.Text)
	assert.Equal(t, []any{"A"}, cmd.Args())

	cmd, action, err = users.Resolve(&user{ID: 7, Name: "A", Age: intPtr(30)}, Save)
	require.NoError(t, err)
	assert.Equal(t, Update, action)
	assert.Equal(t, "UPDATE users SET name = $1, age = $2 WHERE id = $3", cmd.Text)
	require.Len(t, cmd.Args(), 3)
	assert.Equal(t, int64(7), cmd.Args()[2])
}

func TestSaveResolutionTable(t *testing.T) {
	db, _ := newTestDB(t, dialect.NewPostgres(), nil)
	members, err := NewTable[membership](db, TableConfig{})
	require.NoError(t, err)
	require.Equal(t, []string{"group_id", "user_id"}, members.PrimaryKey().Columns)
	require.False(t, members.PrimaryKey().Generated)

	tests := []struct {
		name    string
		item    any
		want    Action
		wantErr error
	}{
		{name: "all keys set", item: membership{GroupID: 1, UserID: 2}, want: Update},
		{name: "all keys default", item: membership{Role: "owner"}, want: Insert},
		{name: "mixed defaults", item: membership{GroupID: 1}, wantErr: ErrMixedDefaultKeys},
		{name: "no keys present", item: map[string]any{"role": "owner"}, want: Insert},
		{name: "partial keys", item: map[string]any{"group_id": 1, "role": "owner"}, wantErr: ErrPartialKey},
		{name: "all keys in map", item: map[string]any{"group_id": 1, "user_id": 2}, want: Update},
		{name: "keys by value", item: []any{1, 2}, want: Update},
		{name: "too few key values", item: 1, wantErr: ErrPartialKey},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, action, err := members.Resolve(tt.item, Save)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				var oe *OperationError
				require.True(t, errors.As(err, &oe))
				assert.Equal(t, "save", oe.Action)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, action)
		})
	}
}

func TestExplicitActionsKeepTheirKind(t *testing.T) {
	db, _ := newTestDB(t, dialect.NewPostgres(), nil)
	members, err := NewTable[membership](db, TableConfig{})
	require.NoError(t, err)

	cmd, action, err := members.Resolve(membership{Role: "owner"}, Insert)
	require.NoError(t, err)
	assert.Equal(t, Insert, action)
	assert.Equal(t, "INSERT INTO memberships (group_id,user_id,role) VALUES ($1,$2,$3)", cmd.Text)

	cmd, action, err = members.Resolve(membership{GroupID: 3, UserID: 4}, Delete)
	require.NoError(t, err)
	assert.Equal(t, Delete, action)
	assert.Equal(t, "DELETE FROM memberships WHERE group_id = $1 AND user_id = $2", cmd.Text)
	assert.Equal(t, []any{int64(3), int64(4)}, cmd.Args())

	_, _, err = members.Resolve(membership{GroupID: 3}, Update)
	require.ErrorIs(t, err, ErrMixedDefaultKeys)

	_, _, err = members.Resolve(membership{}, Action(42))
	require.ErrorIs(t, err, ErrUnknownAction)
}

func TestResolveValueOnlyKey(t *testing.T) {
	db, _ := newTestDB(t, dialect.NewPostgres(), nil)
	users := newUsers(t, db)

	cmd, action, err := users.Resolve(int64(9), Delete)
	require.NoError(t, err)
	assert.Equal(t, Delete, action)
	assert.Equal(t, "DELETE FROM users WHERE id = $1", cmd.Text)
	assert.Equal(t, []any{int64(9)}, cmd.Args())

	_, _, err = users.Resolve([]any{1, 2}, Delete)
	require.ErrorIs(t, err, ErrPartialKey)
}

func TestResolveConfigurationErrors(t *testing.T) {
	db, _ := newTestDB(t, dialect.NewPostgres(), nil)

	unbound, err := NewTable[*Record](db, TableConfig{})
	require.NoError(t, err)
	_, _, err = unbound.Resolve(NewRecord([]string{"a"}, []any{1}), Insert)
	require.ErrorIs(t, err, ErrNoTable)

	logs, err := NewTable[*Record](db, TableConfig{Name: "logs"})
	require.NoError(t, err)
	_, _, err = logs.Resolve(NewRecord([]string{"msg"}, []any{"x"}), Update)
	require.ErrorIs(t, err, ErrNoPrimaryKey)
	_, _, err = logs.Resolve(int64(1), Delete)
	require.ErrorIs(t, err, ErrNoPrimaryKey)

	_, err = NewTable[*Record](db, TableConfig{Name: "t", PrimaryKey: "a, b", KeyGeneration: KeyGenerationDatabase})
	require.ErrorIs(t, err, ErrCompoundGeneratedKey)

	_, err = NewTable[*Record](db, TableConfig{Name: "t", KeyGeneration: KeyGenerationDatabase})
	require.ErrorIs(t, err, ErrNoPrimaryKey)

	_, _, err = logs.Resolve(db.SQL(), Insert)
	require.ErrorIs(t, err, ErrConnectionAsParameter)
}

func TestInsertWithSequence(t *testing.T) {
	db, _ := newTestDB(t, dialect.NewPostgres(), nil)
	users, err := NewTable[*user](db, TableConfig{Sequence: "users_id_seq"})
	require.NoError(t, err)

	cmd, _, err := users.Resolve(&user{Name: "A"}, Insert)
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO users (name,age,id) VALUES ($1,NULL,nextval('users_id_seq')) RETURNING id", cmd.Text)
}

func TestSequenceRequiresSequenceDialect(t *testing.T) {
	db, _ := newTestDB(t, dialect.NewMySQL(), nil)
	_, err := NewTable[*user](db, TableConfig{Sequence: "users_id_seq"})
	require.ErrorIs(t, err, ErrUnsupported)

	mssql, _ := newTestDB(t, dialect.NewSQLServer(), nil)
	users, err := NewTable[*user](mssql, TableConfig{Sequence: "users_id_seq"})
	require.NoError(t, err)
	cmd, _, err := users.Resolve(&user{Name: "A"}, Insert)
	require.NoError(t, err)
	assert.Contains(t, cmd.Text, "NEXT VALUE FOR users_id_seq")
}

func TestInsertKeyRetrievalPerDialect(t *testing.T) {
	tests := []struct {
		d    dialect.Dialect
		want string
	}{
		{dialect.NewPostgres(), "INSERT INTO users (name,age) VALUES ($1,NULL) RETURNING id"},
		{dialect.NewMySQL(), "INSERT INTO users (name,age) VALUES (?,NULL)"},
		{dialect.NewSQLServer(), "INSERT INTO users (name,age) VALUES (@name,NULL); SELECT CAST(SCOPE_IDENTITY() AS BIGINT)"},
	}
	for _, tt := range tests {
		t.Run(tt.d.Name(), func(t *testing.T) {
			db, _ := newTestDB(t, tt.d, nil)
			cmd, _, err := newUsers(t, db).Resolve(&user{Name: "A"}, Insert)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cmd.Text)
		})
	}
}

func TestInsertWithoutKeyRetrieval(t *testing.T) {
	db, _ := newTestDB(t, dialect.NewPostgres(), nil, WithoutKeyRetrieval())
	cmd, _, err := newUsers(t, db).Resolve(&user{Name: "A"}, Insert)
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO users (name,age) VALUES ($1,NULL)", cmd.Text)
}

func TestNullKeyComparesWithIsNull(t *testing.T) {
	db, _ := newTestDB(t, dialect.NewPostgres(), nil)
	b := newBinder(db.Dialect(), db.config().Contracts)
	where, err := keyPredicate(b, []schema.Field{{Column: "a", Value: nil}, {Column: "b", Value: 1}}, nil, false)
	require.NoError(t, err)
	assert.Equal(t, "a IS NULL AND b = $1", where)
}

func TestKeyOnlyUpdateIsNoop(t *testing.T) {
	db, drv := newTestDB(t, dialect.NewPostgres(), nil)
	members, err := NewTable[map[string]any](db, TableConfig{Name: "memberships", PrimaryKey: "group_id,user_id"})
	require.NoError(t, err)

	for _, item := range []any{map[string]any{"group_id": 1, "user_id": 2}, []any{1, 2}} {
		cmd, action, err := members.Resolve(item, Save)
		require.NoError(t, err)
		assert.Equal(t, Update, action)
		assert.Empty(t, cmd.Text)
		assert.Empty(t, cmd.Parameters)
	}

	res, err := members.Save(context.Background(), map[string]any{"group_id": 1, "user_id": 2})
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, Update, res[0].Action)
	assert.Equal(t, int64(0), res[0].RowsAffected)
	assert.Empty(t, drv.Queries())
}

func TestUpdateBindsValuesBeforeKeys(t *testing.T) {
	db, _ := newTestDB(t, dialect.NewPostgres(), nil)
	members, err := NewTable[map[string]any](db, TableConfig{Name: "memberships", PrimaryKey: "group_id,user_id"})
	require.NoError(t, err)

	item := map[string]any{"user_id": 2, "role": "owner", "group_id": 1, "note": nil}
	cmd, action, err := members.Resolve(item, Update)
	require.NoError(t, err)
	require.Equal(t, Update, action)
	assert.Equal(t, "UPDATE memberships SET note = NULL, role = $1 WHERE group_id = $2 AND user_id = $3", cmd.Text)
	assert.Equal(t, []any{"owner", 1, 2}, cmd.Args())

	cmd, _, err = members.Resolve(item, Delete)
	require.NoError(t, err)
	assert.Equal(t, "DELETE FROM memberships WHERE group_id = $1 AND user_id = $2", cmd.Text)
	assert.Equal(t, []any{1, 2}, cmd.Args())
}

func TestKeyPredicateSkipsNonKeys(t *testing.T) {
	db, _ := newTestDB(t, dialect.NewPostgres(), nil)
	b := newBinder(db.Dialect(), db.config().Contracts)
	pk := &PrimaryKey{Columns: []string{"b", "c"}}
	fields := []schema.Field{{Column: "a", Value: nil}, {Column: "b", Value: 1}, {Column: "c", Value: nil}, {Column: "d", Value: 2}}

	where, err := keyPredicate(b, fields, pk, false)
	require.NoError(t, err)
	assert.Equal(t, "b = $1 AND c IS NULL", where)
	assert.Equal(t, []any{1}, b.command(where).Args())
}
