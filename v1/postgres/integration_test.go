//go:build integration

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/go-connections/nat"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"gorm.io/gorm"

	"github.com/Aleph-Alpha/dbaccess/v1/access"
)

type account struct {
	ID    int64  `db:"id,pk,auto"`
	Email string `db:"email"`
	Name  string `db:"name"`
}

func (account) TableName() string { return "accounts" }

// setupPostgresContainer starts PostgreSQL 15 and returns a Config pointing at it.
func setupPostgresContainer(t *testing.T, ctx context.Context) Config {
	t.Helper()

	port, err := getFreePort()
	require.NoError(t, err)
	portStr := fmt.Sprintf("%d", port)

	req := testcontainers.ContainerRequest{
		Image: "postgres:15",
		Env: map[string]string{
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
			"POSTGRES_DB":       "testdb",
		},
		ExposedPorts: []string{"5432/tcp"},
		HostConfigModifier: func(cfg *container.HostConfig) {
			cfg.PortBindings = nat.PortMap{
				"5432/tcp": []nat.PortBinding{{HostPort: portStr}},
			}
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	pgContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pgContainer.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	mappedPort, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	cfg := Config{
		Connection: Connection{
			Host:     host,
			Port:     mappedPort.Port(),
			User:     "testuser",
			Password: "testpass",
			DbName:   "testdb",
			SSLMode:  "disable",
		},
	}
	require.NoError(t, waitForPostgresReady(DSN(cfg.Connection), 30*time.Second))
	return cfg
}

func waitForPostgresReady(dsn string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		db, err := sql.Open("postgres", dsn)
		if err == nil {
			err = db.Ping()
			_ = db.Close()
			if err == nil {
				return nil
			}
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("postgres not ready after %s: %w", timeout, err)
		}
		time.Sleep(500 * time.Millisecond)
	}
}

func getFreePort() (int, error) {
	l, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

func TestPostgresRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	ctx := context.Background()
	base := setupPostgresContainer(t, ctx)

	for _, driverName := range []string{DriverPgx, DriverPq} {
		t.Run(driverName, func(t *testing.T) {
			cfg := base
			cfg.Driver = driverName

			var pg *Postgres
			app := fxtest.New(t,
				fx.Provide(
					func() Config { return cfg },
					func() Logger { return nopLogger{} },
				),
				FXModule,
				fx.Populate(&pg),
			)
			app.RequireStart()
			defer app.RequireStop()

			require.NoError(t, pg.DB().Exec(`DROP TABLE IF EXISTS accounts`).Error)
			require.NoError(t, pg.DB().Exec(`CREATE TABLE accounts (
				id    SERIAL PRIMARY KEY,
				email TEXT NOT NULL UNIQUE,
				name  TEXT NOT NULL
			)`).Error)

			db, err := pg.Access()
			require.NoError(t, err)
			accounts, err := access.NewTable[*account](db, access.TableConfig{})
			require.NoError(t, err)

			// Insert reads the generated key back in the same statement.
			items := []*account{
				{Email: "ada@example.com", Name: "Ada"},
				{Email: "grace@example.com", Name: "Grace"},
				{Email: "linus@example.com", Name: "Linus"},
			}
			results, err := accounts.Insert(ctx, items...)
			require.NoError(t, err)
			for i, r := range results {
				assert.True(t, r.HasKey)
				assert.True(t, r.InPlace)
				assert.Equal(t, r.Key, items[i].ID)
			}

			got, err := accounts.Get(ctx, items[0].ID)
			require.NoError(t, err)
			assert.Equal(t, "Ada", got.Name)

			// Save updates items that already carry a key.
			items[1].Name = "Grace Hopper"
			results, err = accounts.Save(ctx, items[1])
			require.NoError(t, err)
			assert.Equal(t, access.Update, results[0].Action)
			assert.EqualValues(t, 1, results[0].RowsAffected)

			page, err := accounts.Paged(ctx, access.PageQuery{OrderBy: "id", PageSize: 2, CurrentPage: 2})
			require.NoError(t, err)
			assert.EqualValues(t, 3, page.TotalRecords)
			assert.EqualValues(t, 2, page.TotalPages)
			require.Len(t, page.Items, 1)
			assert.Equal(t, "Linus", page.Items[0].Name)

			_, err = accounts.Insert(ctx, &account{Email: "ada@example.com", Name: "Impostor"})
			require.Error(t, err)
			assert.ErrorIs(t, pg.TranslateError(err), ErrDuplicateKey)

			// A shared transaction rolls back both GORM and access writes.
			err = pg.Transaction(ctx, func(ctx context.Context, tx *gorm.DB) error {
				if err := tx.Exec(`UPDATE accounts SET name = 'x'`).Error; err != nil {
					return err
				}
				if _, err := accounts.DeleteByKey(ctx, items[2].ID); err != nil {
					return err
				}
				return errors.New("abort")
			})
			require.Error(t, err)
			n, err := accounts.Count(ctx, "name <> $1", "x")
			require.NoError(t, err)
			assert.EqualValues(t, 3, n)

			deleted, err := accounts.Delete(ctx, items[2])
			require.NoError(t, err)
			assert.EqualValues(t, 1, deleted[0].RowsAffected)
			_, err = accounts.Get(ctx, items[2].ID)
			assert.ErrorIs(t, err, access.ErrRecordNotFound)
		})
	}
}
