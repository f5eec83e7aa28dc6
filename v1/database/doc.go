// Package database selects a SQL provider from configuration and hands out
// data-access handles on it.
//
// The Client interface is implemented by:
//   - postgres.Postgres (*Postgres)
//   - mariadb.MariaDB (*MariaDB)
//
// # Usage
//
// Applications depend on database.Client, or only on the *access.DB it
// produces, and pick the server through Config:
//
//	client, err := database.NewClient(database.PostgresConfig(pgCfg), log)
//	if err != nil {
//	    return err
//	}
//	defer client.GracefulShutdown()
//
//	db, err := database.NewAccess(client, cfg)
//	if err != nil {
//	    return err
//	}
//	users, err := access.NewTable[*User](db, access.TableConfig{})
//
// With fx, database.FXModule provides both Client and *access.DB and runs
// the health loops of the client.
//
// # Shared transactions
//
// Client.Transaction opens one transaction for GORM and the access layer:
//
//	err := client.Transaction(ctx, func(ctx context.Context, tx *gorm.DB) error {
//	    if err := tx.Create(&audit).Error; err != nil {
//	        return err
//	    }
//	    _, err := users.Update(ctx, u)
//	    return err
//	})
//
// # Errors
//
// ErrRecordNotFound, ErrDuplicateKey, ErrForeignKey, ErrCheckConstraint and
// ErrInvalidData are the same values in postgres, mariadb and this package.
// After Client.TranslateError, errors.Is checks against them work whichever
// server is configured. Categories beyond these are provider specific.
//
// # Database-Specific Behavior
//
// Generated keys come back through RETURNING on PostgreSQL and through the
// driver's last insert id on MariaDB/MySQL. Paging uses LIMIT/OFFSET on both.
package database
