// Package postgres connects the data-access layer to PostgreSQL.
//
// The provider opens the connection pool through GORM, using the pgx stdlib
// driver by default or lib/pq when Config.Driver is "pq", applies the pool
// settings and hands the pool to the access package together with the
// PostgreSQL dialect. GORM stays available through DB() for migrations and
// model-centric code, and Transaction lets both share one transaction.
//
// Core Features:
//   - pgx or lib/pq driver selection
//   - Connection pool settings with sensible defaults
//   - Background health monitoring with logged recovery
//   - SQLSTATE based error translation for both drivers
//   - Transactions shared between GORM and the access layer
//   - fx module with lifecycle management
//
// Basic Usage:
//
//	pg, err := postgres.NewPostgres(postgres.Config{
//		Connection: postgres.Connection{
//			Host:     "localhost",
//			Port:     "5432",
//			User:     "app",
//			Password: "secret",
//			DbName:   "billing",
//			SSLMode:  "disable",
//		},
//	}, log)
//	if err != nil {
//		return err
//	}
//	defer pg.GracefulShutdown()
//
//	db, err := pg.Access(access.WithLogger(log))
//	if err != nil {
//		return err
//	}
//	users, err := access.NewTable[*User](db, access.TableConfig{})
//
// Error Handling:
//
// TranslateError keeps the driver error in the chain and adds one of the
// package sentinels, so callers can branch without knowing the driver:
//
//	if _, err := users.Insert(ctx, u); err != nil {
//		switch err = pg.TranslateError(err); {
//		case errors.Is(err, postgres.ErrDuplicateKey):
//			return ErrEmailTaken
//		case pg.IsRetryable(err):
//			return retry(ctx)
//		}
//		return err
//	}
//
// Shared Transactions:
//
//	err := pg.Transaction(ctx, func(ctx context.Context, tx *gorm.DB) error {
//		if err := tx.Create(&entry).Error; err != nil {
//			return err
//		}
//		_, err := users.Update(ctx, u) // same transaction
//		return err
//	})
//
// FX Integration:
//
//	app := fx.New(
//		logger.FXModule,
//		postgres.FXModule,
//		fx.Provide(func() postgres.Config { return cfg }),
//		fx.Provide(func(l *logger.Logger) postgres.Logger { return l }),
//	)
//
// Thread Safety:
//
// *Postgres and the *access.DB handles built from it are safe for concurrent use.
package postgres
