// Package access is a data-access layer on top of database/sql.
//
// It adds four things to a plain *sql.DB:
//
//   - Parameter binding. Positional arguments and named, directional parameter
//     bags (In, Out, InOut, ReturnValue) are bound according to the capabilities
//     of the configured dialect.
//   - Row materialization. Rows[T] yields either dynamic *Record rows (ordered
//     name/value pairs) or typed rows mapped through a schema.Contract. The
//     column mapping is computed once per result set.
//   - Action resolution. Table[T].Save decides between INSERT and UPDATE from the
//     primary-key fields an item carries; generated keys come back in the same
//     round trip and are written back into the item.
//   - Streaming and paging. Cursors are lazy and owned by the returned Rows or
//     ResultSets; Paged issues a COUNT and a windowed SELECT.
//
// Basic usage:
//
//	db := access.New(sqlDB, dialect.NewPostgres())
//
//	users, err := access.NewTable[*User](db, access.TableConfig{Name: "users", PrimaryKey: "id"})
//
//	u := &User{Name: "Ada"}
//	res, err := users.Save(ctx, u) // INSERT ... RETURNING id; u.ID is set
//
//	rows, err := users.Query(ctx, access.TableQuery{Where: "name = $1", Args: []any{"Ada"}})
//	if err != nil {
//		return err
//	}
//	defer rows.Close()
//	for rows.Next() {
//		fmt.Println(rows.Row().ID)
//	}
//	return rows.Err()
//
// Dynamic rows:
//
//	rows, err := access.Query[*access.Record](ctx, db, "SELECT id, name FROM users")
//	records, err := rows.Collect()
//	name, _ := records[0].Get("name")
//
// Transactions:
//
//	err := db.Transaction(ctx, func(ctx context.Context) error {
//		if _, err := users.Save(ctx, u); err != nil {
//			return err
//		}
//		_, err := db.Execute(ctx, "UPDATE stats SET users = users + 1")
//		return err
//	})
//
// Operations inside the callback join the transaction through ctx. WithConn
// does the same for any caller-owned *sql.Conn or *sql.Tx; caller-owned
// connections are never closed by this package.
//
// Configuration defaults (validator, schema provider, observer, logger, tracer)
// are read from Defaults at the start of every operation. SetDefaults is meant
// to be called once during startup.
package access
