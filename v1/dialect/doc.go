// Package dialect provides the provider-specific SQL synthesis used by the
// access core.
//
// A Dialect renders SELECT/INSERT/UPDATE/DELETE text from column lists and
// opaque WHERE/ORDER BY fragments, decides how parameters are spelled in
// statement text ($1, ?, @name), how a generated key is fetched in the same
// round trip as the INSERT, and reports capability flags the binder and the
// coordinator branch on.
//
// Three dialects ship with the package:
//
//   - Postgres: positional $n tokens, INSERT ... RETURNING, nextval('seq'),
//     refcursor-returning procedure calls need a wrapping transaction.
//   - MySQL (MariaDB): positional ? tokens, keys via the driver's LastInsertId.
//   - SQLServer: named @name tokens, output parameters, an appended
//     SELECT SCOPE_IDENTITY() in the same batch, OFFSET/FETCH paging.
//
// Statement text is assembled with Masterminds/squirrel using the Question
// placeholder format, which leaves the already-rendered tokens untouched.
//
// Example:
//
//	d := dialect.NewPostgres()
//	q, _ := d.BuildSelect(dialect.Select{
//	    Columns: "id, name",
//	    Table:   "users",
//	    Where:   "age > $1",
//	    OrderBy: "id",
//	    Limit:   10,
//	})
//	// SELECT id, name FROM users WHERE age > $1 ORDER BY id LIMIT 10
package dialect
