// Package schema maps in-memory items to database columns.
//
// A Contract is resolved once per item type through a Provider and answers the
// questions the access layer asks while binding parameters and materializing
// rows: which column a field is stored in, which field a result column fills,
// which fields an item currently carries and what a column's default is.
//
// Two providers are included:
//
//   - Mapper, built on the sqlx reflectx package. Columns come from `db` struct
//     tags, falling back to a name function (lower-case by default). The tag
//     options "pk" and "auto" mark primary-key and generated columns.
//   - GormProvider, built on gorm.io/gorm/schema. Models annotated for GORM are
//     reused as-is: table name, column names, primary key, auto-increment and
//     default values all come from the parsed GORM schema.
//
// A Mapper model:
//
//	type User struct {
//		ID   int64  `db:"id,pk,auto"`
//		Name string `db:"name"`
//	}
//
// Maps with string keys and NamedValues implementations (such as access.Record)
// are enumerated by key; their keys are used as column names. Scalars and []any
// are value-only items, mapped positionally onto a primary key by the caller.
package schema
