// Package mariadb connects the data-access layer to MariaDB and MySQL.
//
// The provider builds the DSN with go-sql-driver/mysql, opens the pool
// through GORM and pairs it with the MySQL dialect: "?" placeholders and
// generated keys read from the driver's LastInsertId.
//
//	m, err := mariadb.NewMariaDB(mariadb.Config{
//		Connection: mariadb.Connection{
//			Host:      "localhost",
//			Port:      "3306",
//			User:      "app",
//			Password:  "secret",
//			DbName:    "billing",
//			ParseTime: true,
//		},
//	}, log)
//	if err != nil {
//		return err
//	}
//	db, err := m.Access()
//
// TranslateError maps server error numbers (1062 duplicate entry, 1452
// foreign key, 1213 deadlock, ...) to the same sentinels the postgres
// provider uses for constraint and not-found errors.
package mariadb
