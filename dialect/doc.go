// Package dialect provides the database abstraction structcol executes
// against.
//
// The Driver interface wraps statement execution, querying and transactions
// for a specific database backend; dialect/sql implements it on top of
// database/sql for PostgreSQL, MySQL and SQLite.
//
// Each dialect is identified by a constant string:
//
//	dialect.Postgres = "postgres"
//	dialect.MySQL    = "mysql"
//	dialect.SQLite   = "sqlite"
//
// Opening a connection:
//
//	import (
//	    "github.com/syssam/structcol/dialect"
//	    "github.com/syssam/structcol/dialect/sql"
//	)
//
//	drv, err := sql.Open(dialect.Postgres, "postgres://...")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer drv.Close()
//
// Wrap a driver with Debug to log every statement through log/slog, or with
// sql.NewStatsDriver to collect execution statistics and detect slow queries.
package dialect
