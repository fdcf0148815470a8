package duckdb

import (
	"database/sql"
	"time"

	"github.com/guillermoBallester/askdb/internal/adapter/sqldb"
)

// NewExecutor returns the shared database/sql executor with DuckDB's EXPLAIN.
// go-duckdb has no read-only transactions, so the gate's classification is
// the only guard on read-only statements.
func NewExecutor(db *sql.DB, queryTimeout time.Duration) *sqldb.Executor {
	return sqldb.NewExecutor(db, queryTimeout, "EXPLAIN ")
}
