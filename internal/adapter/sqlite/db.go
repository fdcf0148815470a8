// Package sqlite serves SQLite database files through the same executor and
// explorer ports as the PostgreSQL adapter.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/guillermoBallester/askdb/internal/adapter/sqldb"
	_ "github.com/mattn/go-sqlite3"
)

// Scheme prefixes DATABASE_URL values that select this adapter.
const Scheme = "sqlite://"

// MainSchema is the name SQLite gives the primary database file.
const MainSchema = "main"

const busyTimeoutMillis = 5000

func IsURL(databaseURL string) bool {
	return strings.HasPrefix(databaseURL, Scheme)
}

// Open opens the file named after the scheme. The file must already exist;
// ":memory:" opens a private in-memory database.
func Open(ctx context.Context, databaseURL string) (*sql.DB, error) {
	if !IsURL(databaseURL) {
		return nil, fmt.Errorf("sqlite URL must start with %q", Scheme)
	}
	path := strings.TrimPrefix(databaseURL, Scheme)
	if path == "" {
		return nil, fmt.Errorf("sqlite URL needs a file path, e.g. %ssupply_chain.db", Scheme)
	}
	if path != ":memory:" {
		file, _, _ := strings.Cut(path, "?")
		if _, err := os.Stat(strings.TrimPrefix(file, "file:")); err != nil {
			return nil, fmt.Errorf("sqlite database file: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return db, nil
}

// dsn adds a busy timeout so a writer holding the file lock makes queries
// wait instead of failing with SQLITE_BUSY.
func dsn(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%s_busy_timeout=%d", path, sep, busyTimeoutMillis)
}

// NewExecutor returns the shared database/sql executor with SQLite's
// EXPLAIN QUERY PLAN. Like DuckDB, read-only statements rely on the gate's
// classification alone.
func NewExecutor(db *sql.DB, queryTimeout time.Duration) *sqldb.Executor {
	return sqldb.NewExecutor(db, queryTimeout, "EXPLAIN QUERY PLAN ")
}
