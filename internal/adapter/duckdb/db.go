// Package duckdb serves local analytical database files through the same
// executor and explorer ports as the PostgreSQL adapter.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/marcboeker/go-duckdb/v2"
)

// Scheme prefixes DATABASE_URL values that select this adapter.
const Scheme = "duckdb://"

func IsURL(databaseURL string) bool {
	return strings.HasPrefix(databaseURL, Scheme)
}

// Open opens the file named after the scheme. An empty path opens an
// in-memory database.
func Open(ctx context.Context, databaseURL string) (*sql.DB, error) {
	if !IsURL(databaseURL) {
		return nil, fmt.Errorf("duckdb URL must start with %q", Scheme)
	}
	path := strings.TrimPrefix(databaseURL, Scheme)

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping duckdb: %w", err)
	}
	return db, nil
}
