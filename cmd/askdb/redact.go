package main

import (
	"net/url"

	"github.com/guillermoBallester/askdb/internal/adapter/duckdb"
	"github.com/guillermoBallester/askdb/internal/adapter/sqlite"
)

// redactDSN masks the password of a connection URL for logging. DuckDB and
// SQLite URLs name a local file and are returned as is.
func redactDSN(dsn string) string {
	if duckdb.IsURL(dsn) || sqlite.IsURL(dsn) {
		return dsn
	}
	u, err := url.Parse(dsn)
	if err != nil {
		return "***"
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "***")
	}
	return u.String()
}
