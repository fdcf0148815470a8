package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/guillermoBallester/askdb/internal/core/domain"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/marcboeker/go-duckdb/v2"
	"github.com/mattn/go-sqlite3"
)

// Errors whose message is safe and useful to show a client verbatim.
var clientErrors = []error{
	domain.ErrEmptyQuery,
	domain.ErrEmptyQuestion,
	domain.ErrReadOnly,
	domain.ErrExplainNotReadOnly,
	domain.ErrNotFound,
	domain.ErrNoSQLGenerated,
}

// SQLSTATE classes the caller can fix by rewriting the statement: data
// exceptions, integrity violations, syntax and undefined objects.
var clientSQLStateClasses = map[string]bool{
	"22": true,
	"23": true,
	"42": true,
}

const pgQueryCanceled = "57014"

// DuckDB error types that describe the statement rather than the server.
var clientDuckDBErrorTypes = map[duckdb.ErrorType]bool{
	duckdb.ErrorTypeParser:       true,
	duckdb.ErrorTypeBinder:       true,
	duckdb.ErrorTypeCatalog:      true,
	duckdb.ErrorTypeConversion:   true,
	duckdb.ErrorTypeConstraint:   true,
	duckdb.ErrorTypeInvalidInput: true,
}

// SQLite result codes for statement faults: SQLITE_ERROR covers syntax
// errors and unknown tables or columns.
var clientSQLiteCodes = map[sqlite3.ErrNo]bool{
	sqlite3.ErrError:      true,
	sqlite3.ErrConstraint: true,
	sqlite3.ErrMismatch:   true,
	sqlite3.ErrRange:      true,
}

// sanitizeError maps err to a message for the MCP client. Anything not known
// to be safe is logged and replaced with a generic message.
func sanitizeError(logger *slog.Logger, err error, op string) string {
	for _, target := range clientErrors {
		if errors.Is(err, target) {
			return err.Error()
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return "query timed out"
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == pgQueryCanceled {
			return "query timed out"
		}
		if len(pgErr.Code) == 5 && clientSQLStateClasses[pgErr.Code[:2]] {
			return fmt.Sprintf("database error: %s (SQLSTATE %s)", pgErr.Message, pgErr.Code)
		}
	}

	var duckErr *duckdb.Error
	if errors.As(err, &duckErr) {
		if duckErr.Type == duckdb.ErrorTypeInterrupt {
			return "query timed out"
		}
		if clientDuckDBErrorTypes[duckErr.Type] {
			return "database error: " + duckErr.Msg
		}
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		if liteErr.Code == sqlite3.ErrInterrupt {
			return "query timed out"
		}
		if clientSQLiteCodes[liteErr.Code] {
			return "database error: " + liteErr.Error()
		}
	}

	logger.Error(op+" failed",
		slog.String("error.type", fmt.Sprintf("%T", err)),
		slog.String("error.message", err.Error()),
	)
	return fmt.Sprintf("internal error during %s; check server logs for details", op)
}
