// Package sqldb holds the database/sql plumbing shared by the file-backed
// adapters: statement execution, row scanning and column naming.
package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/guillermoBallester/askdb/internal/core/port"
)

// Executor runs gated statements on a database/sql handle. Read-only
// statements run outside a transaction because neither DuckDB nor SQLite
// drivers offer a read-only mode that rejects writes; mutations run inside
// one.
type Executor struct {
	db            *sql.DB
	queryTimeout  time.Duration
	explainPrefix string
}

// NewExecutor returns an Executor whose Explain prepends explainPrefix to the
// statement, e.g. "EXPLAIN " or "EXPLAIN QUERY PLAN ".
func NewExecutor(db *sql.DB, queryTimeout time.Duration, explainPrefix string) *Executor {
	return &Executor{db: db, queryTimeout: queryTimeout, explainPrefix: explainPrefix}
}

func (e *Executor) Execute(ctx context.Context, stmt port.Statement) (*port.Result, error) {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	if stmt.ReadOnly {
		rows, err := e.db.QueryContext(ctx, stmt.SQL)
		if err != nil {
			return nil, fmt.Errorf("execute query: %w", err)
		}
		defer func() { _ = rows.Close() }()

		columns, data, err := ScanMaps(rows)
		if err != nil {
			return nil, err
		}
		return &port.Result{Columns: columns, Rows: data, RowsAffected: int64(len(data))}, nil
	}

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, stmt.SQL)
	if err != nil {
		return nil, fmt.Errorf("execute statement: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return &port.Result{RowsAffected: affected}, nil
}

func (e *Executor) Explain(ctx context.Context, sql string) ([]map[string]any, error) {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	rows, err := e.db.QueryContext(ctx, e.explainPrefix+sql)
	if err != nil {
		return nil, fmt.Errorf("explain query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	_, plan, err := ScanMaps(rows)
	return plan, err
}

func (e *Executor) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.queryTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.queryTimeout)
}
