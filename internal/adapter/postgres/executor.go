package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/guillermoBallester/askdb/internal/core/port"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Executor runs gated statements against PostgreSQL. Row capping is already
// part of the SQL it receives.
type Executor struct {
	pool         *pgxpool.Pool
	queryTimeout time.Duration
}

func NewExecutor(pool *pgxpool.Pool, queryTimeout time.Duration) *Executor {
	return &Executor{
		pool:         pool,
		queryTimeout: queryTimeout,
	}
}

func (e *Executor) Execute(ctx context.Context, stmt port.Statement) (*port.Result, error) {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	tx, err := e.begin(ctx, stmt.ReadOnly)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	res := &port.Result{}
	if stmt.ReadOnly {
		rows, err := tx.Query(ctx, stmt.SQL)
		if err != nil {
			return nil, fmt.Errorf("executing query: %w", err)
		}
		res.Columns, res.Rows, err = rowsToMaps(rows)
		rows.Close()
		if err != nil {
			return nil, err
		}
		res.RowsAffected = int64(len(res.Rows))
	} else {
		tag, err := tx.Exec(ctx, stmt.SQL)
		if err != nil {
			return nil, fmt.Errorf("executing statement: %w", err)
		}
		res.RowsAffected = tag.RowsAffected()
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}
	return res, nil
}

// Explain runs EXPLAIN inside a read-only transaction, so even a
// misclassified statement cannot write.
func (e *Executor) Explain(ctx context.Context, sql string) ([]map[string]any, error) {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	tx, err := e.begin(ctx, true)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, "EXPLAIN "+sql)
	if err != nil {
		return nil, fmt.Errorf("explaining query: %w", err)
	}
	defer rows.Close()

	_, plan, err := rowsToMaps(rows)
	return plan, err
}

// begin opens a transaction with the access mode for the statement and
// enforces the timeout server-side. SET LOCAL scopes to this transaction only.
func (e *Executor) begin(ctx context.Context, readOnly bool) (pgx.Tx, error) {
	tx, err := e.pool.BeginTx(ctx, pgx.TxOptions{AccessMode: accessMode(readOnly)})
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	if _, err := tx.Exec(ctx, timeoutSetting(e.queryTimeout.Milliseconds())); err != nil {
		_ = tx.Rollback(ctx)
		return nil, fmt.Errorf("setting statement timeout: %w", err)
	}
	return tx, nil
}

func (e *Executor) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.queryTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.queryTimeout)
}

func accessMode(readOnly bool) pgx.TxAccessMode {
	if readOnly {
		return pgx.ReadOnly
	}
	return pgx.ReadWrite
}
