package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const testSchema = `
	CREATE TABLE suppliers (
		id   SERIAL PRIMARY KEY,
		name TEXT NOT NULL
	);
	COMMENT ON TABLE suppliers IS 'Parts suppliers';

	CREATE TABLE orders (
		id          SERIAL PRIMARY KEY,
		supplier_id INTEGER NOT NULL REFERENCES suppliers(id),
		qty         INTEGER NOT NULL DEFAULT 1,
		note        TEXT
	);
	COMMENT ON COLUMN orders.qty IS 'Units ordered';

	CREATE SCHEMA archive;
	CREATE TABLE archive.orders (id INTEGER PRIMARY KEY);

	INSERT INTO suppliers (name) VALUES ('Acme'), ('Globex');
	INSERT INTO orders (supplier_id, qty)
	SELECT (i % 2) + 1, i FROM generate_series(1, 10) AS i;
`

func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("testdb"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	_, err = pool.Exec(ctx, testSchema)
	require.NoError(t, err)

	_, err = pool.Exec(ctx, "ANALYZE")
	require.NoError(t, err)

	return pool
}
