package duckdb

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func TestExplain(t *testing.T) {
	t.Parallel()
	db, mock := newSQLMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("EXPLAIN SELECT * FROM orders")).
		WillReturnRows(sqlmock.NewRows([]string{"explain_key", "explain_value"}).
			AddRow("physical_plan", "SEQ_SCAN orders"))

	plan, err := NewExecutor(db, time.Second).Explain(context.Background(), "SELECT * FROM orders")
	require.NoError(t, err)
	require.Len(t, plan, 1)
	assert.Equal(t, "SEQ_SCAN orders", plan[0]["explain_value"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIsURL(t *testing.T) {
	t.Parallel()
	assert.True(t, IsURL("duckdb://supply_chain.duckdb"))
	assert.True(t, IsURL("duckdb://"))
	assert.False(t, IsURL("postgres://localhost/db"))
	assert.False(t, IsURL("sqlite://chinook.db"))
}

func TestOpenRejectsOtherSchemes(t *testing.T) {
	t.Parallel()
	_, err := Open(context.Background(), "postgres://localhost/db")
	require.Error(t, err)
}
