package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/guillermoBallester/askdb/internal/core/domain"
	"github.com/guillermoBallester/askdb/internal/core/port"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestQueryService(exec *mockExecutor, hist *mockHistory, cfg QueryServiceConfig) *QueryService {
	gate := domain.NewGate(domain.GateConfig{MaxRows: 50})
	return NewQueryService(gate, exec, hist, testLogger(), cfg, nil, nil)
}

func TestQueryService_SelectGetsLimited(t *testing.T) {
	exec := &mockExecutor{
		result: &port.Result{
			Columns: []string{"id", "name"},
			Rows:    []map[string]any{{"id": 1, "name": "alice"}},
		},
	}
	hist := &mockHistory{}
	svc := newTestQueryService(exec, hist, QueryServiceConfig{})

	out, err := svc.Execute(context.Background(), "SELECT id, name FROM users;", false)
	require.NoError(t, err)
	assert.True(t, exec.executeCalled)
	assert.Equal(t, port.Statement{SQL: "SELECT id, name FROM users LIMIT 50;", ReadOnly: true}, exec.lastStmt)
	assert.True(t, out.Verdict.Limited)
	assert.False(t, out.Blocked())
	require.NotNil(t, out.Result)
	assert.Equal(t, "alice", out.Result.Rows[0]["name"])

	e := hist.last()
	assert.Equal(t, port.StatusOK, e.Status)
	assert.Equal(t, "READ_ONLY", e.Classification)
	assert.Equal(t, "PROCEED", e.Decision)
	assert.Equal(t, int64(1), e.Rows)
}

func TestQueryService_MutationBlockedUntilConfirmed(t *testing.T) {
	exec := &mockExecutor{result: &port.Result{RowsAffected: 1}}
	hist := &mockHistory{}
	svc := newTestQueryService(exec, hist, QueryServiceConfig{})
	const sql = "DELETE FROM orders WHERE id=1;"

	out, err := svc.Execute(context.Background(), sql, false)
	require.NoError(t, err)
	assert.True(t, out.Blocked())
	assert.Equal(t, domain.Mutating, out.Verdict.Classification)
	assert.Nil(t, out.Result)
	assert.False(t, exec.executeCalled, "executor must not run a blocked statement")
	assert.Equal(t, port.StatusBlocked, hist.last().Status)

	out, err = svc.Execute(context.Background(), sql, true)
	require.NoError(t, err)
	assert.False(t, out.Blocked())
	assert.Equal(t, port.Statement{SQL: sql, ReadOnly: false}, exec.lastStmt)
	assert.Equal(t, int64(1), out.Result.RowsAffected)

	e := hist.last()
	assert.Equal(t, port.StatusOK, e.Status)
	assert.True(t, e.Confirmed)
	assert.Equal(t, int64(1), e.Rows)
}

func TestQueryService_BlocksWithoutConfirmation(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want domain.Classification
	}{
		{"insert", "INSERT INTO users (name) VALUES ('bob')", domain.Mutating},
		{"update", "UPDATE users SET name = 'x'", domain.Mutating},
		{"drop", "DROP TABLE users", domain.DestructiveDDL},
		{"stacked", "SELECT 1; DROP TABLE users", domain.DestructiveDDL},
		{"unknown", "VACUUM users", domain.DestructiveDDL},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := &mockExecutor{}
			svc := newTestQueryService(exec, &mockHistory{}, QueryServiceConfig{})

			out, err := svc.Execute(context.Background(), tt.sql, false)
			require.NoError(t, err)
			assert.True(t, out.Blocked())
			assert.Equal(t, tt.want, out.Verdict.Classification)
			assert.Equal(t, tt.sql, out.Verdict.SQL)
			assert.False(t, exec.executeCalled)
		})
	}
}

func TestQueryService_ReadOnlyModeRefusesEvenWhenConfirmed(t *testing.T) {
	exec := &mockExecutor{}
	hist := &mockHistory{}
	svc := newTestQueryService(exec, hist, QueryServiceConfig{ReadOnly: true})

	for _, confirmed := range []bool{false, true} {
		_, err := svc.Execute(context.Background(), "DELETE FROM orders", confirmed)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrReadOnly)
	}
	assert.False(t, exec.executeCalled)
	assert.Equal(t, port.StatusError, hist.last().Status)

	_, err := svc.Execute(context.Background(), "SELECT 1", false)
	require.NoError(t, err)
	assert.True(t, exec.executeCalled)
}

func TestQueryService_ExecutorError(t *testing.T) {
	exec := &mockExecutor{err: fmt.Errorf("connection refused")}
	hist := &mockHistory{}
	inst := &spyInstrumentation{}
	svc := NewQueryService(domain.NewGate(domain.GateConfig{}), exec, hist, testLogger(), QueryServiceConfig{}, nil, inst)

	_, err := svc.Execute(context.Background(), "SELECT 1", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, 1, inst.errors)
	assert.Equal(t, 0, inst.queries)

	e := hist.last()
	assert.Equal(t, port.StatusError, e.Status)
	assert.Equal(t, "connection refused", e.Error)
}

func TestQueryService_EmptyQuery(t *testing.T) {
	exec := &mockExecutor{}
	hist := &mockHistory{}
	svc := newTestQueryService(exec, hist, QueryServiceConfig{})

	for _, sql := range []string{"", "   \n"} {
		_, err := svc.Execute(context.Background(), sql, true)
		assert.ErrorIs(t, err, domain.ErrEmptyQuery)
	}
	assert.False(t, exec.executeCalled)
	assert.Empty(t, hist.entries)
}

func TestQueryService_WithMasks(t *testing.T) {
	exec := &mockExecutor{
		result: &port.Result{
			Columns: []string{"id", "email", "name"},
			Rows: []map[string]any{
				{"id": 1, "email": "alice@example.com", "name": "Alice"},
				{"id": 2, "email": "bob@example.com", "name": "Bob"},
			},
		},
	}
	masks := domain.ColumnMasks{"email": domain.MaskRedact}
	svc := newTestQueryService(exec, &mockHistory{}, QueryServiceConfig{Masks: masks})

	out, err := svc.Execute(context.Background(), "SELECT id, email, name FROM users", false)
	require.NoError(t, err)
	rows := out.Result.Rows
	require.Len(t, rows, 2)
	assert.Equal(t, "***", rows[0]["email"])
	assert.Equal(t, "***", rows[1]["email"])
	assert.Equal(t, "Alice", rows[0]["name"])
}

func TestQueryService_NoMasks(t *testing.T) {
	exec := &mockExecutor{
		result: &port.Result{Rows: []map[string]any{{"id": 1, "email": "alice@example.com"}}},
	}
	svc := newTestQueryService(exec, &mockHistory{}, QueryServiceConfig{})

	out, err := svc.Execute(context.Background(), "SELECT id, email FROM users", false)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", out.Result.Rows[0]["email"])
}

func TestQueryService_RecordsDecisionsAndContext(t *testing.T) {
	exec := &mockExecutor{}
	hist := &mockHistory{}
	inst := &spyInstrumentation{}
	svc := NewQueryService(domain.NewGate(domain.GateConfig{}), exec, hist, testLogger(), QueryServiceConfig{}, nil, inst)

	ctx := WithQuestion(WithToolName(context.Background(), "query"), "delete order one")
	_, err := svc.Execute(ctx, "DELETE FROM orders WHERE id = 1", false)
	require.NoError(t, err)
	_, err = svc.Execute(ctx, "SELECT 1", false)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"MUTATING/BLOCK_PENDING_CONFIRMATION",
		"READ_ONLY/PROCEED",
	}, inst.decisions)
	assert.Equal(t, 1, inst.queries)

	e := hist.entries[0]
	assert.Equal(t, "query", e.Source)
	assert.Equal(t, "delete order one", e.Question)
	assert.False(t, e.Time.IsZero())
}

func TestQueryService_Explain(t *testing.T) {
	exec := &mockExecutor{plan: []map[string]any{{"QUERY PLAN": "Seq Scan on orders"}}}
	svc := newTestQueryService(exec, &mockHistory{}, QueryServiceConfig{})

	plan, err := svc.Explain(context.Background(), "SELECT * FROM orders")
	require.NoError(t, err)
	require.Len(t, plan, 1)
	assert.Equal(t, []string{"SELECT * FROM orders"}, exec.explainCalls)
	assert.False(t, exec.executeCalled)
}

func TestQueryService_ExplainRefusesNonReadOnly(t *testing.T) {
	exec := &mockExecutor{}
	svc := newTestQueryService(exec, &mockHistory{}, QueryServiceConfig{})

	_, err := svc.Explain(context.Background(), "DELETE FROM orders")
	assert.ErrorIs(t, err, domain.ErrExplainNotReadOnly)

	_, err = svc.Explain(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrEmptyQuery)
	assert.Empty(t, exec.explainCalls)
}

func TestQueryService_ExplainError(t *testing.T) {
	exec := &mockExecutor{explainErrs: []error{errors.New(`relation "nope" does not exist`)}}
	svc := newTestQueryService(exec, &mockHistory{}, QueryServiceConfig{})

	_, err := svc.Explain(context.Background(), "SELECT * FROM nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}
