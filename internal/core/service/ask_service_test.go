package service

import (
	"context"
	"errors"
	"testing"

	"github.com/guillermoBallester/askdb/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAskService(tr *mockTranslator, exec *mockExecutor, inst *spyInstrumentation) *AskService {
	gate := domain.NewGate(domain.GateConfig{})
	return NewAskService(tr, NewExplorerService(ordersExplorer()), gate, exec, testLogger(), AskConfig{}, nil, inst)
}

func TestAskService_ValidFirstAttempt(t *testing.T) {
	t.Parallel()

	tr := &mockTranslator{responses: []string{"```sql\nSELECT * FROM orders\n```"}}
	exec := &mockExecutor{}
	inst := &spyInstrumentation{}
	svc := newTestAskService(tr, exec, inst)

	cand, err := svc.Generate(context.Background(), "show all orders")
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM orders", cand.SQL)
	assert.Equal(t, domain.ReadOnly, cand.Classification)
	assert.Equal(t, 1, cand.Attempts)
	assert.False(t, cand.Uncertain())
	assert.Equal(t, "test-model", cand.Model)
	assert.Equal(t, []string{"SELECT * FROM orders"}, exec.explainCalls)
	assert.Equal(t, []int{1}, inst.generations)

	require.Len(t, tr.requests, 1)
	assert.Equal(t, "show all orders", tr.requests[0].Question)
	assert.Contains(t, tr.requests[0].Schema, "TABLE public.orders COLUMNS: id integer, total numeric -- customer orders")
	assert.Empty(t, tr.requests[0].Feedback)
}

func TestAskService_RetriesWithFeedback(t *testing.T) {
	t.Parallel()

	tr := &mockTranslator{responses: []string{
		"SELECT * FROM order",
		"SELECT * FROM orders",
	}}
	exec := &mockExecutor{explainErrs: []error{errors.New(`relation "order" does not exist`)}}
	svc := newTestAskService(tr, exec, &spyInstrumentation{})

	cand, err := svc.Generate(context.Background(), "show all orders")
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM orders", cand.SQL)
	assert.Equal(t, 2, cand.Attempts)
	assert.False(t, cand.Uncertain())

	require.Len(t, tr.requests, 2)
	assert.Equal(t, `relation "order" does not exist`, tr.requests[1].Feedback)
}

func TestAskService_AttemptsExhausted(t *testing.T) {
	t.Parallel()

	bad := errors.New(`column "totl" does not exist`)
	tr := &mockTranslator{responses: []string{"SELECT totl FROM orders"}}
	exec := &mockExecutor{explainErrs: []error{bad, bad, bad}}
	svc := newTestAskService(tr, exec, &spyInstrumentation{})

	cand, err := svc.Generate(context.Background(), "total per order")
	require.NoError(t, err)
	assert.Equal(t, "SELECT totl FROM orders", cand.SQL)
	assert.Equal(t, DefaultMaxAttempts, cand.Attempts)
	assert.True(t, cand.Uncertain())
	assert.Equal(t, bad.Error(), cand.ValidationError)
	assert.Len(t, tr.requests, DefaultMaxAttempts)
}

func TestAskService_MutationSkipsValidation(t *testing.T) {
	t.Parallel()

	tr := &mockTranslator{responses: []string{"DELETE FROM orders WHERE id = 1;"}}
	exec := &mockExecutor{}
	svc := newTestAskService(tr, exec, &spyInstrumentation{})

	cand, err := svc.Generate(context.Background(), "delete order 1")
	require.NoError(t, err)
	assert.Equal(t, domain.Mutating, cand.Classification)
	assert.Empty(t, exec.explainCalls)
	assert.Equal(t, 1, cand.Attempts)
}

func TestAskService_EmptyResponses(t *testing.T) {
	t.Parallel()

	tr := &mockTranslator{responses: []string{"```\n```", "  ", "sql"}}
	svc := newTestAskService(tr, &mockExecutor{}, &spyInstrumentation{})

	_, err := svc.Generate(context.Background(), "anything")
	assert.ErrorIs(t, err, domain.ErrNoSQLGenerated)
	require.Len(t, tr.requests, 3)
	assert.Equal(t, "empty response", tr.requests[1].Feedback)
}

func TestAskService_EmptyQuestion(t *testing.T) {
	t.Parallel()

	tr := &mockTranslator{responses: []string{"SELECT 1"}}
	svc := newTestAskService(tr, &mockExecutor{}, &spyInstrumentation{})

	_, err := svc.Generate(context.Background(), "   ")
	assert.ErrorIs(t, err, domain.ErrEmptyQuestion)
	assert.Empty(t, tr.requests)
}

func TestAskService_TranslatorErrorAborts(t *testing.T) {
	t.Parallel()

	tr := &mockTranslator{err: errors.New("llm status 500")}
	svc := newTestAskService(tr, &mockExecutor{}, &spyInstrumentation{})

	_, err := svc.Generate(context.Background(), "show orders")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "llm status 500")
	assert.Len(t, tr.requests, 1)
}

func TestAskService_SchemaError(t *testing.T) {
	t.Parallel()

	tr := &mockTranslator{responses: []string{"SELECT 1"}}
	explorer := NewExplorerService(&mockExplorer{err: errors.New("catalog unavailable")})
	svc := NewAskService(tr, explorer, domain.NewGate(domain.GateConfig{}), &mockExecutor{}, testLogger(), AskConfig{MaxAttempts: 1}, nil, nil)

	_, err := svc.Generate(context.Background(), "show orders")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "catalog unavailable")
	assert.Empty(t, tr.requests)
}

func TestCleanSQL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "SELECT 1", "SELECT 1"},
		{"fenced", "```sql\nSELECT 1;\n```", "SELECT 1;"},
		{"bare fence", "```\nSELECT 1\n```", "SELECT 1"},
		{"dialect line", "postgresql\nSELECT 1", "SELECT 1"},
		{"dialect case", "SQL\nSELECT 1", "SELECT 1"},
		{"only dialect", "sql", ""},
		{"whitespace", "  \n SELECT 1 \n ", "SELECT 1"},
		{"keeps multiline", "SELECT a\nFROM t", "SELECT a\nFROM t"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, CleanSQL(tt.in))
		})
	}
}
