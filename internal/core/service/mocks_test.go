package service

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/guillermoBallester/askdb/internal/core/domain"
	"github.com/guillermoBallester/askdb/internal/core/port"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- mock QueryExecutor ---

type mockExecutor struct {
	executeCalled bool
	lastStmt      port.Statement
	result        *port.Result
	err           error

	explainCalls []string
	explainErrs  []error // consumed in order; nil once exhausted
	plan         []map[string]any
}

func (m *mockExecutor) Execute(_ context.Context, stmt port.Statement) (*port.Result, error) {
	m.executeCalled = true
	m.lastStmt = stmt
	if m.err != nil {
		return nil, m.err
	}
	if m.result == nil {
		return &port.Result{}, nil
	}
	return m.result, nil
}

func (m *mockExecutor) Explain(_ context.Context, sql string) ([]map[string]any, error) {
	m.explainCalls = append(m.explainCalls, sql)
	if len(m.explainErrs) > 0 {
		err := m.explainErrs[0]
		m.explainErrs = m.explainErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	return m.plan, nil
}

// --- mock HistoryRecorder ---

type mockHistory struct {
	mu      sync.Mutex
	entries []port.HistoryEntry
}

func (m *mockHistory) Record(_ context.Context, e port.HistoryEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
}

func (m *mockHistory) Close() error { return nil }

func (m *mockHistory) last() port.HistoryEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries[len(m.entries)-1]
}

// --- spy Instrumentation ---

type spyInstrumentation struct {
	port.NoopInstrumentation
	decisions   []string
	queries     int
	errors      int
	generations []int
}

func (s *spyInstrumentation) RecordDecision(_ context.Context, c, d string) {
	s.decisions = append(s.decisions, c+"/"+d)
}
func (s *spyInstrumentation) IncrementQueryCount(context.Context)  { s.queries++ }
func (s *spyInstrumentation) IncrementQueryErrors(context.Context) { s.errors++ }
func (s *spyInstrumentation) RecordGeneration(_ context.Context, _ float64, attempts int) {
	s.generations = append(s.generations, attempts)
}

// --- mock SchemaExplorer ---

type mockExplorer struct {
	tables  []port.TableInfo
	details map[string]*port.TableDetail
	err     error
}

func (m *mockExplorer) ListTables(context.Context) ([]port.TableInfo, error) {
	return m.tables, m.err
}

func (m *mockExplorer) DescribeTable(_ context.Context, schema, name string) (*port.TableDetail, error) {
	d, ok := m.details[schema+"."+name]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return d, nil
}

func ordersExplorer() *mockExplorer {
	return &mockExplorer{
		tables: []port.TableInfo{
			{Schema: "public", Name: "orders", Type: "table"},
			{Schema: "public", Name: "suppliers", Type: "table"},
		},
		details: map[string]*port.TableDetail{
			"public.orders": {
				Schema:  "public",
				Name:    "orders",
				Comment: "customer orders",
				Columns: []port.ColumnInfo{
					{Name: "id", DataType: "integer"},
					{Name: "total", DataType: "numeric"},
				},
			},
			"public.suppliers": {
				Schema:  "public",
				Name:    "suppliers",
				Columns: []port.ColumnInfo{{Name: "name", DataType: "text"}},
			},
		},
	}
}

// --- mock Translator ---

type mockTranslator struct {
	responses []string
	err       error
	requests  []port.TranslateRequest
}

func (m *mockTranslator) Translate(_ context.Context, req port.TranslateRequest) (port.TranslateResult, error) {
	m.requests = append(m.requests, req)
	if m.err != nil {
		return port.TranslateResult{}, m.err
	}
	i := len(m.requests) - 1
	if i >= len(m.responses) {
		i = len(m.responses) - 1
	}
	return port.TranslateResult{SQL: m.responses[i], Provider: "openai", Model: "test-model"}, nil
}
