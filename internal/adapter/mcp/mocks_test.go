package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/guillermoBallester/askdb/internal/core/domain"
	"github.com/guillermoBallester/askdb/internal/core/port"
	"github.com/guillermoBallester/askdb/internal/core/service"
	"github.com/guillermoBallester/askdb/internal/history"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- mock SchemaExplorer ---

type mockExplorer struct {
	tables []port.TableInfo
	detail *port.TableDetail
	err    error
}

func (m *mockExplorer) ListTables(context.Context) ([]port.TableInfo, error) {
	return m.tables, m.err
}

func (m *mockExplorer) DescribeTable(_ context.Context, _, name string) (*port.TableDetail, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.detail == nil || m.detail.Name != name {
		return nil, fmt.Errorf("table %q %w", name, domain.ErrNotFound)
	}
	return m.detail, nil
}

// --- mock QueryExecutor ---

type mockExecutor struct {
	result  *port.Result
	plan    []map[string]any
	err     error
	stmts   []port.Statement
	explain []string
}

func (m *mockExecutor) Execute(_ context.Context, stmt port.Statement) (*port.Result, error) {
	m.stmts = append(m.stmts, stmt)
	if m.err != nil {
		return nil, m.err
	}
	if !stmt.ReadOnly {
		return &port.Result{RowsAffected: 1}, nil
	}
	return m.result, nil
}

func (m *mockExecutor) Explain(_ context.Context, sql string) ([]map[string]any, error) {
	m.explain = append(m.explain, sql)
	return m.plan, m.err
}

// --- mock Translator ---

type mockTranslator struct {
	sql string
	err error
}

func (m *mockTranslator) Translate(context.Context, port.TranslateRequest) (port.TranslateResult, error) {
	return port.TranslateResult{SQL: m.sql, Provider: "openai", Model: "test-model"}, m.err
}

// --- helpers ---

type fixture struct {
	explorer *mockExplorer
	executor *mockExecutor
	history  *history.Memory
	server   *server.MCPServer
}

type fixtureOption func(*fixtureConfig)

type fixtureConfig struct {
	readOnly   bool
	translator port.Translator
}

func withReadOnly() fixtureOption {
	return func(c *fixtureConfig) { c.readOnly = true }
}

func withTranslator(tr port.Translator) fixtureOption {
	return func(c *fixtureConfig) { c.translator = tr }
}

func newFixture(explorer *mockExplorer, executor *mockExecutor, opts ...fixtureOption) *fixture {
	var cfg fixtureConfig
	for _, o := range opts {
		o(&cfg)
	}

	logger := testLogger()
	gate := domain.NewGate(domain.GateConfig{MaxRows: 100})
	mem := history.NewMemory(10)

	svc := Services{
		Explorer: service.NewExplorerService(explorer),
		Query:    service.NewQueryService(gate, executor, mem, logger, service.QueryServiceConfig{ReadOnly: cfg.readOnly}, nil, nil),
	}
	if cfg.translator != nil {
		svc.Ask = service.NewAskService(cfg.translator, svc.Explorer, gate, executor, logger, service.AskConfig{}, nil, nil)
	}

	s := server.NewMCPServer("test", "0.1.0", server.WithToolCapabilities(true))
	RegisterTools(s, svc, logger)
	return &fixture{explorer: explorer, executor: executor, history: mem, server: s}
}

var sessionCounter atomic.Int64

// rpc sends one JSON-RPC request on a fresh, initialized in-process session.
func rpc(t *testing.T, s *server.MCPServer, method string, params map[string]any) json.RawMessage {
	t.Helper()
	ctx := context.Background()
	session := server.NewInProcessSession(fmt.Sprintf("test-%d", sessionCounter.Add(1)), nil)
	require.NoError(t, s.RegisterSession(ctx, session))
	sessionCtx := s.WithContext(ctx, session)

	initBytes, _ := json.Marshal(map[string]any{
		"jsonrpc": "2.0", "id": "init", "method": "initialize",
		"params": map[string]any{
			"protocolVersion": "2025-03-26",
			"capabilities":    map[string]any{},
			"clientInfo":      map[string]any{"name": "test", "version": "1.0"},
		},
	})
	s.HandleMessage(sessionCtx, initBytes)

	reqBytes, _ := json.Marshal(map[string]any{
		"jsonrpc": "2.0", "id": "call-1", "method": method, "params": params,
	})
	resp := s.HandleMessage(sessionCtx, reqBytes)
	respBytes, _ := json.Marshal(resp)

	var out struct {
		Result json.RawMessage           `json:"result"`
		Error  *struct{ Message string } `json:"error,omitempty"`
	}
	require.NoError(t, json.Unmarshal(respBytes, &out))
	require.Nil(t, out.Error, "unexpected RPC error: %v", out.Error)
	return out.Result
}

func callTool(t *testing.T, s *server.MCPServer, toolName string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	raw := rpc(t, s, "tools/call", map[string]any{"name": toolName, "arguments": args})

	var result mcp.CallToolResult
	require.NoError(t, json.Unmarshal(raw, &result))
	return &result
}

func toolNames(t *testing.T, s *server.MCPServer) []string {
	t.Helper()
	raw := rpc(t, s, "tools/list", map[string]any{})

	var list struct {
		Tools []struct {
			Name string `json:"name"`
		} `json:"tools"`
	}
	require.NoError(t, json.Unmarshal(raw, &list))
	names := make([]string, 0, len(list.Tools))
	for _, tool := range list.Tools {
		names = append(names, tool.Name)
	}
	return names
}

func toolText(result *mcp.CallToolResult) string {
	if len(result.Content) == 0 {
		return ""
	}
	tc, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		return ""
	}
	return tc.Text
}
