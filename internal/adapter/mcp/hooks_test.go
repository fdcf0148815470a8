package mcp

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/guillermoBallester/askdb/internal/core/port"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

type toolDurationSpy struct {
	port.NoopInstrumentation
	mu    sync.Mutex
	calls int
}

func (s *toolDurationSpy) RecordToolDuration(context.Context, float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
}

func newHookedServer(t *testing.T, buf *bytes.Buffer) (*server.MCPServer, *tracetest.InMemoryExporter, *toolDurationSpy) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	logger := slog.New(slog.NewJSONHandler(buf, nil))
	spy := &toolDurationSpy{}
	s := server.NewMCPServer("test", "0.1.0",
		server.WithToolCapabilities(true),
		server.WithHooks(ToolCallHooks(logger, tp.Tracer("test"), spy)),
	)
	s.AddTool(mcp.NewTool("ok_tool"), func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText("fine"), nil
	})
	s.AddTool(mcp.NewTool("bad_tool"), func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultError("nope"), nil
	})
	return s, exporter, spy
}

func TestToolCallHooks_Success(t *testing.T) {
	var buf bytes.Buffer
	s, exporter, spy := newHookedServer(t, &buf)

	result := callTool(t, s, "ok_tool", nil)
	require.False(t, result.IsError)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "mcp.tool.call", spans[0].Name)
	assert.Equal(t, codes.Unset, spans[0].Status.Code)
	assert.Equal(t, 1, spy.calls)

	assert.Contains(t, buf.String(), `"mcp.tool":"ok_tool"`)
	assert.Contains(t, buf.String(), `"level":"INFO"`)
}

func TestToolCallHooks_ToolError(t *testing.T) {
	var buf bytes.Buffer
	s, exporter, spy := newHookedServer(t, &buf)

	result := callTool(t, s, "bad_tool", nil)
	require.True(t, result.IsError)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Equal(t, 1, spy.calls)

	assert.Contains(t, buf.String(), `"level":"ERROR"`)
	assert.Contains(t, buf.String(), "tool bad_tool returned error")
}

func TestToolCallHooks_NilTracerAndInstrumentation(t *testing.T) {
	var buf bytes.Buffer
	s := server.NewMCPServer("test", "0.1.0",
		server.WithToolCapabilities(true),
		server.WithHooks(ToolCallHooks(slog.New(slog.NewJSONHandler(&buf, nil)), nil, nil)),
	)
	s.AddTool(mcp.NewTool("ok_tool"), func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText("fine"), nil
	})

	result := callTool(t, s, "ok_tool", nil)
	assert.False(t, result.IsError)
	assert.Contains(t, buf.String(), "tool call")
}
