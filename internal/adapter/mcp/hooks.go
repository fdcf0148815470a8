package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/guillermoBallester/askdb/internal/core/port"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type callState struct {
	start time.Time
	span  trace.Span
}

// callTracker pairs before/after hook invocations by request id.
type callTracker struct {
	logger *slog.Logger
	tracer trace.Tracer
	inst   port.Instrumentation
	calls  sync.Map // id -> *callState
}

// ToolCallHooks logs every tool call and records a span and the tool
// duration. tracer and inst may be nil.
func ToolCallHooks(logger *slog.Logger, tracer trace.Tracer, inst port.Instrumentation) *server.Hooks {
	if inst == nil {
		inst = port.NoopInstrumentation{}
	}
	t := &callTracker{logger: logger, tracer: tracer, inst: inst}

	hooks := &server.Hooks{}
	hooks.AddBeforeCallTool(t.before)
	hooks.AddAfterCallTool(t.after)
	hooks.AddOnError(t.onError)
	return hooks
}

func (t *callTracker) before(ctx context.Context, id any, req *mcp.CallToolRequest) {
	state := &callState{start: time.Now()}
	if t.tracer != nil {
		_, state.span = t.tracer.Start(ctx, "mcp.tool.call",
			trace.WithAttributes(attribute.String("mcp.tool", req.Params.Name)),
		)
	}
	t.calls.Store(id, state)
}

func (t *callTracker) after(ctx context.Context, id any, req *mcp.CallToolRequest, result any) {
	var err error
	if r, ok := result.(*mcp.CallToolResult); ok && r.IsError {
		err = fmt.Errorf("tool %s returned error", req.Params.Name)
	}
	t.finish(ctx, id, req.Params.Name, err)
}

func (t *callTracker) onError(ctx context.Context, id any, _ mcp.MCPMethod, message any, err error) {
	req, ok := message.(*mcp.CallToolRequest)
	if !ok {
		return
	}
	t.finish(ctx, id, req.Params.Name, err)
}

func (t *callTracker) finish(ctx context.Context, id any, tool string, err error) {
	var duration time.Duration
	var span trace.Span
	if v, ok := t.calls.LoadAndDelete(id); ok {
		state := v.(*callState)
		duration = time.Since(state.start)
		span = state.span
	}

	attrs := []slog.Attr{
		slog.String("rpc.method", "tools/call"),
		slog.String("mcp.tool", tool),
		slog.Duration("duration", duration),
		slog.Bool("error", err != nil),
	}
	level := slog.LevelInfo
	if err != nil {
		level = slog.LevelError
		attrs = append(attrs, slog.String("error.message", err.Error()))
	}
	t.logger.LogAttrs(ctx, level, "tool call", attrs...)

	t.inst.RecordToolDuration(ctx, float64(duration.Milliseconds()))

	if span != nil {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}
