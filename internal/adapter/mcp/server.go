// Package mcp exposes askdb's use cases as Model Context Protocol tools.
package mcp

import (
	"log/slog"

	"github.com/guillermoBallester/askdb/internal/core/port"
	"github.com/mark3labs/mcp-go/server"
	"go.opentelemetry.io/otel/trace"
)

// NewServer creates an MCPServer with the askdb tools and logging hooks.
func NewServer(version string, svc Services, logger *slog.Logger, tracer trace.Tracer, inst port.Instrumentation) *server.MCPServer {
	s := server.NewMCPServer(
		serverName,
		version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithHooks(ToolCallHooks(logger, tracer, inst)),
		server.WithInstructions(serverInstructions),
	)

	RegisterTools(s, svc, logger)
	return s
}

const serverInstructions = "askdb answers questions about a relational database. " +
	"Explore with list_tables and describe_table, draft SQL yourself or with generate_sql, " +
	"then run it with query. Statements that change data or schema always come back as " +
	"confirmation_required first; never set confirmed=true without the user's explicit approval."
