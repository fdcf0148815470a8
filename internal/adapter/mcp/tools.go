package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/guillermoBallester/askdb/internal/core/domain"
	"github.com/guillermoBallester/askdb/internal/core/port"
	"github.com/guillermoBallester/askdb/internal/core/service"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const serverName = "askdb"

// Tool descriptions
const (
	descListTables = "List all tables and views with schema, type, estimated row count and description. " +
		"Call this first to see what data exists."

	descDescribeTable = "Describe a table: columns with types, nullability, defaults and descriptions; " +
		"primary keys; foreign keys with referenced tables; row estimate. " +
		"Use foreign keys to find JOIN paths before writing a query."

	descDescribeTableParam = "Name of the table to describe"

	descGenerateSQL = "Translate a natural-language question into SQL for this database. " +
		"Read-only candidates are checked with EXPLAIN and regenerated on error. " +
		"The SQL is NOT executed: pass it to the query tool. " +
		"If validation_error is set the SQL could not be validated and should be reviewed."

	descGenerateSQLParam = "The question to answer, in plain language"

	descQuery = "Run SQL through the safety gate. Statements are classified as READ_ONLY, MUTATING or DESTRUCTIVE_DDL. " +
		"READ_ONLY statements run at once with a server-side row limit. " +
		"Anything else is NOT executed and returns status \"confirmation_required\": " +
		"show the statement to the user, and only after they explicitly agree call query again with confirmed=true."

	descQueryParam = "SQL to execute"

	descQueryConfirmed = "Set to true only after the user has explicitly approved this exact statement. Defaults to false."

	descExplainQuery = "Show the execution plan for a READ_ONLY query without running it. " +
		"Use this to check that SQL is valid and to understand its cost."

	descExplainQuerySQL = "The SELECT query to explain (without the EXPLAIN keyword)"
)

const confirmationMessage = "This statement is %s and was not executed. " +
	"Show it to the user and call query again with confirmed=true only if they approve."

// Services are the use cases exposed as tools. Ask may be nil when no LLM is
// configured; generate_sql is then not registered.
type Services struct {
	Explorer *service.ExplorerService
	Query    *service.QueryService
	Ask      *service.AskService
}

// queryResponse is the query tool's JSON payload.
type queryResponse struct {
	Status         string                `json:"status"`
	Classification domain.Classification `json:"classification"`
	SQL            string                `json:"sql"`
	Limited        bool                  `json:"limited,omitempty"`
	Message        string                `json:"message,omitempty"`
	*port.Result
}

func RegisterTools(s *server.MCPServer, svc Services, logger *slog.Logger) {
	s.AddTool(
		mcp.NewTool("list_tables",
			mcp.WithDescription(descListTables),
		),
		listTablesHandler(svc.Explorer, logger),
	)

	s.AddTool(
		mcp.NewTool("describe_table",
			mcp.WithDescription(descDescribeTable),
			mcp.WithString("table_name",
				mcp.Required(),
				mcp.Description(descDescribeTableParam),
			),
			mcp.WithString("schema",
				mcp.Description("Schema name (optional, resolves automatically if omitted)"),
			),
		),
		describeTableHandler(svc.Explorer, logger),
	)

	if svc.Ask != nil {
		s.AddTool(
			mcp.NewTool("generate_sql",
				mcp.WithDescription(descGenerateSQL),
				mcp.WithString("question",
					mcp.Required(),
					mcp.Description(descGenerateSQLParam),
				),
			),
			generateSQLHandler(svc.Ask, logger),
		)
	}

	s.AddTool(
		mcp.NewTool("query",
			mcp.WithDescription(descQuery),
			mcp.WithString("sql",
				mcp.Required(),
				mcp.Description(descQueryParam),
			),
			mcp.WithBoolean("confirmed",
				mcp.Description(descQueryConfirmed),
			),
		),
		queryHandler(svc.Query, logger),
	)

	s.AddTool(
		mcp.NewTool("explain_query",
			mcp.WithDescription(descExplainQuery),
			mcp.WithString("sql",
				mcp.Required(),
				mcp.Description(descExplainQuerySQL),
			),
		),
		explainQueryHandler(svc.Query, logger),
	)
}

func listTablesHandler(explorer *service.ExplorerService, logger *slog.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		tables, err := explorer.ListTables(ctx)
		if err != nil {
			return mcp.NewToolResultError(sanitizeError(logger, err, "list tables")), nil
		}
		return jsonResult(tables)
	}
}

func describeTableHandler(explorer *service.ExplorerService, logger *slog.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		tableName, ok := request.GetArguments()["table_name"].(string)
		if !ok || tableName == "" {
			return mcp.NewToolResultError("table_name is required"), nil
		}
		schema, _ := request.GetArguments()["schema"].(string)

		detail, err := explorer.DescribeTable(ctx, schema, tableName)
		if err != nil {
			return mcp.NewToolResultError(sanitizeError(logger, err, "describe table")), nil
		}
		return jsonResult(detail)
	}
}

func generateSQLHandler(ask *service.AskService, logger *slog.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		question, ok := request.GetArguments()["question"].(string)
		if !ok || question == "" {
			return mcp.NewToolResultError("question is required"), nil
		}

		cand, err := ask.Generate(ctx, question)
		if err != nil {
			return mcp.NewToolResultError(sanitizeError(logger, err, "generate sql")), nil
		}
		return jsonResult(cand)
	}
}

func queryHandler(query *service.QueryService, logger *slog.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sql, ok := request.GetArguments()["sql"].(string)
		if !ok || sql == "" {
			return mcp.NewToolResultError("sql is required"), nil
		}
		confirmed, _ := request.GetArguments()["confirmed"].(bool)

		ctx = service.WithToolName(ctx, "query")
		out, err := query.Execute(ctx, sql, confirmed)
		if err != nil {
			return mcp.NewToolResultError(sanitizeError(logger, err, "query")), nil
		}

		resp := queryResponse{
			Classification: out.Verdict.Classification,
			SQL:            out.Verdict.SQL,
			Limited:        out.Verdict.Limited,
		}
		if out.Blocked() {
			resp.Status = "confirmation_required"
			resp.Message = fmt.Sprintf(confirmationMessage, out.Verdict.Classification)
		} else {
			resp.Status = "ok"
			resp.Result = out.Result
		}
		return jsonResult(resp)
	}
}

func explainQueryHandler(query *service.QueryService, logger *slog.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sql, ok := request.GetArguments()["sql"].(string)
		if !ok || sql == "" {
			return mcp.NewToolResultError("sql is required"), nil
		}

		ctx = service.WithToolName(ctx, "explain_query")
		plan, err := query.Explain(ctx, sql)
		if err != nil {
			return mcp.NewToolResultError(sanitizeError(logger, err, "explain")), nil
		}
		return jsonResult(plan)
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal results: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
