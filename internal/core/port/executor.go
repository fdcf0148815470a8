package port

import "context"

// Statement is a gated SQL text ready to run. ReadOnly selects the
// transaction access mode and whether rows are fetched.
type Statement struct {
	SQL      string
	ReadOnly bool
}

// Result is what a statement produced. Rows keep their values keyed by
// column name; Columns preserves the select-list order.
type Result struct {
	Columns      []string         `json:"columns,omitempty"`
	Rows         []map[string]any `json:"rows,omitempty"`
	RowsAffected int64            `json:"rows_affected"`
}

// QueryExecutor runs SQL that has already passed the gate.
type QueryExecutor interface {
	Execute(ctx context.Context, stmt Statement) (*Result, error)
	// Explain returns the plan for sql without running it.
	Explain(ctx context.Context, sql string) ([]map[string]any, error)
}
