package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/guillermoBallester/askdb/internal/core/port"
)

// ExplorerService wraps SchemaExplorer and renders the schema text handed to
// the translator.
type ExplorerService struct {
	explorer port.SchemaExplorer
}

func NewExplorerService(explorer port.SchemaExplorer) *ExplorerService {
	return &ExplorerService{explorer: explorer}
}

func (s *ExplorerService) ListTables(ctx context.Context) ([]port.TableInfo, error) {
	return s.explorer.ListTables(ctx)
}

func (s *ExplorerService) DescribeTable(ctx context.Context, schema, tableName string) (*port.TableDetail, error) {
	return s.explorer.DescribeTable(ctx, schema, tableName)
}

// SchemaSummary renders one line per table:
//
//	TABLE public.orders COLUMNS: id integer, total numeric -- customer orders
func (s *ExplorerService) SchemaSummary(ctx context.Context) (string, error) {
	tables, err := s.explorer.ListTables(ctx)
	if err != nil {
		return "", fmt.Errorf("listing tables: %w", err)
	}

	var b strings.Builder
	for _, t := range tables {
		detail, err := s.explorer.DescribeTable(ctx, t.Schema, t.Name)
		if err != nil {
			return "", fmt.Errorf("describing %s.%s: %w", t.Schema, t.Name, err)
		}
		writeSummaryLine(&b, detail)
	}
	return b.String(), nil
}

func writeSummaryLine(b *strings.Builder, d *port.TableDetail) {
	b.WriteString("TABLE ")
	if d.Schema != "" {
		b.WriteString(d.Schema)
		b.WriteByte('.')
	}
	b.WriteString(d.Name)
	b.WriteString(" COLUMNS: ")
	for i, c := range d.Columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(c.Name)
		b.WriteByte(' ')
		b.WriteString(c.DataType)
	}
	if d.Comment != "" {
		b.WriteString(" -- ")
		b.WriteString(d.Comment)
	}
	b.WriteByte('\n')
}
