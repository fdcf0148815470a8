package policy

import (
	"context"
	"fmt"

	"github.com/guillermoBallester/askdb/internal/core/domain"
	"github.com/guillermoBallester/askdb/internal/core/port"
)

// Explorer decorates a SchemaExplorer: hidden tables disappear and policy
// descriptions fill empty catalog comments. COMMENT ON always wins.
type Explorer struct {
	inner  port.SchemaExplorer
	policy *Policy
}

func NewExplorer(inner port.SchemaExplorer, pol *Policy) *Explorer {
	return &Explorer{inner: inner, policy: pol}
}

func (e *Explorer) ListTables(ctx context.Context) ([]port.TableInfo, error) {
	tables, err := e.inner.ListTables(ctx)
	if err != nil {
		return nil, err
	}

	visible := tables[:0]
	for _, t := range tables {
		tc, ok := e.policy.lookup(t.Schema, t.Name)
		if ok && tc.Hidden {
			continue
		}
		if ok && t.Comment == "" {
			t.Comment = tc.Description
		}
		visible = append(visible, t)
	}
	return visible, nil
}

func (e *Explorer) DescribeTable(ctx context.Context, schema, tableName string) (*port.TableDetail, error) {
	detail, err := e.inner.DescribeTable(ctx, schema, tableName)
	if err != nil {
		return nil, err
	}

	tc, ok := e.policy.lookup(detail.Schema, detail.Name)
	if !ok {
		return detail, nil
	}
	if tc.Hidden {
		return nil, fmt.Errorf("table %q %w", tableName, domain.ErrNotFound)
	}
	if detail.Comment == "" {
		detail.Comment = tc.Description
	}
	for i := range detail.Columns {
		col := &detail.Columns[i]
		if cc, ok := tc.Columns[col.Name]; ok && col.Comment == "" {
			col.Comment = cc.Description
		}
	}
	return detail, nil
}
