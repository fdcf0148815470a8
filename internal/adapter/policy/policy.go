// Package policy loads the operator's data dictionary: descriptions that
// reach MCP clients and the LLM schema summary, column masks applied to
// query results, and tables hidden from both.
//
//	context:
//	  tables:
//	    public.customers:
//	      description: "Customer accounts"
//	      columns:
//	        email: { description: "Contact email", mask: redact }
//	        segment: "Pricing tier"
//	    internal.migrations:
//	      hidden: true
package policy

import (
	"fmt"

	"github.com/guillermoBallester/askdb/internal/core/domain"
	"gopkg.in/yaml.v3"
)

type Policy struct {
	Context ContextConfig `yaml:"context"`
}

// ContextConfig is keyed by schema-qualified table name.
type ContextConfig struct {
	Tables map[string]TableContext `yaml:"tables"`
}

type TableContext struct {
	Description string                   `yaml:"description"`
	Hidden      bool                     `yaml:"hidden,omitempty"`
	Columns     map[string]ColumnContext `yaml:"columns"`
}

type ColumnContext struct {
	Description string          `yaml:"description"`
	Mask        domain.MaskType `yaml:"mask,omitempty"`
}

// UnmarshalYAML accepts a bare description string as shorthand.
func (cc *ColumnContext) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		*cc = ColumnContext{Description: value.Value}
		return nil
	}
	type plain ColumnContext
	var p plain
	if err := value.Decode(&p); err != nil {
		return fmt.Errorf("decoding column %q: %w", value.Value, err)
	}
	*cc = ColumnContext(p)
	return nil
}

func (p *Policy) lookup(schema, table string) (TableContext, bool) {
	if p == nil {
		return TableContext{}, false
	}
	tc, ok := p.Context.Tables[schema+"."+table]
	return tc, ok
}

// Hidden reports whether schema.table must not be listed, described or
// offered to the model.
func (p *Policy) Hidden(schema, table string) bool {
	tc, ok := p.lookup(schema, table)
	return ok && tc.Hidden
}

// Masks returns the column-name → mask map applied to every result set.
// Masks match by column name alone; the loader rejects conflicting entries.
func (p *Policy) Masks() domain.ColumnMasks {
	if p == nil {
		return nil
	}
	masks := make(domain.ColumnMasks)
	for _, tc := range p.Context.Tables {
		for col, cc := range tc.Columns {
			if cc.Mask != domain.MaskNone {
				masks[col] = cc.Mask
			}
		}
	}
	return masks
}
