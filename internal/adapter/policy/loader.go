package policy

import (
	"fmt"
	"os"
	"strings"

	"github.com/guillermoBallester/askdb/internal/core/domain"
	"gopkg.in/yaml.v3"
)

func LoadFromFile(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading policy file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a policy document.
func Parse(data []byte) (*Policy, error) {
	var pol Policy
	if err := yaml.Unmarshal(data, &pol); err != nil {
		return nil, fmt.Errorf("parsing policy YAML: %w", err)
	}
	if err := validate(&pol); err != nil {
		return nil, fmt.Errorf("validating policy: %w", err)
	}
	return &pol, nil
}

type maskOrigin struct {
	table string
	mask  domain.MaskType
}

func validate(pol *Policy) error {
	seen := make(map[string]maskOrigin)
	for key, tc := range pol.Context.Tables {
		schema, table, ok := strings.Cut(key, ".")
		if !ok || schema == "" || table == "" {
			return fmt.Errorf("context.tables key %q must be schema-qualified (schema.table)", key)
		}
		for col, cc := range tc.Columns {
			if col == "" {
				return fmt.Errorf("context.tables[%q].columns contains an empty key", key)
			}
			if !cc.Mask.Valid() {
				return fmt.Errorf("context.tables[%q].columns[%q].mask: invalid value %q (allowed: redact, hash, partial, null)", key, col, cc.Mask)
			}
			if cc.Mask == domain.MaskNone {
				continue
			}
			prev, dup := seen[col]
			if !dup {
				seen[col] = maskOrigin{table: key, mask: cc.Mask}
				continue
			}
			if prev.mask != cc.Mask {
				return fmt.Errorf("conflicting masks for column %q: %s in %s, %s in %s", col, prev.mask, prev.table, cc.Mask, key)
			}
		}
	}
	return nil
}
