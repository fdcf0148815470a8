package postgres

import (
	"fmt"
	"strings"
)

// schemaFilter renders a WHERE fragment restricting column to the allowed
// schemas, numbering placeholders from paramOffset. With no schemas it hides
// the system and temporary namespaces instead.
func schemaFilter(schemas []string, column string, paramOffset int) (clause string, args []any) {
	if len(schemas) == 0 {
		return fmt.Sprintf("%[1]s NOT IN ('pg_catalog', 'information_schema') AND %[1]s !~ '^pg_(toast|temp_)'", column), nil
	}
	placeholders := make([]string, len(schemas))
	args = make([]any, len(schemas))
	for i, s := range schemas {
		placeholders[i] = fmt.Sprintf("$%d", paramOffset+i)
		args[i] = s
	}
	return fmt.Sprintf("%s IN (%s)", column, strings.Join(placeholders, ", ")), args
}

// timeoutSetting renders SET LOCAL statement_timeout; SET takes no bind
// parameters.
func timeoutSetting(ms int64) string {
	if ms <= 0 {
		return "SET LOCAL statement_timeout = 0"
	}
	return fmt.Sprintf("SET LOCAL statement_timeout = '%d'", ms)
}
