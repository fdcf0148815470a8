package sqldb

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
)

// ScanMaps reads every row into a column→value map. Columns are returned in
// select-list order after UniqueColumns, and those are the map keys.
func ScanMaps(rows *sql.Rows) ([]string, []map[string]any, error) {
	names, err := rows.Columns()
	if err != nil {
		return nil, nil, fmt.Errorf("query columns: %w", err)
	}
	columns := UniqueColumns(names)

	var result []map[string]any
	for rows.Next() {
		values := make([]any, len(columns))
		scanTargets := make([]any, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return nil, nil, fmt.Errorf("scan row: %w", err)
		}
		row := make(map[string]any, len(columns))
		for i, name := range columns {
			row[name] = normalizeValue(values[i])
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate rows: %w", err)
	}
	return columns, result, nil
}

// UniqueColumns renames repeated column names so each can key a row map: the
// first "id" stays "id", the next becomes "id_2", then "id_3", skipping any
// name the select list already uses.
func UniqueColumns(names []string) []string {
	taken := make(map[string]bool, len(names))
	for _, n := range names {
		taken[n] = true
	}
	used := make(map[string]bool, len(names))
	out := make([]string, len(names))
	for i, n := range names {
		if !used[n] {
			out[i] = n
			used[n] = true
			continue
		}
		for k := 2; ; k++ {
			candidate := n + "_" + strconv.Itoa(k)
			if !used[candidate] && !taken[candidate] {
				out[i] = candidate
				used[candidate] = true
				break
			}
		}
	}
	return out
}

// QuoteIdent double-quotes an identifier for DuckDB and SQLite.
func QuoteIdent(value string) string {
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}

func normalizeValue(value any) any {
	if b, ok := value.([]byte); ok {
		return string(b)
	}
	return value
}
