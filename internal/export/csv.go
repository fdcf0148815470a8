// Package export writes query results to files.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/guillermoBallester/askdb/internal/core/port"
)

// WriteCSV writes res as CSV: a header row in column order, then one record
// per row.
func WriteCSV(w io.Writer, res *port.Result) error {
	if res == nil {
		return fmt.Errorf("no result to export")
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(res.Columns); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	record := make([]string, len(res.Columns))
	for i, row := range res.Rows {
		for j, col := range res.Columns {
			record[j] = FormatValue(row[col])
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// FormatValue renders a single result value as text.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	case time.Time:
		return val.Format(time.RFC3339)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}
