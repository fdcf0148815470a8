package postgres

import (
	"encoding/json"
	"fmt"

	"github.com/guillermoBallester/askdb/internal/adapter/sqldb"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// rowsToMaps reads every row into a column→value map and returns the
// column names in select-list order. Repeated names are made unique so a
// join selecting two "id" columns keeps both.
func rowsToMaps(rows pgx.Rows) ([]string, []map[string]any, error) {
	fields := rows.FieldDescriptions()
	names := make([]string, len(fields))
	for i, fd := range fields {
		names[i] = fd.Name
	}
	columns := sqldb.UniqueColumns(names)

	var result []map[string]any
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, nil, fmt.Errorf("reading row values: %w", err)
		}
		row := make(map[string]any, len(fields))
		for i, name := range columns {
			row[name] = normalizeValue(vals[i])
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterating rows: %w", err)
	}
	return columns, result, nil
}

// normalizeValue turns pgx wire types that have no useful text form into
// values that JSON, CSV and the terminal table all render readably.
func normalizeValue(v any) any {
	switch x := v.(type) {
	case pgtype.Numeric:
		switch {
		case !x.Valid:
			return nil
		case x.NaN:
			return "NaN"
		case x.InfinityModifier == pgtype.Infinity:
			return "Infinity"
		case x.InfinityModifier == pgtype.NegativeInfinity:
			return "-Infinity"
		}
		b, err := x.MarshalJSON()
		if err != nil {
			return nil
		}
		return json.Number(b)
	case [16]byte:
		return fmt.Sprintf("%x-%x-%x-%x-%x", x[0:4], x[4:6], x[6:8], x[8:10], x[10:16])
	}
	return v
}
