package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"

	"github.com/guillermoBallester/askdb/internal/adapter/sqldb"
	"github.com/guillermoBallester/askdb/internal/core/domain"
	"github.com/guillermoBallester/askdb/internal/core/port"
)

// queryRelations has one %s placeholder for the schema filter clause.
const queryRelations = `
SELECT schema_name, table_name, type, row_estimate, comment FROM (
	SELECT schema_name, table_name, 'table' AS type, estimated_size AS row_estimate, COALESCE(comment, '') AS comment
	FROM duckdb_tables() WHERE NOT internal
	UNION ALL
	SELECT schema_name, view_name, 'view', 0, COALESCE(comment, '')
	FROM duckdb_views() WHERE NOT internal
) WHERE %s
ORDER BY schema_name, table_name`

const queryColumns = `
SELECT column_name, data_type, is_nullable, COALESCE(column_default, ''), COALESCE(comment, '')
FROM duckdb_columns()
WHERE schema_name = ? AND table_name = ?
ORDER BY column_index`

const queryPrimaryKeys = `
SELECT unnest(constraint_column_names)
FROM duckdb_constraints()
WHERE schema_name = ? AND table_name = ? AND constraint_type = 'PRIMARY KEY'`

const queryForeignKeys = `
SELECT constraint_name, unnest(constraint_column_names), referenced_table, unnest(referenced_column_names)
FROM duckdb_constraints()
WHERE schema_name = ? AND table_name = ? AND constraint_type = 'FOREIGN KEY'`

type Explorer struct {
	db      *sql.DB
	schemas []string // empty means every non-internal schema
}

func NewExplorer(db *sql.DB, schemas []string) *Explorer {
	return &Explorer{db: db, schemas: schemas}
}

func (e *Explorer) ListTables(ctx context.Context) ([]port.TableInfo, error) {
	filter, args := schemaFilter(e.schemas)
	return e.queryRelations(ctx, filter, args)
}

func (e *Explorer) DescribeTable(ctx context.Context, schema, tableName string) (*port.TableDetail, error) {
	filter, args := schemaFilter(e.schemas)
	filter += " AND table_name = ?"
	args = append(args, tableName)
	if schema != "" {
		filter += " AND schema_name = ?"
		args = append(args, schema)
	}

	matches, err := e.queryRelations(ctx, filter, args)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		if schema != "" {
			return nil, fmt.Errorf("table %q %w in schema %q", tableName, domain.ErrNotFound, schema)
		}
		return nil, fmt.Errorf("table %q %w", tableName, domain.ErrNotFound)
	}
	t := matches[0]

	detail := &port.TableDetail{
		Schema:  t.Schema,
		Name:    t.Name,
		Comment: t.Comment,
	}

	countSQL := fmt.Sprintf("SELECT count(*) FROM %s.%s", sqldb.QuoteIdent(t.Schema), sqldb.QuoteIdent(t.Name))
	if err := e.db.QueryRowContext(ctx, countSQL).Scan(&detail.RowEstimate); err != nil {
		return nil, fmt.Errorf("count rows of %s.%s: %w", t.Schema, t.Name, err)
	}

	if detail.Columns, err = e.fetchColumns(ctx, t.Schema, t.Name); err != nil {
		return nil, err
	}
	if err := e.markPrimaryKeys(ctx, detail); err != nil {
		return nil, err
	}
	if detail.ForeignKeys, err = e.fetchForeignKeys(ctx, t.Schema, t.Name); err != nil {
		return nil, err
	}
	return detail, nil
}

func (e *Explorer) queryRelations(ctx context.Context, filter string, args []any) ([]port.TableInfo, error) {
	rows, err := e.db.QueryContext(ctx, fmt.Sprintf(queryRelations, filter), args...)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tables []port.TableInfo
	for rows.Next() {
		var t port.TableInfo
		if err := rows.Scan(&t.Schema, &t.Name, &t.Type, &t.RowEstimate, &t.Comment); err != nil {
			return nil, fmt.Errorf("scan table row: %w", err)
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

func (e *Explorer) fetchColumns(ctx context.Context, schema, tableName string) ([]port.ColumnInfo, error) {
	rows, err := e.db.QueryContext(ctx, queryColumns, schema, tableName)
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var cols []port.ColumnInfo
	for rows.Next() {
		var col port.ColumnInfo
		if err := rows.Scan(&col.Name, &col.DataType, &col.IsNullable, &col.DefaultValue, &col.Comment); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		cols = append(cols, col)
	}
	return cols, rows.Err()
}

func (e *Explorer) markPrimaryKeys(ctx context.Context, detail *port.TableDetail) error {
	rows, err := e.db.QueryContext(ctx, queryPrimaryKeys, detail.Schema, detail.Name)
	if err != nil {
		return fmt.Errorf("query primary keys: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var pk []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("scan pk: %w", err)
		}
		pk = append(pk, name)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	for i := range detail.Columns {
		detail.Columns[i].IsPrimaryKey = slices.Contains(pk, detail.Columns[i].Name)
	}
	return nil
}

func (e *Explorer) fetchForeignKeys(ctx context.Context, schema, tableName string) ([]port.ForeignKey, error) {
	rows, err := e.db.QueryContext(ctx, queryForeignKeys, schema, tableName)
	if err != nil {
		return nil, fmt.Errorf("query foreign keys: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var fks []port.ForeignKey
	for rows.Next() {
		var (
			fk  port.ForeignKey
			ref sql.NullString
		)
		if err := rows.Scan(&fk.ConstraintName, &fk.ColumnName, &fk.ReferencedTable, &ref); err != nil {
			return nil, fmt.Errorf("scan fk: %w", err)
		}
		fk.ReferencedColumn = ref.String
		fks = append(fks, fk)
	}
	return fks, rows.Err()
}

func schemaFilter(schemas []string) (string, []any) {
	if len(schemas) == 0 {
		return "schema_name NOT IN ('information_schema', 'pg_catalog')", nil
	}
	placeholders := make([]string, len(schemas))
	args := make([]any, len(schemas))
	for i, s := range schemas {
		placeholders[i] = "?"
		args[i] = s
	}
	return "schema_name IN (" + strings.Join(placeholders, ", ") + ")", args
}
