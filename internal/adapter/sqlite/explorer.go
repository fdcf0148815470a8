package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"

	"github.com/guillermoBallester/askdb/internal/adapter/sqldb"
	"github.com/guillermoBallester/askdb/internal/core/domain"
	"github.com/guillermoBallester/askdb/internal/core/port"
)

const queryRelations = `
SELECT name, type FROM sqlite_master
WHERE type IN ('table', 'view') AND name NOT LIKE 'sqlite_%'
ORDER BY name`

const queryRelation = `
SELECT name, type FROM sqlite_master
WHERE type IN ('table', 'view') AND name NOT LIKE 'sqlite_%' AND name = ?`

const queryColumns = `
SELECT name, type, "notnull", COALESCE(dflt_value, ''), pk
FROM pragma_table_info(?)
ORDER BY cid`

const queryForeignKeys = `
SELECT id, "from", "table", COALESCE("to", '')
FROM pragma_foreign_key_list(?)
ORDER BY id, seq`

// Explorer reads the catalog of the main database file. SQLite has a single
// schema, reported as "main".
type Explorer struct {
	db      *sql.DB
	schemas []string // when set, must include "main" for anything to show
}

func NewExplorer(db *sql.DB, schemas []string) *Explorer {
	return &Explorer{db: db, schemas: schemas}
}

func (e *Explorer) visible(schema string) bool {
	if schema != "" && schema != MainSchema {
		return false
	}
	return len(e.schemas) == 0 || slices.Contains(e.schemas, MainSchema)
}

func (e *Explorer) ListTables(ctx context.Context) ([]port.TableInfo, error) {
	if !e.visible("") {
		return nil, nil
	}
	rows, err := e.db.QueryContext(ctx, queryRelations)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tables []port.TableInfo
	for rows.Next() {
		t := port.TableInfo{Schema: MainSchema}
		if err := rows.Scan(&t.Name, &t.Type); err != nil {
			return nil, fmt.Errorf("scan table row: %w", err)
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

func (e *Explorer) DescribeTable(ctx context.Context, schema, tableName string) (*port.TableDetail, error) {
	if !e.visible(schema) {
		if schema != "" {
			return nil, fmt.Errorf("table %q %w in schema %q", tableName, domain.ErrNotFound, schema)
		}
		return nil, fmt.Errorf("table %q %w", tableName, domain.ErrNotFound)
	}

	detail := &port.TableDetail{Schema: MainSchema}
	var kind string
	err := e.db.QueryRowContext(ctx, queryRelation, tableName).Scan(&detail.Name, &kind)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("table %q %w", tableName, domain.ErrNotFound)
	case err != nil:
		return nil, fmt.Errorf("look up table: %w", err)
	}

	countSQL := "SELECT count(*) FROM " + sqldb.QuoteIdent(detail.Name)
	if err := e.db.QueryRowContext(ctx, countSQL).Scan(&detail.RowEstimate); err != nil {
		return nil, fmt.Errorf("count rows of %s: %w", detail.Name, err)
	}

	if detail.Columns, err = e.fetchColumns(ctx, detail.Name); err != nil {
		return nil, err
	}
	if detail.ForeignKeys, err = e.fetchForeignKeys(ctx, detail.Name); err != nil {
		return nil, err
	}
	return detail, nil
}

func (e *Explorer) fetchColumns(ctx context.Context, tableName string) ([]port.ColumnInfo, error) {
	rows, err := e.db.QueryContext(ctx, queryColumns, tableName)
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var cols []port.ColumnInfo
	for rows.Next() {
		var (
			col     port.ColumnInfo
			notNull bool
			pk      int
		)
		if err := rows.Scan(&col.Name, &col.DataType, &notNull, &col.DefaultValue, &pk); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		col.IsNullable = !notNull
		col.IsPrimaryKey = pk > 0
		cols = append(cols, col)
	}
	return cols, rows.Err()
}

// fetchForeignKeys names each constraint after its table and id, since
// SQLite does not keep constraint names.
func (e *Explorer) fetchForeignKeys(ctx context.Context, tableName string) ([]port.ForeignKey, error) {
	rows, err := e.db.QueryContext(ctx, queryForeignKeys, tableName)
	if err != nil {
		return nil, fmt.Errorf("query foreign keys: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var fks []port.ForeignKey
	for rows.Next() {
		var (
			fk port.ForeignKey
			id int
		)
		if err := rows.Scan(&id, &fk.ColumnName, &fk.ReferencedTable, &fk.ReferencedColumn); err != nil {
			return nil, fmt.Errorf("scan fk: %w", err)
		}
		fk.ConstraintName = fmt.Sprintf("%s_fk_%d", tableName, id)
		fks = append(fks, fk)
	}
	return fks, rows.Err()
}
