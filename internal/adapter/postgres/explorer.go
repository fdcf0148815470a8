package postgres

import (
	"context"
	"fmt"

	"github.com/guillermoBallester/askdb/internal/core/domain"
	"github.com/guillermoBallester/askdb/internal/core/port"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Explorer struct {
	pool    *pgxpool.Pool
	schemas []string // empty means every non-system schema
}

func NewExplorer(pool *pgxpool.Pool, schemas []string) *Explorer {
	return &Explorer{pool: pool, schemas: schemas}
}

type relation struct {
	oid  uint32
	info port.TableInfo
}

func (e *Explorer) ListTables(ctx context.Context) ([]port.TableInfo, error) {
	rels, err := e.relations(ctx, "", "")
	if err != nil {
		return nil, err
	}
	tables := make([]port.TableInfo, len(rels))
	for i, r := range rels {
		tables[i] = r.info
	}
	return tables, nil
}

// DescribeTable resolves an empty schema to the first allowed schema, in
// name order, that has a relation called tableName.
func (e *Explorer) DescribeTable(ctx context.Context, schema, tableName string) (*port.TableDetail, error) {
	rels, err := e.relations(ctx, schema, tableName)
	if err != nil {
		return nil, err
	}
	if len(rels) == 0 {
		switch {
		case schema != "":
			return nil, fmt.Errorf("table %q %w in schema %q", tableName, domain.ErrNotFound, schema)
		case len(e.schemas) > 0:
			return nil, fmt.Errorf("table %q %w in schemas %v", tableName, domain.ErrNotFound, e.schemas)
		default:
			return nil, fmt.Errorf("table %q %w", tableName, domain.ErrNotFound)
		}
	}
	rel := rels[0]

	detail := &port.TableDetail{
		Schema:      rel.info.Schema,
		Name:        rel.info.Name,
		Comment:     rel.info.Comment,
		RowEstimate: rel.info.RowEstimate,
	}
	if detail.Columns, err = e.fetchColumns(ctx, rel.oid); err != nil {
		return nil, err
	}
	if detail.ForeignKeys, err = e.fetchForeignKeys(ctx, rel.oid); err != nil {
		return nil, err
	}
	return detail, nil
}

// relations lists visible relations, optionally narrowed to one schema
// and/or name.
func (e *Explorer) relations(ctx context.Context, schema, name string) ([]relation, error) {
	where, args := schemaFilter(e.schemas, "n.nspname", 1)
	if name != "" {
		args = append(args, name)
		where += fmt.Sprintf(" AND c.relname = $%d", len(args))
	}
	if schema != "" {
		args = append(args, schema)
		where += fmt.Sprintf(" AND n.nspname = $%d", len(args))
	}

	rows, err := e.pool.Query(ctx, fmt.Sprintf(queryRelations, where), args...)
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	defer rows.Close()

	var rels []relation
	for rows.Next() {
		var r relation
		if err := rows.Scan(&r.oid, &r.info.Schema, &r.info.Name, &r.info.Type, &r.info.RowEstimate, &r.info.Comment); err != nil {
			return nil, fmt.Errorf("scanning table row: %w", err)
		}
		rels = append(rels, r)
	}
	return rels, rows.Err()
}

func (e *Explorer) fetchColumns(ctx context.Context, oid uint32) ([]port.ColumnInfo, error) {
	rows, err := e.pool.Query(ctx, queryColumns, oid)
	if err != nil {
		return nil, fmt.Errorf("querying columns: %w", err)
	}
	defer rows.Close()

	var cols []port.ColumnInfo
	for rows.Next() {
		var c port.ColumnInfo
		if err := rows.Scan(&c.Name, &c.DataType, &c.IsNullable, &c.DefaultValue, &c.IsPrimaryKey, &c.Comment); err != nil {
			return nil, fmt.Errorf("scanning column: %w", err)
		}
		cols = append(cols, c)
	}
	return cols, rows.Err()
}

func (e *Explorer) fetchForeignKeys(ctx context.Context, oid uint32) ([]port.ForeignKey, error) {
	rows, err := e.pool.Query(ctx, queryForeignKeys, oid)
	if err != nil {
		return nil, fmt.Errorf("querying foreign keys: %w", err)
	}
	defer rows.Close()

	var fks []port.ForeignKey
	for rows.Next() {
		var fk port.ForeignKey
		if err := rows.Scan(&fk.ConstraintName, &fk.ColumnName, &fk.ReferencedTable, &fk.ReferencedColumn); err != nil {
			return nil, fmt.Errorf("scanning fk: %w", err)
		}
		fks = append(fks, fk)
	}
	return fks, rows.Err()
}
