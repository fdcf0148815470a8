package postgres

// Catalog queries read pg_catalog directly so that one round trip resolves
// the relation and later lookups go by OID.

// queryRelations has one %s placeholder for the WHERE clause.
const queryRelations = `
	SELECT
		c.oid,
		n.nspname,
		c.relname,
		CASE c.relkind
			WHEN 'v' THEN 'view'
			WHEN 'm' THEN 'materialized view'
			ELSE 'table'
		END,
		GREATEST(c.reltuples::bigint, 0),
		COALESCE(obj_description(c.oid, 'pg_class'), '')
	FROM pg_class c
	JOIN pg_namespace n ON n.oid = c.relnamespace
	WHERE c.relkind IN ('r', 'p', 'v', 'm')
		AND NOT c.relispartition
		AND %s
	ORDER BY n.nspname, c.relname`

// queryColumns: $1 is the relation OID.
const queryColumns = `
	SELECT
		a.attname,
		format_type(a.atttypid, a.atttypmod),
		NOT a.attnotnull,
		COALESCE(pg_get_expr(d.adbin, d.adrelid), ''),
		COALESCE(i.indisprimary, false),
		COALESCE(col_description(a.attrelid, a.attnum), '')
	FROM pg_attribute a
	LEFT JOIN pg_attrdef d ON d.adrelid = a.attrelid AND d.adnum = a.attnum
	LEFT JOIN pg_index i ON i.indrelid = a.attrelid AND i.indisprimary AND a.attnum = ANY(i.indkey)
	WHERE a.attrelid = $1 AND a.attnum > 0 AND NOT a.attisdropped
	ORDER BY a.attnum`

// queryForeignKeys pairs conkey with confkey so composite keys come out one
// row per column. $1 is the relation OID.
const queryForeignKeys = `
	SELECT
		con.conname,
		a.attname,
		rc.relname,
		ra.attname
	FROM pg_constraint con
	CROSS JOIN LATERAL unnest(con.conkey, con.confkey) AS k(col, refcol)
	JOIN pg_attribute a ON a.attrelid = con.conrelid AND a.attnum = k.col
	JOIN pg_class rc ON rc.oid = con.confrelid
	JOIN pg_attribute ra ON ra.attrelid = con.confrelid AND ra.attnum = k.refcol
	WHERE con.conrelid = $1 AND con.contype = 'f'
	ORDER BY con.conname, a.attnum`
