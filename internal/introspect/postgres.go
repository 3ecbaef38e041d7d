package introspect

import (
	"context"

	"github.com/hlop3z/alabq/internal/alerr"
	"github.com/hlop3z/alabq/internal/ast"
)

type postgresIntrospector struct {
	db Querier
}

func (p *postgresIntrospector) ListTables(ctx context.Context) ([]string, error) {
	query := `
		SELECT tablename FROM pg_tables
		WHERE schemaname = current_schema()
		ORDER BY tablename
	`

	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, alerr.WrapSQL(err, "list tables", "")
	}
	return scanStrings(rows, "list tables")
}

func (p *postgresIntrospector) IntrospectTable(ctx context.Context, tableName string) (*Table, error) {
	columns, err := p.introspectColumns(ctx, tableName)
	if err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, nil
	}

	fks, err := p.introspectForeignKeys(ctx, tableName)
	if err != nil {
		return nil, err
	}
	return &Table{
		Def:         &ast.TableDef{Name: tableName, Columns: columns},
		ForeignKeys: fks,
	}, nil
}

func (p *postgresIntrospector) introspectColumns(ctx context.Context, tableName string) ([]*ast.ColumnDef, error) {
	query := `
		SELECT
			c.column_name,
			c.data_type,
			c.is_nullable,
			COALESCE(pk.is_pk, FALSE) AS is_primary_key
		FROM information_schema.columns c
		LEFT JOIN (
			SELECT kcu.column_name, TRUE AS is_pk
			FROM information_schema.table_constraints tc
			JOIN information_schema.key_column_usage kcu
				ON tc.constraint_name = kcu.constraint_name
				AND tc.table_schema = kcu.table_schema
			WHERE tc.table_name = $1
				AND tc.constraint_type = 'PRIMARY KEY'
				AND tc.table_schema = current_schema()
		) pk ON c.column_name = pk.column_name
		WHERE c.table_schema = current_schema()
			AND c.table_name = $1
		ORDER BY c.ordinal_position
	`

	rows, err := p.db.QueryContext(ctx, query, tableName)
	if err != nil {
		return nil, alerr.WrapSQL(err, "introspect columns", tableName)
	}
	defer rows.Close()

	var columns []*ast.ColumnDef
	for rows.Next() {
		var name, dataType, isNullable string
		var isPK bool

		if err := rows.Scan(&name, &dataType, &isNullable, &isPK); err != nil {
			return nil, alerr.WrapSQL(err, "scan column", tableName)
		}
		columns = append(columns, &ast.ColumnDef{
			Name:       name,
			Kind:       PostgresKind(dataType),
			PrimaryKey: isPK,
			Nullable:   isNullable == "YES" && !isPK,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, alerr.WrapSQL(err, "introspect columns", tableName)
	}
	return columns, nil
}

func (p *postgresIntrospector) introspectForeignKeys(ctx context.Context, tableName string) ([]*ForeignKey, error) {
	// Column pairs come from pg_constraint so composite keys stay aligned.
	query := `
		SELECT
			con.conname,
			a.attname,
			ref.relname,
			ra.attname
		FROM pg_constraint con
		JOIN pg_class t ON t.oid = con.conrelid
		JOIN pg_class ref ON ref.oid = con.confrelid
		JOIN LATERAL unnest(con.conkey, con.confkey) WITH ORDINALITY AS k(attnum, refnum, n) ON TRUE
		JOIN pg_attribute a ON a.attrelid = con.conrelid AND a.attnum = k.attnum
		JOIN pg_attribute ra ON ra.attrelid = con.confrelid AND ra.attnum = k.refnum
		WHERE con.contype = 'f'
			AND t.relname = $1
			AND t.relnamespace = (SELECT oid FROM pg_namespace WHERE nspname = current_schema())
		ORDER BY con.conname, k.n
	`

	rows, err := p.db.QueryContext(ctx, query, tableName)
	if err != nil {
		return nil, alerr.WrapSQL(err, "introspect foreign keys", tableName)
	}
	defer rows.Close()

	acc := newFKAccumulator()
	for rows.Next() {
		var name, column, refTable, refColumn string

		if err := rows.Scan(&name, &column, &refTable, &refColumn); err != nil {
			return nil, alerr.WrapSQL(err, "scan foreign key", tableName)
		}
		acc.add(name, column, refTable, refColumn)
	}
	if err := rows.Err(); err != nil {
		return nil, alerr.WrapSQL(err, "introspect foreign keys", tableName)
	}
	return acc.values(), nil
}
