package introspect

import (
	"context"
	"database/sql"
	"fmt"
	"slices"

	"github.com/hlop3z/alabq/internal/alerr"
	"github.com/hlop3z/alabq/internal/ast"
	"github.com/hlop3z/alabq/internal/dialect"
)

type sqliteIntrospector struct {
	db      Querier
	dialect dialect.Dialect
}

func (s *sqliteIntrospector) ListTables(ctx context.Context) ([]string, error) {
	query := `
		SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, alerr.WrapSQL(err, "list tables", "")
	}
	return scanStrings(rows, "list tables")
}

func (s *sqliteIntrospector) IntrospectTable(ctx context.Context, tableName string) (*Table, error) {
	columns, err := s.introspectColumns(ctx, tableName)
	if err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, nil
	}

	fks, err := s.introspectForeignKeys(ctx, tableName)
	if err != nil {
		return nil, err
	}
	return &Table{
		Def:         &ast.TableDef{Name: tableName, Columns: columns},
		ForeignKeys: fks,
	}, nil
}

func (s *sqliteIntrospector) introspectColumns(ctx context.Context, tableName string) ([]*ast.ColumnDef, error) {
	// cid, name, type, notnull, dflt_value, pk
	query := fmt.Sprintf("PRAGMA table_info(%s)", s.dialect.QuoteIdent(tableName))

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, alerr.WrapSQL(err, "introspect columns", tableName)
	}
	defer rows.Close()

	var columns []*ast.ColumnDef
	for rows.Next() {
		var cid, notNull, pk int
		var name, dataType string
		var defaultVal sql.NullString

		if err := rows.Scan(&cid, &name, &dataType, &notNull, &defaultVal, &pk); err != nil {
			return nil, alerr.WrapSQL(err, "scan column", tableName)
		}
		columns = append(columns, &ast.ColumnDef{
			Name:       name,
			Kind:       SQLiteKind(dataType),
			PrimaryKey: pk > 0,
			Nullable:   notNull == 0 && pk == 0,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, alerr.WrapSQL(err, "introspect columns", tableName)
	}
	return columns, nil
}

func (s *sqliteIntrospector) introspectForeignKeys(ctx context.Context, tableName string) ([]*ForeignKey, error) {
	// id, seq, table, from, to, on_update, on_delete, match
	query := fmt.Sprintf("PRAGMA foreign_key_list(%s)", s.dialect.QuoteIdent(tableName))

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, alerr.WrapSQL(err, "introspect foreign keys", tableName)
	}
	defer rows.Close()

	acc := newFKAccumulator()
	for rows.Next() {
		var id, seq int
		var refTable, from, onUpdate, onDelete, match string
		var to sql.NullString

		if err := rows.Scan(&id, &seq, &refTable, &from, &to, &onUpdate, &onDelete, &match); err != nil {
			return nil, alerr.WrapSQL(err, "scan foreign key", tableName)
		}
		// SQLite numbers keys per table, so generate a name.
		acc.add(fmt.Sprintf("fk_%s_%d", tableName, id), from, refTable, to.String)
	}
	if err := rows.Err(); err != nil {
		return nil, alerr.WrapSQL(err, "introspect foreign keys", tableName)
	}
	// The pragma lists the most recently declared key first.
	fks := acc.values()
	slices.Reverse(fks)
	return fks, nil
}
