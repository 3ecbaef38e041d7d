// Package introspect queries database catalogs to discover tables, columns
// and foreign keys, and converts them to table definitions a registry can be
// built from. Foreign keys become relation pairs: a "one" relation on the
// referencing table and a "many" relation on the referenced one.
package introspect

import (
	"context"
	"database/sql"

	"github.com/hlop3z/alabq/internal/alerr"
	"github.com/hlop3z/alabq/internal/ast"
	"github.com/hlop3z/alabq/internal/dialect"
)

// Querier is the catalog connection: *sql.DB, *sql.Tx or *sql.Conn.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Introspector queries database catalogs to discover schema information.
type Introspector interface {
	// ListTables returns the user tables, sorted by name.
	ListTables(ctx context.Context) ([]string, error)

	// IntrospectTable returns a table's columns and foreign keys, or nil if
	// the table does not exist.
	IntrospectTable(ctx context.Context, tableName string) (*Table, error)
}

// Table is a table definition plus the foreign keys it declares.
type Table struct {
	Def         *ast.TableDef
	ForeignKeys []*ForeignKey
}

// ForeignKey is a (possibly composite) foreign key. RefColumns is empty when
// the key implicitly references the target's primary key.
type ForeignKey struct {
	Name       string
	Columns    []string
	RefTable   string
	RefColumns []string
}

// New creates an Introspector for the given dialect.
// Returns nil if the dialect is not supported.
func New(db Querier, d dialect.Dialect) Introspector {
	switch d.Name() {
	case "postgres":
		return &postgresIntrospector{db: db}
	case "sqlite":
		return &sqliteIntrospector{db: db, dialect: d}
	default:
		return nil
	}
}

// Tables introspects every table and derives relations from foreign keys.
// When only is not empty, just the named tables are returned; keys pointing
// outside them are dropped.
func Tables(ctx context.Context, in Introspector, only ...string) ([]*ast.TableDef, error) {
	if in == nil {
		return nil, alerr.New(alerr.EUnsupportedDialect, "introspection is not supported for this dialect")
	}

	names := only
	if len(names) == 0 {
		var err error
		if names, err = in.ListTables(ctx); err != nil {
			return nil, err
		}
	}

	tables := make([]*Table, 0, len(names))
	for _, name := range names {
		t, err := in.IntrospectTable(ctx, name)
		if err != nil {
			return nil, err
		}
		if t == nil {
			return nil, alerr.New(alerr.ErrSchemaNotFound, "table not found in database").WithTable(name)
		}
		tables = append(tables, t)
	}

	linkForeignKeys(tables)

	defs := make([]*ast.TableDef, len(tables))
	for i, t := range tables {
		defs[i] = t.Def
	}
	return defs, nil
}

// scanStrings reads a single-column result set.
func scanStrings(rows *sql.Rows, op string) ([]string, error) {
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, alerr.WrapSQL(err, op, "")
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, alerr.WrapSQL(err, op, "")
	}
	return out, nil
}

// fkAccumulator merges composite FK columns returned row by row into one key.
type fkAccumulator struct {
	fks   map[string]*ForeignKey
	order []string
}

func newFKAccumulator() *fkAccumulator {
	return &fkAccumulator{fks: make(map[string]*ForeignKey)}
}

// add appends a column pair to the key called name, creating it first.
// An empty refColumn means the target's primary key.
func (a *fkAccumulator) add(name, column, refTable, refColumn string) {
	fk, exists := a.fks[name]
	if !exists {
		fk = &ForeignKey{Name: name, RefTable: refTable}
		a.fks[name] = fk
		a.order = append(a.order, name)
	}
	fk.Columns = append(fk.Columns, column)
	if refColumn != "" {
		fk.RefColumns = append(fk.RefColumns, refColumn)
	}
}

// values returns the keys in insertion order.
func (a *fkAccumulator) values() []*ForeignKey {
	out := make([]*ForeignKey, 0, len(a.order))
	for _, name := range a.order {
		out = append(out, a.fks[name])
	}
	return out
}
