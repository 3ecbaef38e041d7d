package dialect

import (
	"strconv"
	"strings"

	"github.com/hlop3z/alabq/internal/ast"
)

// postgres implements the Dialect interface for PostgreSQL.
type postgres struct{}

// Postgres returns the PostgreSQL dialect implementation.
func Postgres() Dialect {
	return &postgres{}
}

func (d *postgres) Name() string {
	return "postgres"
}

func (d *postgres) DriverName() string {
	return "postgres"
}

// -----------------------------------------------------------------------------
// Formatting
// -----------------------------------------------------------------------------

func (d *postgres) QuoteIdent(name string) string {
	return quoteWith(name, `"`)
}

func (d *postgres) Placeholder(index int) string {
	return "$" + strconv.Itoa(index)
}

func (d *postgres) ILike(left, right string) string {
	return left + " ILIKE " + right
}

func (d *postgres) DefaultValue() string {
	return "DEFAULT"
}

func (d *postgres) LimitOffset(limit, offset int) string {
	return limitOffset(limit, offset, "")
}

// -----------------------------------------------------------------------------
// Features
// -----------------------------------------------------------------------------

func (d *postgres) Returning() ReturningMode {
	return ReturningRows
}

func (d *postgres) OnConflictUpdate(target []string) string {
	var b strings.Builder
	b.WriteString("ON CONFLICT (")
	writeQuotedList(&b, target, d.QuoteIdent)
	b.WriteString(") DO UPDATE SET")
	return b.String()
}

func (d *postgres) ExcludedColumn(name string) string {
	return "excluded." + d.QuoteIdent(name)
}

// -----------------------------------------------------------------------------
// Types and DDL
// -----------------------------------------------------------------------------

func (d *postgres) ColumnType(kind ast.Kind) string {
	switch kind {
	case ast.KindInteger:
		return "BIGINT"
	case ast.KindFloat:
		return "DOUBLE PRECISION"
	case ast.KindDecimal:
		return "NUMERIC"
	case ast.KindBoolean:
		return "BOOLEAN"
	case ast.KindTimestamp:
		return "TIMESTAMPTZ"
	case ast.KindUUID:
		return "UUID"
	case ast.KindJSON:
		return "JSONB"
	case ast.KindBlob:
		return "BYTEA"
	default:
		return "TEXT"
	}
}

func (d *postgres) CreateTableSQL(def *ast.TableDef) (string, error) {
	return buildCreateTableSQL(def, d.QuoteIdent, d, true, "GENERATED BY DEFAULT AS IDENTITY")
}
