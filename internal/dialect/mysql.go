package dialect

import (
	"github.com/hlop3z/alabq/internal/ast"
)

// mysql implements the Dialect interface for MySQL.
// MySQL has no RETURNING clause, so mutations that ask for rows only get the
// generated ids back.
type mysql struct{}

// MySQL returns the MySQL dialect implementation.
func MySQL() Dialect {
	return &mysql{}
}

func (d *mysql) Name() string {
	return "mysql"
}

func (d *mysql) DriverName() string {
	return "mysql"
}

// -----------------------------------------------------------------------------
// Formatting
// -----------------------------------------------------------------------------

func (d *mysql) QuoteIdent(name string) string {
	return quoteWith(name, "`")
}

func (d *mysql) Placeholder(index int) string {
	return "?"
}

func (d *mysql) ILike(left, right string) string {
	return lowerLike(left, right)
}

func (d *mysql) DefaultValue() string {
	return "DEFAULT"
}

func (d *mysql) LimitOffset(limit, offset int) string {
	return limitOffset(limit, offset, "18446744073709551615")
}

// -----------------------------------------------------------------------------
// Features
// -----------------------------------------------------------------------------

func (d *mysql) Returning() ReturningMode {
	return ReturningIDs
}

func (d *mysql) OnConflictUpdate(target []string) string {
	return "ON DUPLICATE KEY UPDATE"
}

func (d *mysql) ExcludedColumn(name string) string {
	return "VALUES(" + d.QuoteIdent(name) + ")"
}

// -----------------------------------------------------------------------------
// Types and DDL
// -----------------------------------------------------------------------------

func (d *mysql) ColumnType(kind ast.Kind) string {
	switch kind {
	case ast.KindInteger:
		return "BIGINT"
	case ast.KindFloat:
		return "DOUBLE"
	case ast.KindDecimal:
		return "DECIMAL(20,6)"
	case ast.KindBoolean:
		return "BOOLEAN"
	case ast.KindTimestamp:
		return "DATETIME(6)"
	case ast.KindUUID:
		return "CHAR(36)"
	case ast.KindJSON:
		return "JSON"
	case ast.KindBlob:
		return "BLOB"
	default:
		return "VARCHAR(255)"
	}
}

func (d *mysql) CreateTableSQL(def *ast.TableDef) (string, error) {
	return buildCreateTableSQL(def, d.QuoteIdent, d, true, "AUTO_INCREMENT")
}
