package dialect

import (
	"strings"

	"github.com/hlop3z/alabq/internal/ast"
)

// sqlite implements the Dialect interface for SQLite.
type sqlite struct{}

// SQLite returns the SQLite dialect implementation.
func SQLite() Dialect {
	return &sqlite{}
}

func (d *sqlite) Name() string {
	return "sqlite"
}

func (d *sqlite) DriverName() string {
	return "sqlite"
}

// -----------------------------------------------------------------------------
// Formatting
// -----------------------------------------------------------------------------

func (d *sqlite) QuoteIdent(name string) string {
	return quoteWith(name, `"`)
}

func (d *sqlite) Placeholder(index int) string {
	return "?"
}

func (d *sqlite) ILike(left, right string) string {
	return lowerLike(left, right)
}

func (d *sqlite) DefaultValue() string {
	return "NULL"
}

func (d *sqlite) LimitOffset(limit, offset int) string {
	// SQLite only accepts OFFSET after a LIMIT; -1 means no limit.
	return limitOffset(limit, offset, "-1")
}

// -----------------------------------------------------------------------------
// Features
// -----------------------------------------------------------------------------

func (d *sqlite) Returning() ReturningMode {
	// RETURNING is available since SQLite 3.35.
	return ReturningRows
}

func (d *sqlite) OnConflictUpdate(target []string) string {
	var b strings.Builder
	b.WriteString("ON CONFLICT (")
	writeQuotedList(&b, target, d.QuoteIdent)
	b.WriteString(") DO UPDATE SET")
	return b.String()
}

func (d *sqlite) ExcludedColumn(name string) string {
	return "excluded." + d.QuoteIdent(name)
}

// -----------------------------------------------------------------------------
// Types and DDL
// SQLite has dynamic typing with type affinities: TEXT, INTEGER, REAL, BLOB.
// -----------------------------------------------------------------------------

func (d *sqlite) ColumnType(kind ast.Kind) string {
	switch kind {
	case ast.KindInteger, ast.KindBoolean:
		return "INTEGER"
	case ast.KindFloat:
		return "REAL"
	case ast.KindBlob:
		return "BLOB"
	case ast.KindTimestamp:
		return "DATETIME"
	default:
		return "TEXT"
	}
}

func (d *sqlite) CreateTableSQL(def *ast.TableDef) (string, error) {
	// An INTEGER PRIMARY KEY column aliases the rowid and is generated on insert.
	return buildCreateTableSQL(def, d.QuoteIdent, d, true, "")
}
