// Package dialect provides the database-specific pieces of SQL the query
// compiler needs: identifier quoting, placeholders, case-insensitive matching,
// pagination, conflict handling and row-returning capability.
//
// Dialects are resolved once, when a model builder is configured, and then
// dispatched statically through the Dialect interface.
package dialect

import "github.com/hlop3z/alabq/internal/ast"

// ReturningMode describes what a dialect can hand back from a mutation.
type ReturningMode int

const (
	// ReturningRows: the dialect supports RETURNING with a column list.
	ReturningRows ReturningMode = iota
	// ReturningIDs: the dialect can only report generated ids (LAST_INSERT_ID).
	ReturningIDs
)

// String returns the mode name.
func (m ReturningMode) String() string {
	switch m {
	case ReturningRows:
		return "rows"
	case ReturningIDs:
		return "ids"
	default:
		return "unknown"
	}
}

// SQLFormatter renders identifiers, placeholders and operators.
type SQLFormatter interface {
	// QuoteIdent quotes an identifier (table/column/alias name).
	// PostgreSQL/SQLite: "name"
	// MySQL: `name`
	QuoteIdent(name string) string

	// Placeholder returns a parameter placeholder for the given index (1-based).
	// PostgreSQL: $1, $2, $3, ...
	// SQLite/MySQL: ?, ?, ?, ...
	Placeholder(index int) string

	// ILike renders a case-insensitive pattern match of two rendered operands.
	// PostgreSQL: a ILIKE b
	// SQLite/MySQL: LOWER(a) LIKE LOWER(b)
	ILike(left, right string) string

	// LimitOffset renders the pagination clause. Zero means "not set".
	// Returns "" when neither is set.
	LimitOffset(limit, offset int) string

	// DefaultValue fills a column a multi-row INSERT leaves out.
	// PostgreSQL/MySQL: DEFAULT
	// SQLite: NULL (no DEFAULT keyword in VALUES)
	DefaultValue() string
}

// FeatureDetector reports optional capabilities.
type FeatureDetector interface {
	// Returning reports how mutations can return rows.
	Returning() ReturningMode
}

// Upserter renders conflict handling for INSERT.
type Upserter interface {
	// OnConflictUpdate renders the clause that precedes the SET list.
	// PostgreSQL/SQLite: ON CONFLICT ("a", "b") DO UPDATE SET
	// MySQL: ON DUPLICATE KEY UPDATE (target is implied by unique keys)
	OnConflictUpdate(target []string) string

	// ExcludedColumn references the value proposed for insertion.
	// PostgreSQL/SQLite: excluded."col"
	// MySQL: VALUES(`col`)
	ExcludedColumn(name string) string
}

// TypeMapper maps column kinds to SQL types.
type TypeMapper interface {
	ColumnType(kind ast.Kind) string
}

// DDLGenerator renders table definitions. Used to provision tables for
// examples and tests from the same metadata the compiler reads.
type DDLGenerator interface {
	CreateTableSQL(def *ast.TableDef) (string, error)
}

// Dialect is the full set of capabilities of one backend.
type Dialect interface {
	// Name returns the dialect name (postgres, sqlite, mysql).
	Name() string

	// DriverName returns the database/sql driver the dialect is used with by default.
	DriverName() string

	SQLFormatter
	FeatureDetector
	Upserter
	TypeMapper
	DDLGenerator
}

// Get returns the dialect implementation for the given name.
// Valid names: "postgres", "postgresql", "pgx", "sqlite", "sqlite3", "mysql".
// Returns nil if the dialect is not supported.
func Get(name string) Dialect {
	switch name {
	case "postgres", "postgresql", "pgx":
		return Postgres()
	case "sqlite", "sqlite3":
		return SQLite()
	case "mysql":
		return MySQL()
	default:
		return nil
	}
}

// Names returns the list of supported dialect names.
func Names() []string {
	return []string{"mysql", "postgres", "sqlite"}
}
