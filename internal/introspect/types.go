package introspect

import (
	"strings"

	"github.com/hlop3z/alabq/internal/ast"
)

// PostgresKind maps an information_schema data_type to a column kind.
// Arrays, enums and other user-defined types arrive as text.
func PostgresKind(dataType string) ast.Kind {
	switch strings.ToLower(dataType) {
	case "smallint", "integer", "bigint":
		return ast.KindInteger
	case "real", "double precision":
		return ast.KindFloat
	case "numeric", "decimal", "money":
		return ast.KindDecimal
	case "boolean":
		return ast.KindBoolean
	case "date", "timestamp with time zone", "timestamp without time zone",
		"time with time zone", "time without time zone":
		return ast.KindTimestamp
	case "uuid":
		return ast.KindUUID
	case "json", "jsonb":
		return ast.KindJSON
	case "bytea":
		return ast.KindBlob
	default:
		return ast.KindText
	}
}

// SQLiteKind maps a declared SQLite column type to a column kind.
// SQLite has dynamic typing with type affinity, so the declared name is
// matched by the substrings SQLite's own affinity rules look at.
func SQLiteKind(declared string) ast.Kind {
	upper := strings.ToUpper(declared)

	switch {
	case strings.Contains(upper, "UUID"):
		return ast.KindUUID
	case strings.Contains(upper, "JSON"):
		return ast.KindJSON
	case strings.Contains(upper, "BOOL"):
		return ast.KindBoolean
	case strings.Contains(upper, "DATE"), strings.Contains(upper, "TIME"):
		return ast.KindTimestamp
	case strings.Contains(upper, "INT"):
		return ast.KindInteger
	case strings.Contains(upper, "CHAR"), strings.Contains(upper, "CLOB"), strings.Contains(upper, "TEXT"):
		return ast.KindText
	case strings.Contains(upper, "BLOB"):
		return ast.KindBlob
	case strings.Contains(upper, "REAL"), strings.Contains(upper, "FLOA"), strings.Contains(upper, "DOUB"):
		return ast.KindFloat
	case strings.Contains(upper, "NUMERIC"), strings.Contains(upper, "DECIMAL"):
		return ast.KindDecimal
	default:
		return ast.KindText
	}
}
