package engine

import (
	"encoding/json"

	"github.com/hlop3z/alabq/internal/ast"
)

// Normalize converts a scanned driver value to the shape callers see:
//   - []byte becomes string, except for blob columns, which get a copy
//   - json columns are decoded (left as text when they do not parse)
//   - integer booleans (SQLite, MySQL) become bool
//
// Everything else is returned unchanged.
func Normalize(v any, kind ast.Kind) any {
	switch x := v.(type) {
	case nil:
		return nil
	case []byte:
		switch kind {
		case ast.KindBlob:
			return append([]byte(nil), x...)
		case ast.KindJSON:
			return decodeJSON(x, string(x))
		}
		return string(x)
	case string:
		if kind == ast.KindJSON {
			return decodeJSON([]byte(x), x)
		}
	case int64:
		if kind == ast.KindBoolean {
			return x != 0
		}
	}
	return v
}

func decodeJSON(data []byte, fallback any) any {
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return fallback
	}
	return out
}
