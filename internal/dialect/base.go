package dialect

import (
	"strconv"
	"strings"

	"github.com/hlop3z/alabq/internal/alerr"
	"github.com/hlop3z/alabq/internal/ast"
)

// QuoteIdentFunc is a function that quotes an identifier.
type QuoteIdentFunc func(name string) string

// writeQuotedList writes comma-separated quoted identifiers to the builder.
func writeQuotedList(b *strings.Builder, items []string, quote QuoteIdentFunc) {
	for i, item := range items {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(quote(item))
	}
}

// quoteWith doubles every occurrence of q inside name and wraps it in q.
func quoteWith(name string, q string) string {
	return q + strings.ReplaceAll(name, q, q+q) + q
}

// lowerLike is the portable case-insensitive match.
func lowerLike(left, right string) string {
	return "LOWER(" + left + ") LIKE LOWER(" + right + ")"
}

// limitOffset renders LIMIT/OFFSET; noLimit is what the dialect accepts as
// "unbounded" when only an offset is given ("" if OFFSET may stand alone).
func limitOffset(limit, offset int, noLimit string) string {
	var b strings.Builder
	switch {
	case limit > 0:
		b.WriteString("LIMIT ")
		b.WriteString(strconv.Itoa(limit))
	case offset > 0 && noLimit != "":
		b.WriteString("LIMIT ")
		b.WriteString(noLimit)
	}
	if offset > 0 {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString("OFFSET ")
		b.WriteString(strconv.Itoa(offset))
	}
	return b.String()
}

// buildCreateTableSQL generates CREATE TABLE IF NOT EXISTS for a table definition.
// The primary key is emitted as a table constraint so composite keys work.
// With inlineIntegerPK a sole integer primary key is declared on the column
// itself, followed by autoIncrement when non-empty.
func buildCreateTableSQL(def *ast.TableDef, quoteIdent QuoteIdentFunc, mapper TypeMapper, inlineIntegerPK bool, autoIncrement string) (string, error) {
	if def == nil || def.Name == "" {
		return "", alerr.New(alerr.ErrSchemaInvalid, "table name is required")
	}
	if len(def.Columns) == 0 {
		return "", alerr.New(alerr.ErrSchemaInvalid, "table must have at least one column").
			WithTable(def.Name)
	}

	pk := def.DeclaredPrimaryKey()
	inlinePK := inlineIntegerPK && len(pk) == 1 && def.GetColumn(pk[0]).Kind == ast.KindInteger

	var b strings.Builder
	b.WriteString("CREATE TABLE IF NOT EXISTS ")
	b.WriteString(quoteIdent(def.Name))
	b.WriteString(" (\n")
	for i, col := range def.Columns {
		if i > 0 {
			b.WriteString(",\n")
		}
		b.WriteString("  ")
		b.WriteString(quoteIdent(col.Name))
		b.WriteByte(' ')
		b.WriteString(mapper.ColumnType(col.Kind))
		if inlinePK && col.Name == pk[0] {
			b.WriteString(" PRIMARY KEY")
			if autoIncrement != "" {
				b.WriteByte(' ')
				b.WriteString(autoIncrement)
			}
			continue
		}
		if !col.Nullable && !col.PrimaryKey {
			b.WriteString(" NOT NULL")
		}
	}
	if len(pk) > 0 && !inlinePK {
		b.WriteString(",\n  PRIMARY KEY (")
		writeQuotedList(&b, pk, quoteIdent)
		b.WriteString(")")
	}
	b.WriteString("\n)")
	return b.String(), nil
}
