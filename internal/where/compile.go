package where

import (
	"fmt"
	"sort"

	"github.com/hlop3z/alabq/internal/alerr"
	"github.com/hlop3z/alabq/internal/ast"
	"github.com/hlop3z/alabq/internal/sqlgen"
)

// Table resolves column names for the where compiler.
type Table interface {
	// TableName is the name used in error messages.
	TableName() string
	// Column returns the column expression for name, qualified by the
	// table's name or alias.
	Column(name string) (sqlgen.Expr, bool)
	// ColumnNames lists the known columns, for suggestions.
	ColumnNames() []string
}

// Source is a Table backed by a table definition, referenced as ref
// (the table name or a join alias).
type Source struct {
	def *ast.TableDef
	ref string
}

// NewSource returns a Source for def. An empty ref uses the table name.
func NewSource(def *ast.TableDef, ref string) Source {
	if ref == "" {
		ref = def.Name
	}
	return Source{def: def, ref: ref}
}

func (s Source) TableName() string {
	return s.def.Name
}

func (s Source) Column(name string) (sqlgen.Expr, bool) {
	if !s.def.HasColumn(name) {
		return nil, false
	}
	return sqlgen.Col(s.ref, name), true
}

func (s Source) ColumnNames() []string {
	return s.def.ColumnNames()
}

// CompileWhere compiles a table-shaped where value into one predicate.
//
// A nil result means "no constraint". Predicates (sqlgen.Expr) pass through.
// Map entries with nil values are skipped; the rest are compiled in key order
// and ANDed.
func CompileWhere(table Table, value any) (sqlgen.Expr, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case ModelFilter:
		return nil, alerr.NewNotImplementedError("using a model as a where value").
			WithTable(table.TableName())
	case sqlgen.Expr:
		return v, nil
	case Map:
		return compileEntries(table, v)
	case map[string]any:
		return compileEntries(table, v)
	case All:
		preds := make([]sqlgen.Expr, 0, len(v))
		for _, item := range v {
			pred, err := CompileWhere(table, item)
			if err != nil {
				return nil, err
			}
			preds = append(preds, pred)
		}
		return sqlgen.And(preds...), nil
	}
	return nil, alerr.New(alerr.ErrInvalidValue, "where value must be a map of column filters or a predicate").
		WithTable(table.TableName()).
		With("type", fmt.Sprintf("%T", value))
}

func compileEntries(table Table, m map[string]any) (sqlgen.Expr, error) {
	keys := make([]string, 0, len(m))
	for k, v := range m {
		if v != nil {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	preds := make([]sqlgen.Expr, 0, len(keys))
	for _, k := range keys {
		v := m[k]
		col, ok := table.Column(k)
		if !ok {
			if isObject(v) {
				return nil, alerr.NewNotImplementedError("filtering on relation fields").
					WithTable(table.TableName()).
					WithRelation(k)
			}
			return nil, alerr.NewUnknownColumnError(table.TableName(), k, table.ColumnNames())
		}
		pred, err := CompileColumnValue(col, v)
		if err != nil {
			if e, ok := err.(*alerr.Error); ok {
				e.WithColumn(k)
			}
			return nil, err
		}
		if pred != nil {
			preds = append(preds, pred)
		}
	}
	return sqlgen.And(preds...), nil
}

// CompileColumnValue compiles the filter value for one column.
// Scalars compile to equality. A nil result means "no constraint".
func CompileColumnValue(col sqlgen.Expr, value any) (sqlgen.Expr, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case Equals:
		return sqlgen.Eq(col, v.V), nil
	case RawOp:
		fn, ok := sqlgen.Comparison(v.Operator)
		if !ok {
			return nil, alerr.Newf(alerr.ErrInvalidOperator, "unsupported operator %q", v.Operator).
				WithHelp("use one of eq, ne, gt, gte, lt, lte, like, ilike, notLike, notIlike, in, nin")
		}
		return fn(col, v.Operand), nil
	case Filter:
		return compileFilter(col, &v)
	case *Filter:
		if v == nil {
			return nil, nil
		}
		return compileFilter(col, v)
	case Map:
		return compileMap(col, v)
	case map[string]any:
		return compileMap(col, v)
	case ModelFilter:
		return nil, alerr.NewNotImplementedError("using a model as a column filter")
	}
	return sqlgen.Eq(col, value), nil
}

func compileMap(col sqlgen.Expr, m map[string]any) (sqlgen.Expr, error) {
	f, err := FromMap(m)
	if err != nil {
		return nil, err
	}
	return compileFilter(col, &f)
}

func compileFilter(col sqlgen.Expr, f *Filter) (sqlgen.Expr, error) {
	var preds []sqlgen.Expr
	add := func(e sqlgen.Expr) { preds = append(preds, e) }

	if f.Eq != nil {
		add(sqlgen.Eq(col, f.Eq))
	}
	if f.Equal != nil {
		add(sqlgen.Eq(col, f.Equal))
	}
	if f.Not != nil {
		if isObject(f.Not) {
			sub, err := CompileColumnValue(col, f.Not)
			if err != nil {
				return nil, err
			}
			if sub != nil {
				add(sqlgen.Not(sub))
			}
		} else {
			add(sqlgen.Ne(col, f.Not))
		}
	}
	if f.In != nil {
		add(sqlgen.In(col, f.In))
	}
	if f.Nin != nil {
		add(sqlgen.NotIn(col, f.Nin))
	}
	if f.IsNull != nil {
		if *f.IsNull {
			add(sqlgen.IsNull(col))
		} else {
			add(sqlgen.IsNotNull(col))
		}
	}
	if f.Gt != nil {
		add(sqlgen.Gt(col, f.Gt))
	}
	if f.Gte != nil {
		add(sqlgen.Gte(col, f.Gte))
	}
	if f.Lt != nil {
		add(sqlgen.Lt(col, f.Lt))
	}
	if f.Lte != nil {
		add(sqlgen.Lte(col, f.Lte))
	}
	if f.Between != nil {
		if len(f.Between) != 2 {
			return nil, rangeError("between", f.Between)
		}
		add(sqlgen.Between(col, f.Between[0], f.Between[1]))
	}
	if f.NotBetween != nil {
		if len(f.NotBetween) != 2 {
			return nil, rangeError("notBetween", f.NotBetween)
		}
		add(sqlgen.NotBetween(col, f.NotBetween[0], f.NotBetween[1]))
	}
	if f.Like != nil {
		add(sqlgen.Like(col, f.Like))
	}
	if f.Ilike != nil {
		add(sqlgen.ILike(col, f.Ilike))
	}
	if f.Or != nil {
		sub, err := compileGroup(col, f.Or, sqlgen.Or)
		if err != nil {
			return nil, err
		}
		if sub != nil {
			add(sub)
		}
	}
	if f.And != nil {
		sub, err := compileGroup(col, f.And, sqlgen.And)
		if err != nil {
			return nil, err
		}
		if sub != nil {
			add(sub)
		}
	}
	return sqlgen.And(preds...), nil
}

// compileGroup compiles every item of an or/and list. Items that compile to
// no constraint are dropped.
func compileGroup(col sqlgen.Expr, items []any, join func(...sqlgen.Expr) sqlgen.Expr) (sqlgen.Expr, error) {
	subs := make([]sqlgen.Expr, 0, len(items))
	for _, item := range items {
		sub, err := CompileColumnValue(col, item)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return join(subs...), nil
}

func rangeError(key string, got []any) error {
	return alerr.Newf(alerr.ErrInvalidValue, "%s expects exactly two bounds", key).
		With("value", got)
}
