package joins

import (
	"github.com/hlop3z/alabq/internal/ast"
	"github.com/hlop3z/alabq/internal/sqlgen"
	"github.com/hlop3z/alabq/internal/where"
)

// Page limits and orders the base rows of a joined query.
type Page struct {
	Limit   int
	Offset  int
	OrderBy []sqlgen.Order
}

// span is where one table's columns sit in the flat select list.
type span struct {
	offset  int
	columns []string
}

// Query is a planned and compiled joined SELECT.
type Query struct {
	Plan  *Plan
	Stmt  *sqlgen.Select
	Kinds []ast.Kind

	base  span
	spans map[*Node]span
}

// Compile builds the SELECT for plan. whereExpr must reference the base table
// by its name. When the page limits rows and a relation can fan out, the base
// table is limited inside a derived table so that children are not cut off.
func Compile(plan *Plan, whereExpr sqlgen.Expr, page Page) (*Query, error) {
	base := plan.Base
	q := &Query{Plan: plan, spans: make(map[*Node]span, len(plan.Nodes))}
	stmt := &sqlgen.Select{}

	q.base = q.addColumns(stmt, base.Name, base)
	for _, n := range plan.Nodes {
		q.spans[n] = q.addColumns(stmt, n.Alias, n.Target)
	}

	var baseOrder []sqlgen.Order
	for _, c := range base.PrimaryKey() {
		baseOrder = append(baseOrder, sqlgen.Order{Expr: sqlgen.Col(base.Name, c)})
	}

	paged := page.Limit > 0 || page.Offset > 0
	if paged && plan.HasMany() {
		stmt.From = sqlgen.Table{
			Name:  base.Name,
			Alias: base.Name,
			Query: &sqlgen.Select{
				From:    sqlgen.Table{Name: base.Name},
				Where:   whereExpr,
				OrderBy: append(append([]sqlgen.Order(nil), page.OrderBy...), baseOrder...),
				Limit:   page.Limit,
				Offset:  page.Offset,
			},
		}
	} else {
		stmt.From = sqlgen.Table{Name: base.Name}
		stmt.Where = whereExpr
		stmt.Limit = page.Limit
		stmt.Offset = page.Offset
	}

	for _, n := range plan.Nodes {
		on, err := joinCondition(plan, n)
		if err != nil {
			return nil, err
		}
		stmt.Joins = append(stmt.Joins, sqlgen.Join{
			Table: sqlgen.Table{Name: n.Target.Name, Alias: n.Alias},
			On:    on,
		})
	}

	// Caller order first; primary keys make the child order stable.
	stmt.OrderBy = append(stmt.OrderBy, page.OrderBy...)
	if !plan.Empty() {
		stmt.OrderBy = append(stmt.OrderBy, baseOrder...)
		for _, n := range plan.Nodes {
			for _, c := range n.PK {
				stmt.OrderBy = append(stmt.OrderBy, sqlgen.Order{Expr: sqlgen.Col(n.Alias, c)})
			}
		}
	}

	q.Stmt = stmt
	return q, nil
}

func (q *Query) addColumns(stmt *sqlgen.Select, ref string, def *ast.TableDef) span {
	s := span{offset: len(stmt.Items), columns: def.ColumnNames()}
	for _, c := range def.Columns {
		stmt.Items = append(stmt.Items, sqlgen.SelectItem{Expr: sqlgen.Col(ref, c.Name)})
		q.Kinds = append(q.Kinds, c.Kind)
	}
	return s
}

// joinCondition equates each source column of the parent with the matching
// target column of the alias, plus the node's own filter.
func joinCondition(plan *Plan, n *Node) (sqlgen.Expr, error) {
	parentRef := plan.Base.Name
	if n.Parent != nil {
		parentRef = n.Parent.Alias
	}
	preds := make([]sqlgen.Expr, 0, len(n.Relation.SourceColumns)+1)
	for i, src := range n.Relation.SourceColumns {
		preds = append(preds, sqlgen.Eq(
			sqlgen.Col(n.Alias, n.Relation.TargetColumns[i]),
			sqlgen.Col(parentRef, src),
		))
	}
	if n.Filter != nil {
		filter, err := where.CompileWhere(where.NewSource(n.Target, n.Alias), n.Filter)
		if err != nil {
			return nil, err
		}
		preds = append(preds, filter)
	}
	return sqlgen.And(preds...), nil
}
