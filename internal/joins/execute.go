package joins

import (
	"context"

	"github.com/hlop3z/alabq/internal/ast"
	"github.com/hlop3z/alabq/internal/engine"
	"github.com/hlop3z/alabq/internal/registry"
	"github.com/hlop3z/alabq/internal/sqlgen"
)

// Params describes one joined load.
type Params struct {
	Runner   *engine.Runner
	Registry *registry.Registry
	Base     *ast.TableDef
	Where    sqlgen.Expr // compiled against the base table name
	With     any
	LimitOne bool
	Page     Page
}

// Prepare plans and compiles the query without running it.
func Prepare(p Params) (*Query, error) {
	plan, err := BuildPlan(p.Registry, p.Base, p.With)
	if err != nil {
		return nil, err
	}
	page := p.Page
	if p.LimitOne {
		page.Limit = 1
	}
	return Compile(plan, p.Where, page)
}

// Execute plans, runs and assembles a joined load. The result is a []Row, or
// with LimitOne a single Row (nil when nothing matched).
func Execute(ctx context.Context, p Params) (any, error) {
	q, err := Prepare(p)
	if err != nil {
		return nil, err
	}

	res, err := p.Runner.Query(ctx, engine.Statement{
		Op:    "select rows with relations",
		Table: p.Base.Name,
		Expr:  q.Stmt,
	}, q.Kinds)
	if err != nil {
		return nil, err
	}

	roots := q.Assemble(res.Rows)
	if p.LimitOne {
		if len(roots) == 0 {
			return Row(nil), nil
		}
		return roots[0], nil
	}
	if roots == nil {
		roots = []Row{}
	}
	return roots, nil
}
