// Package joins loads a base table together with a tree of relations in one
// LEFT JOIN query and re-nests the flat rows into objects.
package joins

import (
	"sort"
	"strconv"
	"strings"

	"github.com/hlop3z/alabq/internal/alerr"
	"github.com/hlop3z/alabq/internal/ast"
	"github.com/hlop3z/alabq/internal/registry"
	"github.com/hlop3z/alabq/internal/where"
)

// With names the relations to load. Values are true (load), false or nil
// (skip), a nested With (load and descend), or a where.ModelFilter (load,
// constraining the joined rows by the model's filter).
type With map[string]any

// Node is one joined relation.
type Node struct {
	Key      string   // relation name, the field the result is stored under
	Path     []string // relation names from the base table to this node
	Alias    string   // SQL alias of the joined table, unique in the query
	Relation *ast.RelationDef
	Target   *ast.TableDef
	PK       []string // target columns identifying a child row
	Filter   any      // where value applied to the joined rows, if any
	Parent   *Node    // nil for relations of the base table
	Children []*Node
}

// Many reports whether the node yields a list.
func (n *Node) Many() bool {
	return n.Relation.IsMany()
}

// Plan is the join tree for one query. Nodes is the preorder flattening.
type Plan struct {
	Base  *ast.TableDef
	Roots []*Node
	Nodes []*Node
}

// HasMany reports whether any joined relation can fan out rows.
func (p *Plan) HasMany() bool {
	for _, n := range p.Nodes {
		if n.Many() {
			return true
		}
	}
	return false
}

// Empty reports whether nothing is joined.
func (p *Plan) Empty() bool {
	return len(p.Nodes) == 0
}

// tableNamer is implemented by models, to check a model given in a With
// belongs to the relation's target table.
type tableNamer interface {
	Table() string
}

type planner struct {
	reg  *registry.Registry
	used map[string]bool
	plan *Plan
}

// BuildPlan walks with depth-first, in relation-name order, and resolves
// every relation. An unknown relation fails the whole plan.
func BuildPlan(reg *registry.Registry, base *ast.TableDef, with any) (*Plan, error) {
	p := &planner{
		reg:  reg,
		used: map[string]bool{base.Name: true},
		plan: &Plan{Base: base},
	}
	spec, err := asWith(with)
	if err != nil {
		return nil, err
	}
	roots, err := p.walk(base, nil, spec)
	if err != nil {
		return nil, err
	}
	p.plan.Roots = roots
	return p.plan, nil
}

func (p *planner) walk(source *ast.TableDef, parent *Node, spec With) ([]*Node, error) {
	keys := make([]string, 0, len(spec))
	for k := range spec {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var nodes []*Node
	for _, key := range keys {
		value := spec[key]
		if value == nil || value == false {
			continue
		}

		rel, err := p.reg.Relation(source.Name, key)
		if err != nil {
			return nil, err
		}
		target, err := p.reg.Table(rel.Target)
		if err != nil {
			return nil, err
		}

		node := &Node{
			Key:      key,
			Relation: rel,
			Target:   target,
			PK:       target.PrimaryKey(),
			Parent:   parent,
		}
		if parent != nil {
			node.Path = append(append([]string(nil), parent.Path...), key)
		} else {
			node.Path = []string{key}
		}
		node.Alias = p.alias(node.Path)
		p.plan.Nodes = append(p.plan.Nodes, node)

		var nested With
		switch v := value.(type) {
		case bool:
		case where.ModelFilter:
			if tn, ok := v.(tableNamer); ok && tn.Table() != target.Name {
				return nil, alerr.New(alerr.ErrInvalidValue, "model does not match the relation target").
					WithTable(source.Name).
					WithRelation(key).
					With("target", target.Name).
					With("model", tn.Table())
			}
			node.Filter = v.ModelFilter()
		default:
			nested, err = asWith(v)
			if err != nil {
				if e, ok := err.(*alerr.Error); ok {
					e.WithTable(source.Name).WithRelation(key)
				}
				return nil, err
			}
		}

		children, err := p.walk(target, node, nested)
		if err != nil {
			return nil, err
		}
		node.Children = children
		nodes = append(nodes, node)
	}
	return nodes, nil
}

// alias joins the path with "_" and suffixes _1, _2, ... until it is unused.
// The base table name is reserved.
func (p *planner) alias(path []string) string {
	base := strings.Join(path, "_")
	alias := base
	for i := 1; p.used[alias]; i++ {
		alias = base + "_" + strconv.Itoa(i)
	}
	p.used[alias] = true
	return alias
}

func asWith(v any) (With, error) {
	switch w := v.(type) {
	case nil:
		return nil, nil
	case With:
		return w, nil
	case map[string]any:
		return With(w), nil
	case map[string]bool:
		out := make(With, len(w))
		for k, b := range w {
			out[k] = b
		}
		return out, nil
	}
	return nil, alerr.New(alerr.ErrInvalidValue, "with value must be true, a nested map or a model").
		With("value", v)
}
