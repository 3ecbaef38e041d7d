package joins

import (
	"fmt"
	"strings"
)

// Row is one assembled object.
type Row = map[string]any

// Assemble groups flat joined rows into base objects with nested relations.
//
// Every object is identified by its parent's identity, the join alias and
// its own primary key, so the result does not depend on row order. A relation
// with no match is nil ("one") or an empty list ("many"). Base objects keep
// the order in which they first appear.
func (q *Query) Assemble(rows [][]any) []Row {
	var roots []Row
	objects := make(map[string]Row)
	keys := make(map[*Node]string, len(q.Plan.Nodes))

	basePK := q.Plan.Base.PrimaryKey()
	for _, row := range rows {
		baseVals := slice(row, q.base)
		rootKey := "base:" + identity(q.base.columns, baseVals, basePK)
		if _, ok := objects[rootKey]; !ok {
			obj := object(q.base.columns, baseVals)
			objects[rootKey] = obj
			roots = append(roots, obj)
		}

		for _, n := range q.Plan.Nodes {
			parentKey := rootKey
			if n.Parent != nil {
				parentKey = keys[n.Parent]
			}
			keys[n] = ""
			if parentKey == "" {
				continue
			}
			parent := objects[parentKey]

			sp := q.spans[n]
			vals := slice(row, sp)
			if allNil(vals) {
				if _, set := parent[n.Key]; !set {
					if n.Many() {
						parent[n.Key] = []Row{}
					} else {
						parent[n.Key] = nil
					}
				}
				continue
			}

			key := parentKey + "/" + n.Alias + ":" + identity(sp.columns, vals, n.PK)
			keys[n] = key
			if _, seen := objects[key]; seen {
				continue
			}
			child := object(sp.columns, vals)
			objects[key] = child
			if n.Many() {
				list, _ := parent[n.Key].([]Row)
				parent[n.Key] = append(list, child)
			} else {
				parent[n.Key] = child
			}
		}
	}
	return roots
}

func slice(row []any, s span) []any {
	return row[s.offset : s.offset+len(s.columns)]
}

func object(columns []string, vals []any) Row {
	obj := make(Row, len(columns))
	for i, c := range columns {
		obj[c] = vals[i]
	}
	return obj
}

func allNil(vals []any) bool {
	for _, v := range vals {
		if v != nil {
			return false
		}
	}
	return true
}

// identity renders the primary-key values of a row as a map key. Types are
// included so that 1 and "1" stay distinct.
func identity(columns []string, vals []any, pk []string) string {
	var b strings.Builder
	for _, col := range pk {
		for i, c := range columns {
			if c == col {
				fmt.Fprintf(&b, "%T=%v;", vals[i], vals[i])
				break
			}
		}
	}
	return b.String()
}
