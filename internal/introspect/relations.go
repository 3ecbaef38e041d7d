package introspect

import (
	"fmt"
	"slices"
	"strings"

	"github.com/hlop3z/alabq/internal/ast"
)

// linkForeignKeys turns every foreign key between the given tables into a
// "one" relation on the referencing table and a "many" relation on the
// referenced table. Keys whose target is not among tables are skipped.
func linkForeignKeys(tables []*Table) {
	byName := make(map[string]*Table, len(tables))
	for _, t := range tables {
		byName[t.Def.Name] = t
	}

	for _, t := range tables {
		for _, fk := range t.ForeignKeys {
			target, ok := byName[fk.RefTable]
			if !ok {
				continue
			}
			refColumns := fk.RefColumns
			if len(refColumns) == 0 {
				refColumns = target.Def.PrimaryKey()
			}
			if len(refColumns) != len(fk.Columns) {
				continue
			}

			t.Def.Relations = append(t.Def.Relations, &ast.RelationDef{
				Name:          relationName(t.Def, oneNames(fk)...),
				Type:          ast.RelationOne,
				Target:        target.Def.Name,
				SourceColumns: slices.Clone(fk.Columns),
				TargetColumns: slices.Clone(refColumns),
			})
			target.Def.Relations = append(target.Def.Relations, &ast.RelationDef{
				Name:          relationName(target.Def, manyNames(t.Def.Name, fk)...),
				Type:          ast.RelationMany,
				Target:        t.Def.Name,
				SourceColumns: slices.Clone(refColumns),
				TargetColumns: slices.Clone(fk.Columns),
			})
		}
	}
}

// oneNames proposes names for the referencing side: posts.user_id -> "user",
// then the referenced table.
func oneNames(fk *ForeignKey) []string {
	var names []string
	if stem, ok := idStem(fk); ok {
		names = append(names, stem)
	}
	return append(names, fk.RefTable)
}

// manyNames proposes names for the referenced side: the referencing table,
// then "<table>_by_<stem>" for tables that reference it more than once.
func manyNames(source string, fk *ForeignKey) []string {
	names := []string{source}
	if stem, ok := idStem(fk); ok {
		names = append(names, source+"_by_"+stem)
	}
	return names
}

func idStem(fk *ForeignKey) (string, bool) {
	if len(fk.Columns) != 1 {
		return "", false
	}
	stem, ok := strings.CutSuffix(fk.Columns[0], "_id")
	return stem, ok && stem != ""
}

// relationName returns the first candidate that is neither a column nor a
// relation of def, or the first candidate with a numeric suffix.
func relationName(def *ast.TableDef, candidates ...string) string {
	taken := func(name string) bool {
		return def.HasColumn(name) || def.GetRelation(name) != nil
	}
	for _, c := range candidates {
		if !taken(c) {
			return c
		}
	}
	for i := 2; ; i++ {
		name := fmt.Sprintf("%s_%d", candidates[0], i)
		if !taken(name) {
			return name
		}
	}
}
