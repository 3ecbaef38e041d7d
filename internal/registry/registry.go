// Package registry holds the table and relation metadata a model runtime is
// built from. A Registry is filled once, validated, and then only read.
package registry

import (
	"slices"
	"sync"

	"github.com/hlop3z/alabq/internal/alerr"
	"github.com/hlop3z/alabq/internal/ast"
)

// Registry stores table definitions by table name.
// Access is guarded so that loading may happen from several goroutines;
// after loading every method is a read.
type Registry struct {
	tables map[string]*ast.TableDef
	mu     sync.RWMutex
}

// New creates a new empty Registry.
func New() *Registry {
	return &Registry{
		tables: make(map[string]*ast.TableDef),
	}
}

// FromTables registers every table and validates the relations between them.
func FromTables(defs ...*ast.TableDef) (*Registry, error) {
	r := New()
	for _, def := range defs {
		if err := r.Register(def); err != nil {
			return nil, err
		}
	}
	if err := r.ValidateRelations(); err != nil {
		return nil, err
	}
	return r, nil
}

// Register validates a table definition and stores a private copy of it.
// Returns an error if a table with the same name already exists.
func (r *Registry) Register(def *ast.TableDef) error {
	if def == nil {
		return alerr.New(alerr.ErrSchemaInvalid, "table definition cannot be nil")
	}
	if err := def.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tables[def.Name]; exists {
		return alerr.New(alerr.ErrSchemaDuplicate, "table already registered").
			WithTable(def.Name)
	}

	r.tables[def.Name] = def.Clone()
	return nil
}

// Get retrieves a table definition by name.
func (r *Registry) Get(name string) (*ast.TableDef, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.tables[name]
	return def, ok
}

// Table retrieves a table definition by name, failing with ErrSchemaNotFound.
func (r *Registry) Table(name string) (*ast.TableDef, error) {
	def, ok := r.Get(name)
	if !ok {
		e := alerr.New(alerr.ErrSchemaNotFound, "table not found").WithTable(name)
		if s := alerr.SuggestSimilar(name, r.Names()); s != "" {
			e.WithHelp(s)
		}
		return nil, e
	}
	return def, nil
}

// Relation resolves relation name on table, failing with ErrUnknownRelation.
func (r *Registry) Relation(table, name string) (*ast.RelationDef, error) {
	def, err := r.Table(table)
	if err != nil {
		return nil, err
	}
	rel := def.GetRelation(name)
	if rel == nil {
		return nil, alerr.NewUnknownRelationError(table, name, def.RelationNames())
	}
	return rel, nil
}

// Names returns the registered table names in alphabetical order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tables))
	for name := range r.tables {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Count returns the total number of registered tables.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.tables)
}

// ValidateRelations checks that every relation targets a registered table and
// that its target columns exist there.
func (r *Registry) ValidateRelations() error {
	for _, name := range r.Names() {
		def, _ := r.Get(name)
		for _, rel := range def.Relations {
			target, ok := r.Get(rel.Target)
			if !ok {
				e := alerr.New(alerr.ErrSchemaNotFound, "relation targets an unknown table").
					WithTable(def.Name).
					WithRelation(rel.Name).
					With("target", rel.Target)
				if s := alerr.SuggestSimilar(rel.Target, r.Names()); s != "" {
					e.WithHelp(s)
				}
				return e
			}
			for _, col := range rel.TargetColumns {
				if !target.HasColumn(col) {
					return alerr.NewUnknownColumnError(target.Name, col, target.ColumnNames()).
						WithRelation(def.Name + "." + rel.Name)
				}
			}
		}
	}
	return nil
}
