package registry

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/hlop3z/alabq/internal/alerr"
	"github.com/hlop3z/alabq/internal/ast"
)

func blogTables() []*ast.TableDef {
	return []*ast.TableDef{
		{
			Name: "users",
			Columns: []*ast.ColumnDef{
				{Name: "id", Kind: ast.KindInteger, PrimaryKey: true},
				{Name: "name", Kind: ast.KindText},
			},
			Relations: []*ast.RelationDef{
				{Name: "posts", Type: ast.RelationMany, Target: "posts", SourceColumns: []string{"id"}, TargetColumns: []string{"author_id"}},
			},
		},
		{
			Name: "posts",
			Columns: []*ast.ColumnDef{
				{Name: "id", Kind: ast.KindInteger, PrimaryKey: true},
				{Name: "author_id", Kind: ast.KindInteger},
			},
			Relations: []*ast.RelationDef{
				{Name: "author", Type: ast.RelationOne, Target: "users", SourceColumns: []string{"author_id"}, TargetColumns: []string{"id"}},
			},
		},
	}
}

func TestFromTables(t *testing.T) {
	r, err := FromTables(blogTables()...)
	if err != nil {
		t.Fatalf("FromTables() error = %v", err)
	}
	if r.Count() != 2 {
		t.Errorf("Count() = %d, want 2", r.Count())
	}
	if names := r.Names(); names[0] != "posts" || names[1] != "users" {
		t.Errorf("Names() = %v, want sorted", names)
	}
}

func TestRegister_Duplicate(t *testing.T) {
	r := New()
	tables := blogTables()
	if err := r.Register(tables[0]); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	err := r.Register(tables[0])
	if !alerr.Is(err, alerr.ErrSchemaDuplicate) {
		t.Errorf("expected ErrSchemaDuplicate, got %v", err)
	}
}

func TestRegister_Nil(t *testing.T) {
	if err := New().Register(nil); !alerr.Is(err, alerr.ErrSchemaInvalid) {
		t.Errorf("expected ErrSchemaInvalid, got %v", err)
	}
}

func TestRegister_StoresCopy(t *testing.T) {
	r := New()
	def := blogTables()[0]
	if err := r.Register(def); err != nil {
		t.Fatal(err)
	}
	def.Columns[1].Name = "mutated"

	got, _ := r.Get("users")
	if got.Columns[1].Name != "name" {
		t.Error("registry should not observe caller mutations")
	}
}

func TestTable_NotFound(t *testing.T) {
	r, _ := FromTables(blogTables()...)
	_, err := r.Table("user")
	if !alerr.Is(err, alerr.ErrSchemaNotFound) {
		t.Fatalf("expected ErrSchemaNotFound, got %v", err)
	}
	var e *alerr.Error
	e, _ = err.(*alerr.Error)
	if helps := e.Helps(); len(helps) != 1 || helps[0] != "did you mean 'users'?" {
		t.Errorf("helps = %v", helps)
	}
}

func TestRelation(t *testing.T) {
	r, _ := FromTables(blogTables()...)

	rel, err := r.Relation("users", "posts")
	if err != nil {
		t.Fatalf("Relation() error = %v", err)
	}
	if rel.Target != "posts" || !rel.IsMany() {
		t.Errorf("Relation() = %+v", rel)
	}

	_, err = r.Relation("users", "post")
	if !alerr.Is(err, alerr.ErrUnknownRelation) {
		t.Errorf("expected ErrUnknownRelation, got %v", err)
	}
}

func TestValidateRelations(t *testing.T) {
	t.Run("unknown target table", func(t *testing.T) {
		tables := blogTables()
		tables[0].Relations[0].Target = "articles"
		_, err := FromTables(tables...)
		if !alerr.Is(err, alerr.ErrSchemaNotFound) {
			t.Errorf("expected ErrSchemaNotFound, got %v", err)
		}
	})

	t.Run("unknown target column", func(t *testing.T) {
		tables := blogTables()
		tables[0].Relations[0].TargetColumns = []string{"user_id"}
		_, err := FromTables(tables...)
		if !alerr.Is(err, alerr.ErrUnknownColumn) {
			t.Errorf("expected ErrUnknownColumn, got %v", err)
		}
	})
}

func TestConcurrentReads(t *testing.T) {
	r, _ := FromTables(blogTables()...)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.Relation("posts", "author"); err != nil {
				t.Errorf("Relation() error = %v", err)
			}
		}()
	}
	wg.Wait()
}

// -----------------------------------------------------------------------------
// Document Loading Tests
// -----------------------------------------------------------------------------

const blogYAML = `
tables:
  - name: users
    columns:
      - {name: id, kind: integer, primary_key: true}
      - {name: name, kind: text}
    relations:
      - {name: posts, type: many, target: posts, source_columns: [id], target_columns: [author_id]}
  - name: posts
    columns:
      - {name: id, kind: integer, primary_key: true}
      - {name: author_id, kind: integer}
`

func TestParse(t *testing.T) {
	r, err := Parse([]byte(blogYAML))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	users, ok := r.Get("users")
	if !ok {
		t.Fatal("users not registered")
	}
	if pk := users.PrimaryKey(); len(pk) != 1 || pk[0] != "id" {
		t.Errorf("PrimaryKey() = %v", pk)
	}
	if rel := users.GetRelation("posts"); rel == nil || rel.TargetColumns[0] != "author_id" {
		t.Errorf("posts relation = %+v", rel)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		code alerr.Code
	}{
		{"malformed", "tables: [", alerr.ErrSchemaInvalid},
		{"unknown key", "tables:\n  - name: users\n    colums: []\n", alerr.ErrSchemaInvalid},
		{"empty", "tables: []\n", alerr.ErrSchemaInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			if !alerr.Is(err, tt.code) {
				t.Errorf("Parse() error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.yaml")
	if err := os.WriteFile(path, []byte(blogYAML), 0o600); err != nil {
		t.Fatal(err)
	}
	r, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if r.Count() != 2 {
		t.Errorf("Count() = %d, want 2", r.Count())
	}

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	if !alerr.Is(err, alerr.ErrSchemaNotFound) {
		t.Errorf("expected ErrSchemaNotFound, got %v", err)
	}
}
