package dialect

import (
	"strings"
	"testing"

	"github.com/hlop3z/alabq/internal/ast"
)

func TestGet(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"postgres", "postgres"},
		{"postgresql", "postgres"},
		{"pgx", "postgres"},
		{"sqlite", "sqlite"},
		{"sqlite3", "sqlite"},
		{"mysql", "mysql"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Get(tt.name)
			if d == nil {
				t.Fatalf("Get(%q) = nil", tt.name)
			}
			if d.Name() != tt.want {
				t.Errorf("Get(%q).Name() = %q, want %q", tt.name, d.Name(), tt.want)
			}
		})
	}

	if Get("oracle") != nil {
		t.Error("Get(oracle) should be nil")
	}
}

func TestFormatting(t *testing.T) {
	tests := []struct {
		dialect     Dialect
		quote       string
		placeholder string
		ilike       string
	}{
		{Postgres(), `"users"`, "$3", `"a" ILIKE $1`},
		{SQLite(), `"users"`, "?", `LOWER("a") LIKE LOWER($1)`},
		{MySQL(), "`users`", "?", `LOWER("a") LIKE LOWER($1)`},
	}
	for _, tt := range tests {
		t.Run(tt.dialect.Name(), func(t *testing.T) {
			if got := tt.dialect.QuoteIdent("users"); got != tt.quote {
				t.Errorf("QuoteIdent() = %q, want %q", got, tt.quote)
			}
			if got := tt.dialect.Placeholder(3); got != tt.placeholder {
				t.Errorf("Placeholder(3) = %q, want %q", got, tt.placeholder)
			}
			if got := tt.dialect.ILike(`"a"`, "$1"); got != tt.ilike {
				t.Errorf("ILike() = %q, want %q", got, tt.ilike)
			}
		})
	}
}

func TestLimitOffset(t *testing.T) {
	tests := []struct {
		name          string
		dialect       Dialect
		limit, offset int
		want          string
	}{
		{"none", Postgres(), 0, 0, ""},
		{"postgres_limit", Postgres(), 10, 0, "LIMIT 10"},
		{"postgres_both", Postgres(), 10, 20, "LIMIT 10 OFFSET 20"},
		{"postgres_offset_only", Postgres(), 0, 5, "OFFSET 5"},
		{"sqlite_offset_only", SQLite(), 0, 5, "LIMIT -1 OFFSET 5"},
		{"mysql_offset_only", MySQL(), 0, 5, "LIMIT 18446744073709551615 OFFSET 5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.dialect.LimitOffset(tt.limit, tt.offset); got != tt.want {
				t.Errorf("LimitOffset(%d, %d) = %q, want %q", tt.limit, tt.offset, got, tt.want)
			}
		})
	}
}

func TestConflictHandling(t *testing.T) {
	target := []string{"email", "org_id"}

	if got := Postgres().OnConflictUpdate(target); got != `ON CONFLICT ("email", "org_id") DO UPDATE SET` {
		t.Errorf("postgres OnConflictUpdate() = %q", got)
	}
	if got := SQLite().ExcludedColumn("name"); got != `excluded."name"` {
		t.Errorf("sqlite ExcludedColumn() = %q", got)
	}
	if got := MySQL().OnConflictUpdate(target); got != "ON DUPLICATE KEY UPDATE" {
		t.Errorf("mysql OnConflictUpdate() = %q", got)
	}
	if got := MySQL().ExcludedColumn("name"); got != "VALUES(`name`)" {
		t.Errorf("mysql ExcludedColumn() = %q", got)
	}
}

func TestReturning(t *testing.T) {
	if Postgres().Returning() != ReturningRows || SQLite().Returning() != ReturningRows {
		t.Error("postgres and sqlite return rows")
	}
	if MySQL().Returning() != ReturningIDs {
		t.Error("mysql returns ids only")
	}
	if ReturningIDs.String() != "ids" || ReturningMode(9).String() != "unknown" {
		t.Error("ReturningMode.String()")
	}
}

func TestDefaultValue(t *testing.T) {
	tests := []struct {
		d    Dialect
		want string
	}{
		{Postgres(), "DEFAULT"},
		{MySQL(), "DEFAULT"},
		{SQLite(), "NULL"},
	}
	for _, tt := range tests {
		if got := tt.d.DefaultValue(); got != tt.want {
			t.Errorf("%s DefaultValue() = %q, want %q", tt.d.Name(), got, tt.want)
		}
	}
}

func TestCreateTableSQL(t *testing.T) {
	def := &ast.TableDef{
		Name: "users",
		Columns: []*ast.ColumnDef{
			{Name: "id", Kind: ast.KindInteger, PrimaryKey: true},
			{Name: "name", Kind: ast.KindText},
			{Name: "active", Kind: ast.KindBoolean, Nullable: true},
		},
	}

	t.Run("sqlite", func(t *testing.T) {
		got, err := SQLite().CreateTableSQL(def)
		if err != nil {
			t.Fatal(err)
		}
		for _, want := range []string{
			`CREATE TABLE IF NOT EXISTS "users"`,
			`"id" INTEGER PRIMARY KEY,`,
			`"name" TEXT NOT NULL`,
			`"active" INTEGER`,
		} {
			if !strings.Contains(got, want) {
				t.Errorf("CreateTableSQL() missing %q in:\n%s", want, got)
			}
		}
	})

	t.Run("mysql", func(t *testing.T) {
		got, _ := MySQL().CreateTableSQL(def)
		if !strings.Contains(got, "`id` BIGINT PRIMARY KEY AUTO_INCREMENT") {
			t.Errorf("CreateTableSQL() = %s", got)
		}
	})

	t.Run("postgres", func(t *testing.T) {
		got, _ := Postgres().CreateTableSQL(def)
		if !strings.Contains(got, `"id" BIGINT PRIMARY KEY GENERATED BY DEFAULT AS IDENTITY`) {
			t.Errorf("CreateTableSQL() = %s", got)
		}
	})

	t.Run("composite key", func(t *testing.T) {
		tags := &ast.TableDef{
			Name: "post_tags",
			Columns: []*ast.ColumnDef{
				{Name: "post_id", Kind: ast.KindInteger, PrimaryKey: true},
				{Name: "tag_id", Kind: ast.KindInteger, PrimaryKey: true},
			},
		}
		got, _ := SQLite().CreateTableSQL(tags)
		if !strings.Contains(got, `PRIMARY KEY ("post_id", "tag_id")`) {
			t.Errorf("CreateTableSQL() = %s", got)
		}
	})

	t.Run("no columns", func(t *testing.T) {
		if _, err := SQLite().CreateTableSQL(&ast.TableDef{Name: "x"}); err == nil {
			t.Error("expected error")
		}
	})
}
