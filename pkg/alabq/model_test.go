package alabq

import (
	"errors"
	"strings"
	"testing"

	"github.com/hlop3z/alabq/internal/testutil"
)

func TestNewBuilder(t *testing.T) {
	reg, err := ParseSchema([]byte(blogSchema))
	testutil.Must(t, err)
	db := testutil.SetupSQLite(t)

	b, err := NewBuilder(Config{DB: db, Registry: reg, Dialect: "sqlite"})
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, b.Dialect(), "sqlite")
	testutil.AssertDeepEqual(t, b.Tables(), []string{"comments", "posts", "users"})

	_, err = NewBuilder(Config{DB: db, Registry: reg, Dialect: "oracle"})
	if !errors.Is(err, ErrUnsupportedDialect) {
		t.Errorf("unsupported dialect error = %v", err)
	}
	testutil.AssertErrorContains(t, err, "oracle")

	_, err = NewBuilder(Config{Registry: reg, Dialect: "sqlite"})
	if !errors.Is(err, ErrConfig) {
		t.Errorf("nil DB error = %v", err)
	}
	_, err = NewBuilder(Config{DB: db, Dialect: "sqlite"})
	if !errors.Is(err, ErrConfig) {
		t.Errorf("nil registry error = %v", err)
	}
}

func TestModelUnknownTable(t *testing.T) {
	f := newFixture(t)

	_, err := f.b.Model("usres", Options{})
	if !errors.Is(err, ErrSchemaNotFound) {
		t.Fatalf("error = %v, want ErrSchemaNotFound", err)
	}
	testutil.AssertErrorContains(t, err, "did you mean 'users'")

	defer func() {
		if recover() == nil {
			t.Error("MustModel should panic on an unknown table")
		}
	}()
	f.b.MustModel("nope", Options{})
}

func TestModelAccessors(t *testing.T) {
	f := newFixture(t)
	users := f.model(t, "users", Options{})

	testutil.AssertEqual(t, users.Table(), "users")
	testutil.AssertDeepEqual(t, users.Columns(), []string{"id", "name", "age"})
	if users.Filter() != nil {
		t.Errorf("Filter() = %v, want nil", users.Filter())
	}

	var zero Model
	testutil.AssertEqual(t, zero.Table(), "")
	if _, err := zero.FindMany().Exec(ctx); !errors.Is(err, ErrConfig) {
		t.Errorf("zero model error = %v, want ErrConfig", err)
	}
}

func TestModelIsImmutable(t *testing.T) {
	f := newFixture(t)
	users := f.model(t, "users", Options{})

	adults := users.Where(Map{"age": Filter{Gte: 18}})
	if users.Filter() != nil {
		t.Error("Where modified the receiver")
	}

	all, err := users.FindMany().Exec(ctx)
	testutil.AssertNoError(t, err)
	testutil.AssertLen(t, all, 3)

	grown, err := adults.FindMany().Exec(ctx)
	testutil.AssertNoError(t, err)
	testutil.AssertLen(t, grown, 2)

	extended := users.Extend(Options{Methods: map[string]Method{"noop": func(Model, ...any) (any, error) { return nil, nil }}})
	testutil.AssertLen(t, users.Methods(), 0)
	testutil.AssertDeepEqual(t, extended.Methods(), []string{"noop"})
}

func TestExtendAndCall(t *testing.T) {
	f := newFixture(t)
	users := f.model(t, "users", Options{
		Methods: map[string]Method{
			"adults": func(m Model, _ ...any) (any, error) {
				return m.Where(Map{"age": Filter{Gte: 18}}).FindMany().Exec(ctx)
			},
		},
	})

	extended := users.Extend(Options{
		Methods: map[string]Method{
			"byName": func(m Model, args ...any) (any, error) {
				return m.Where(Map{"name": args[0]}).FindFirst().Exec(ctx)
			},
			// Custom methods win over built-ins.
			"delete": func(Model, ...any) (any, error) {
				return "soft", nil
			},
		},
		Format: func(r Row) Row {
			r["name"] = strings.ToUpper(r["name"].(string))
			return r
		},
	})
	testutil.AssertDeepEqual(t, extended.Methods(), []string{"adults", "byName", "delete"})

	out, err := extended.Call("adults")
	testutil.AssertNoError(t, err)
	testutil.AssertDeepEqual(t, ids(out.([]Row)), []any{int64(1), int64(3)})

	out, err = extended.Call("byName", "Bob")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, out.(Row)["name"], any("BOB"))

	out, err = extended.Call("delete")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, out, any("soft"))
	testutil.AssertRowCount(t, f.db, "users", 3)

	// The original model still has only its own method.
	if _, err := users.Call("byName", "Bob"); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("users.Call(byName) error = %v", err)
	}
}

func TestCallBuiltins(t *testing.T) {
	f := newFixture(t)
	users := f.model(t, "users", Options{})

	out, err := users.Call("where", Map{"id": 2})
	testutil.AssertNoError(t, err)
	bob := out.(Model)

	q, err := bob.Call("findFirst")
	testutil.AssertNoError(t, err)
	row, err := q.(Query[Row]).Exec(ctx)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, row["name"], any("Bob"))

	mu, err := users.Call("insert", Row{"name": "Dana"}, []Row{{"name": "Eve"}})
	testutil.AssertNoError(t, err)
	res, err := mu.(Mutation).Exec(ctx)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, res.RowsAffected, int64(2))

	mu, err = bob.Call("update", Row{"age": 18})
	testutil.AssertNoError(t, err)
	_, err = mu.(Mutation).Exec(ctx)
	testutil.AssertNoError(t, err)

	mu, err = users.Call("upsert", Upsert{Insert: Row{"id": 2, "name": "Robert"}})
	testutil.AssertNoError(t, err)
	_, err = mu.(Mutation).Exec(ctx)
	testutil.AssertNoError(t, err)

	row, err = bob.FindFirst().Exec(ctx)
	testutil.AssertNoError(t, err)
	testutil.AssertDeepEqual(t, row, Row{"id": int64(2), "name": "Robert", "age": int64(18)})

	spec := Spec{"name": true}
	out, err = users.Call("include", spec)
	testutil.AssertNoError(t, err)
	testutil.AssertDeepEqual(t, out, any(spec))
}

func TestCallErrors(t *testing.T) {
	f := newFixture(t)
	users := f.model(t, "users", Options{})

	tests := []struct {
		name   string
		method string
		args   []any
		want   string
	}{
		{"unknown", "findMnay", nil, "did you mean 'findMany'"},
		{"where arity", "where", nil, "where takes 1 argument(s), got 0"},
		{"update type", "update", []any{42}, "update expects Row, got int"},
		{"insert type", "insert", []any{"x"}, "insert expects Row or []Row, got string"},
		{"upsert arity", "upsert", []any{1, 2}, "upsert takes 1 argument(s), got 2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := users.Call(tt.method, tt.args...)
			if !errors.Is(err, ErrInvalidValue) {
				t.Fatalf("error = %v, want ErrInvalidValue", err)
			}
			testutil.AssertErrorContains(t, err, tt.want)
		})
	}
}

func TestIncludeIsIdentity(t *testing.T) {
	f := newFixture(t)
	posts := f.model(t, "posts", Options{})
	users := f.model(t, "users", Options{})

	with := users.Include(With{"posts": posts.Include(With{"comments": true})})
	rows, err := users.Where(Map{"id": 1}).FindMany().With(with).Exec(ctx)
	testutil.AssertNoError(t, err)
	testutil.AssertLen(t, rows, 1)
	testutil.AssertLen(t, rows[0]["posts"].([]Row), 2)
}

func TestModelDBRunsInTransaction(t *testing.T) {
	f := newFixture(t)
	users := f.model(t, "users", Options{})

	tx, err := f.db.BeginTx(ctx, nil)
	testutil.AssertNoError(t, err)

	inTx := users.DB(tx)
	_, err = inTx.Insert(Row{"name": "Dana"}).Exec(ctx)
	testutil.AssertNoError(t, err)

	rows, err := inTx.FindMany().Exec(ctx)
	testutil.AssertNoError(t, err)
	testutil.AssertLen(t, rows, 4)

	testutil.AssertNoError(t, tx.Rollback())
	testutil.AssertRowCount(t, f.db, "users", 3)

	// A finished transaction surfaces as an execution error.
	_, err = inTx.FindMany().Exec(ctx)
	if !errors.Is(err, ErrSQLExecution) {
		t.Errorf("error after rollback = %v, want ErrSQLExecution", err)
	}
}
