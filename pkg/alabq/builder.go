package alabq

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/hlop3z/alabq/internal/alerr"
	"github.com/hlop3z/alabq/internal/dialect"
	"github.com/hlop3z/alabq/internal/registry"
)

// Conn is a connection statements run on: *sql.DB, *sql.Tx or *sql.Conn.
type Conn interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Config configures a Builder.
type Config struct {
	// DB is the connection models run on. Model.DB rebinds it per model.
	DB Conn

	// Registry holds the tables and relations models are built from.
	Registry *Registry

	// Dialect is the SQL dialect: "postgres", "sqlite" or "mysql".
	Dialect string

	// Logger receives one Debug record per statement and a Warn record per
	// failure. Default: slog.Default().
	Logger *slog.Logger

	// Validator, when set, checks every insert, update and upsert payload.
	Validator Validator
}

// Builder hands out models that share one configuration.
// It is immutable and safe for concurrent use.
type Builder struct {
	db        Conn
	registry  *registry.Registry
	dialect   dialect.Dialect
	logger    *slog.Logger
	validator Validator
}

// NewBuilder validates cfg and returns a Builder.
func NewBuilder(cfg Config) (*Builder, error) {
	d := dialect.Get(cfg.Dialect)
	if d == nil {
		return nil, alerr.New(alerr.EUnsupportedDialect, "unsupported dialect").
			With("dialect", cfg.Dialect).
			With("supported", dialect.Names())
	}
	return newBuilder(cfg, d)
}

func newBuilder(cfg Config, d dialect.Dialect) (*Builder, error) {
	if cfg.DB == nil {
		return nil, alerr.New(alerr.ErrConfig, "a database connection is required")
	}
	if cfg.Registry == nil {
		return nil, alerr.New(alerr.ErrConfig, "a schema registry is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		db:        cfg.DB,
		registry:  cfg.Registry,
		dialect:   d,
		logger:    logger,
		validator: cfg.Validator,
	}, nil
}

// Model returns the model for table. Unknown tables fail with ErrSchemaNotFound.
func (b *Builder) Model(table string, opts Options) (Model, error) {
	def, err := b.registry.Table(table)
	if err != nil {
		return Model{}, err
	}
	return Model{b: b, conn: b.db, table: def, opts: opts.clone()}, nil
}

// MustModel is like Model but panics on error.
// Use it for package-level model variables over a known schema.
func (b *Builder) MustModel(table string, opts Options) Model {
	m, err := b.Model(table, opts)
	if err != nil {
		panic(err)
	}
	return m
}

// Dialect returns the dialect name.
func (b *Builder) Dialect() string {
	return b.dialect.Name()
}

// Tables returns the registered table names.
func (b *Builder) Tables() []string {
	return b.registry.Names()
}
