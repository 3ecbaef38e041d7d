package alabq

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/hlop3z/alabq/internal/alerr"
)

// FileConfig represents an alabq.yaml configuration file:
//
//	database:
//	  url: ${DATABASE_URL}
//	  dialect: postgres
//	  driver: pgx
//	  max_open_conns: 20
//	  timeout: 10s
//	schema: ./schema.yaml
//	rules: ./rules.cue
//
// Without a schema, introspect: true reads the tables from the database.
//
// ${VAR} references are expanded from the environment after a .env file next
// to the config file (if any) has been loaded.
type FileConfig struct {
	Database   DatabaseConfig `yaml:"database"`
	Schema     string         `yaml:"schema"`
	Introspect bool           `yaml:"introspect"`
	Rules      string         `yaml:"rules"`

	dir string
}

// DatabaseConfig is the database section of FileConfig.
type DatabaseConfig struct {
	URL          string        `yaml:"url"`
	Dialect      string        `yaml:"dialect"`
	Driver       string        `yaml:"driver"`
	MaxOpenConns int           `yaml:"max_open_conns"`
	Timeout      time.Duration `yaml:"timeout"`
}

// LoadConfig loads configuration from file and env vars.
// Precedence: env vars > config file.
func LoadConfig(path string) (*FileConfig, error) {
	dir := filepath.Dir(path)
	if err := loadEnv(filepath.Join(dir, ".env")); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, alerr.Wrap(alerr.ErrConfig, err, "failed to read config file").With("file", path)
	}
	cfg := &FileConfig{dir: dir}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, alerr.Wrap(alerr.ErrConfig, err, "failed to parse config file").With("file", path)
	}

	cfg.Database.URL = expandEnvVars(cfg.Database.URL)
	cfg.Schema = expandEnvVars(cfg.Schema)
	cfg.Rules = expandEnvVars(cfg.Rules)

	if envURL := os.Getenv("DATABASE_URL"); envURL != "" {
		cfg.Database.URL = envURL
	}
	if envDialect := os.Getenv("ALABQ_DIALECT"); envDialect != "" {
		cfg.Database.Dialect = envDialect
	}
	return cfg, nil
}

// loadEnv loads a .env file without overriding variables already set.
// A missing file is not an error.
func loadEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return alerr.Wrap(alerr.ErrConfig, err, "failed to load env file").With("file", path)
	}
	return nil
}

// expandEnvVars expands ${VAR} patterns in a string.
func expandEnvVars(s string) string {
	return os.Expand(s, os.Getenv)
}

// Options converts the file into Open options. Relative schema and rules
// paths are resolved against the config file's directory.
func (c *FileConfig) Options() []Option {
	opts := []Option{WithDatabaseURL(c.Database.URL)}
	if c.Database.Dialect != "" {
		opts = append(opts, WithDialect(c.Database.Dialect))
	}
	if c.Database.Driver != "" {
		opts = append(opts, WithDriver(c.Database.Driver))
	}
	if c.Database.MaxOpenConns > 0 {
		opts = append(opts, WithMaxOpenConns(c.Database.MaxOpenConns))
	}
	if c.Database.Timeout > 0 {
		opts = append(opts, WithTimeout(c.Database.Timeout))
	}
	if c.Schema != "" {
		opts = append(opts, WithSchemaFile(c.resolve(c.Schema)))
	}
	if c.Introspect {
		opts = append(opts, WithIntrospection())
	}
	if c.Rules != "" {
		opts = append(opts, WithRulesFile(c.resolve(c.Rules)))
	}
	return opts
}

func (c *FileConfig) resolve(path string) string {
	if filepath.IsAbs(path) || c.dir == "" {
		return path
	}
	return filepath.Join(c.dir, path)
}

// OpenConfig loads the config file at path and opens a Client from it.
// extra options apply after the file's.
func OpenConfig(path string, extra ...Option) (*Client, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return Open(append(cfg.Options(), extra...)...)
}
