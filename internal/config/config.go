package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultFile is the config file looked up when no --config flag is given.
const DefaultFile = "sqlaltery.yml"

// EnvPrefix prefixes every environment variable that overrides a field.
const EnvPrefix = "SQLALTERY_"

// Default values for configuration fields.
const (
	DefaultMigrationsDir    = "migrations"
	DefaultSchemaFile       = "schema.sql"
	DefaultIndent           = 2
	DefaultLockTimeout      = 5 * time.Second
	DefaultStatementTimeout = 30 * time.Second
	DefaultTargetPGVersion  = 14
	DefaultFormat           = "text"
	DefaultFailOn           = "high"
)

// Config holds the application configuration loaded from file, environment, and flags.
type Config struct {
	DatabaseURL      string
	MigrationsDir    string
	SchemaFile       string
	Indent           int
	InitialRevision  int
	LockTimeout      time.Duration
	StatementTimeout time.Duration
	TargetPGVersion  int
	Format           string
	FailOn           string
}

// yamlConfig is the raw YAML file representation with string durations.
// Pointers distinguish an explicit zero from an absent key.
type yamlConfig struct {
	DatabaseURL      string `yaml:"database_url"`
	MigrationsDir    string `yaml:"migrations_dir"`
	SchemaFile       string `yaml:"schema_file"`
	Indent           *int   `yaml:"indent"`
	InitialRevision  *int   `yaml:"initial_revision"`
	LockTimeout      string `yaml:"lock_timeout"`
	StatementTimeout string `yaml:"statement_timeout"`
	TargetPGVersion  int    `yaml:"target_pg_version"`
	Format           string `yaml:"format"`
	FailOn           string `yaml:"fail_on"`
}

// New returns a Config populated with default values.
func New() *Config {
	return &Config{
		MigrationsDir:    DefaultMigrationsDir,
		SchemaFile:       DefaultSchemaFile,
		Indent:           DefaultIndent,
		LockTimeout:      DefaultLockTimeout,
		StatementTimeout: DefaultStatementTimeout,
		TargetPGVersion:  DefaultTargetPGVersion,
		Format:           DefaultFormat,
		FailOn:           DefaultFailOn,
	}
}

// Load reads a YAML configuration file and returns a Config.
// If allowMissing is true and the file does not exist, defaults are returned.
func Load(path string, allowMissing bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && allowMissing {
			return New(), nil
		}

		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	var raw yamlConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	return fromYAML(&raw)
}

// fromYAML converts the raw YAML representation to a Config with defaults applied.
func fromYAML(raw *yamlConfig) (*Config, error) {
	cfg := New()

	setString(&cfg.DatabaseURL, raw.DatabaseURL)
	setString(&cfg.MigrationsDir, raw.MigrationsDir)
	setString(&cfg.SchemaFile, raw.SchemaFile)
	setString(&cfg.Format, raw.Format)
	setString(&cfg.FailOn, raw.FailOn)

	if raw.Indent != nil {
		cfg.Indent = *raw.Indent
	}

	if raw.InitialRevision != nil {
		cfg.InitialRevision = *raw.InitialRevision
	}

	if err := setDuration(&cfg.LockTimeout, "lock_timeout", raw.LockTimeout); err != nil {
		return nil, err
	}

	if err := setDuration(&cfg.StatementTimeout, "statement_timeout", raw.StatementTimeout); err != nil {
		return nil, err
	}

	if raw.TargetPGVersion != 0 {
		cfg.TargetPGVersion = raw.TargetPGVersion
	}

	return cfg, cfg.Validate()
}

// MergeEnv overrides config fields from SQLALTERY_* environment variables.
// Malformed numbers and durations are reported rather than ignored.
func MergeEnv(cfg *Config) error {
	setString(&cfg.DatabaseURL, os.Getenv(EnvPrefix+"DATABASE_URL"))
	setString(&cfg.MigrationsDir, os.Getenv(EnvPrefix+"MIGRATIONS_DIR"))
	setString(&cfg.SchemaFile, os.Getenv(EnvPrefix+"SCHEMA_FILE"))
	setString(&cfg.Format, os.Getenv(EnvPrefix+"FORMAT"))
	setString(&cfg.FailOn, os.Getenv(EnvPrefix+"FAIL_ON"))

	ints := []struct {
		key string
		dst *int
	}{
		{"INDENT", &cfg.Indent},
		{"INITIAL_REVISION", &cfg.InitialRevision},
		{"TARGET_PG_VERSION", &cfg.TargetPGVersion},
	}

	for _, e := range ints {
		v := os.Getenv(EnvPrefix + e.key)
		if v == "" {
			continue
		}

		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parsing %s%s %q: %w", EnvPrefix, e.key, v, err)
		}

		*e.dst = n
	}

	if err := setDuration(&cfg.LockTimeout, EnvPrefix+"LOCK_TIMEOUT", os.Getenv(EnvPrefix+"LOCK_TIMEOUT")); err != nil {
		return err
	}

	if err := setDuration(&cfg.StatementTimeout, EnvPrefix+"STATEMENT_TIMEOUT", os.Getenv(EnvPrefix+"STATEMENT_TIMEOUT")); err != nil {
		return err
	}

	return cfg.Validate()
}

// Validate rejects values no command could run with.
func (c *Config) Validate() error {
	var errs []error

	if c.Indent < 1 {
		errs = append(errs, fmt.Errorf("indent must be positive, got %d", c.Indent))
	}

	if c.InitialRevision < 0 {
		errs = append(errs, fmt.Errorf("initial_revision must not be negative, got %d", c.InitialRevision))
	}

	if c.LockTimeout < 0 || c.StatementTimeout < 0 {
		errs = append(errs, errors.New("timeouts must not be negative"))
	}

	if c.Format != "text" && c.Format != "json" {
		errs = append(errs, fmt.Errorf("format must be text or json, got %q", c.Format))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, name, v string) error {
	if v == "" {
		return nil
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("parsing %s %q: %w", name, v, err)
	}

	*dst = d

	return nil
}
