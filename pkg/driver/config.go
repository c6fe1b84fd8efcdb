package driver

import (
	"fmt"
	"strconv"
	"time"

	"github.com/benchkv/benchkv/pkg/dbcaps"
)

// Durability is the write-acknowledgment level requested from the backend.
// Backends that cannot express a level accept it and use their closest
// equivalent, but an unknown spelling is always a fatal ConfigError at Init.
type Durability string

const (
	DurabilitySafe         Durability = "safe"
	DurabilityNormal       Durability = "normal"
	DurabilityFsyncSafe    Durability = "fsync_safe"
	DurabilityReplicasSafe Durability = "replicas_safe"
)

// Config contains the connection parameters consumed at Open/Init.
// This is a unified configuration that works across all backend types;
// backend-specific knobs go through Options.
type Config struct {
	// Driver selects the backend in the registry (name or alias).
	Driver string `json:"driver" mapstructure:"driver"`

	// URL is the full connection URL. When set it takes precedence over
	// Host/Port for backends that accept URLs.
	URL string `json:"url,omitempty" mapstructure:"url"`

	// Connection details
	Host     string `json:"host,omitempty" mapstructure:"host"`
	Port     int    `json:"port,omitempty" mapstructure:"port"`
	Username string `json:"username,omitempty" mapstructure:"username"`
	Password string `json:"password,omitempty" mapstructure:"password"`

	// Database is the database/keyspace name, or the data path for
	// embedded backends.
	Database string `json:"database,omitempty" mapstructure:"database"`

	// Table is the default table/collection name for the smoke tools.
	Table string `json:"table,omitempty" mapstructure:"table"`

	// FetchSize is a batching hint for Scan result retrieval. Zero means
	// the backend default.
	FetchSize int `json:"fetchSize,omitempty" mapstructure:"fetch_size"`

	// AutoCommit controls whether each operation commits immediately.
	// Nil means true.
	AutoCommit *bool `json:"autoCommit,omitempty" mapstructure:"auto_commit"`

	// MaxConns is the pool sizing hint. Zero means the backend default.
	MaxConns int `json:"maxConns,omitempty" mapstructure:"max_conns"`

	// ConnectTimeout bounds the initial connection attempt. Zero means the
	// backend default. There is no per-operation timeout contract.
	ConnectTimeout time.Duration `json:"connectTimeout,omitempty" mapstructure:"connect_timeout"`

	// Durability is the write-acknowledgment level. Empty means safe.
	Durability Durability `json:"durability,omitempty" mapstructure:"durability"`

	// Options is the backend-specific escape hatch. Use the typed
	// accessors; they convert unparseable values into ConfigErrors.
	Options map[string]string `json:"options,omitempty" mapstructure:"options"`
}

// id resolves the configured driver name for error reporting. Unknown names
// are reported verbatim.
func (c *Config) id() dbcaps.DatabaseID {
	if id, ok := dbcaps.ParseID(c.Driver); ok {
		return id
	}
	return dbcaps.DatabaseID(c.Driver)
}

// Validate applies defaults and rejects invalid parameter combinations.
// Called by Registry.Open before the driver sees the config.
func (c *Config) Validate() error {
	if c.Driver == "" {
		return NewConfigError("", "driver", "driver name is required")
	}
	if c.FetchSize < 0 {
		return NewConfigError(c.id(), "fetch_size", fmt.Sprintf("must not be negative, got %d", c.FetchSize))
	}
	if c.MaxConns < 0 {
		return NewConfigError(c.id(), "max_conns", fmt.Sprintf("must not be negative, got %d", c.MaxConns))
	}
	if c.Durability == "" {
		c.Durability = DurabilitySafe
	}
	switch c.Durability {
	case DurabilitySafe, DurabilityNormal, DurabilityFsyncSafe, DurabilityReplicasSafe:
	default:
		return NewConfigError(c.id(), "durability",
			fmt.Sprintf("must be one of [safe normal fsync_safe replicas_safe], got %q", c.Durability))
	}
	return nil
}

// AutoCommitEnabled returns the auto-commit setting, defaulting to true.
func (c *Config) AutoCommitEnabled() bool {
	if c.AutoCommit == nil {
		return true
	}
	return *c.AutoCommit
}

// Addr returns the configured endpoint for error reporting: the URL when
// set, otherwise host:port.
func (c *Config) Addr() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IntOption returns a named option parsed as an integer, or def when the
// option is absent. An unparseable value is a ConfigError.
func (c *Config) IntOption(name string, def int) (int, error) {
	raw, ok := c.Options[name]
	if !ok {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, NewConfigError(c.id(), name, fmt.Sprintf("not an integer: %q", raw))
	}
	return n, nil
}

// BoolOption returns a named option parsed as a boolean, or def when the
// option is absent. An unparseable value is a ConfigError.
func (c *Config) BoolOption(name string, def bool) (bool, error) {
	raw, ok := c.Options[name]
	if !ok {
		return def, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, NewConfigError(c.id(), name, fmt.Sprintf("not a boolean: %q", raw))
	}
	return b, nil
}

// DurationOption returns a named option parsed as a duration, or def when
// the option is absent. An unparseable value is a ConfigError.
func (c *Config) DurationOption(name string, def time.Duration) (time.Duration, error) {
	raw, ok := c.Options[name]
	if !ok {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, NewConfigError(c.id(), name, fmt.Sprintf("not a duration: %q", raw))
	}
	return d, nil
}

// StringOption returns a named option, or def when the option is absent.
func (c *Config) StringOption(name, def string) string {
	if raw, ok := c.Options[name]; ok {
		return raw
	}
	return def
}

// GetBoolPtr returns a pointer to a bool value.
// Helper function for optional bool fields.
func GetBoolPtr(b bool) *bool {
	return &b
}
