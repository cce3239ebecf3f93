package cachekit

import (
	"regexp"
	"strings"
	"time"
)

// Provider names accepted by CacheOptions.DefaultProvider.
const (
	ProviderRedis     = "redis"
	ProviderSQL       = "sql"
	ProviderSQLServer = "sqlserver"
	ProviderPostgres  = "postgres"
	ProviderSQLite    = "sqlite"
)

// CacheOptions selects a provider and carries per-backend settings.
// It is treated as immutable once handed to a constructor.
type CacheOptions struct {
	DefaultProvider string       `mapstructure:"default_provider" yaml:"default_provider"`
	Redis           RedisOptions `mapstructure:"redis" yaml:"redis"`
	SQL             SQLOptions   `mapstructure:"sql" yaml:"sql"`
}

// RetryOptions configures the bounded retry policy of a provider.
//
// Retries are never disabled entirely: with Enabled=false the default count
// still applies, and a non-positive delay falls back to the default delay.
type RetryOptions struct {
	Enabled      bool `mapstructure:"enabled" yaml:"enabled"`
	MaxRetries   int  `mapstructure:"max_retries" yaml:"max_retries"`
	DelaySeconds int  `mapstructure:"delay_seconds" yaml:"delay_seconds"`
}

// DefaultRetryOptions returns Enabled=true, 3 retries, 2 seconds apart.
func DefaultRetryOptions() RetryOptions {
	return RetryOptions{Enabled: true, MaxRetries: DefaultMaxRetries, DelaySeconds: DefaultRetryDelaySeconds}
}

// Effective returns the retry count and delay the policy must use.
func (o RetryOptions) Effective() (retries int, delaySeconds int) {
	retries = DefaultMaxRetries
	if o.Enabled && o.MaxRetries > 0 {
		retries = o.MaxRetries
	}
	delaySeconds = DefaultRetryDelaySeconds
	if o.DelaySeconds > 0 {
		delaySeconds = o.DelaySeconds
	}
	return retries, delaySeconds
}

// RedisOptions configures the key-value provider. Either ConnectionString or
// Endpoint must be set; ConnectionString wins when both are present.
type RedisOptions struct {
	ConnectionString   string       `mapstructure:"connection_string" yaml:"connection_string"`
	Endpoint           string       `mapstructure:"endpoint" yaml:"endpoint"`
	Port               int          `mapstructure:"port" yaml:"port"`
	UseSSL             bool         `mapstructure:"use_ssl" yaml:"use_ssl"`
	AbortOnConnectFail bool         `mapstructure:"abort_on_connect_fail" yaml:"abort_on_connect_fail"`
	Database           int          `mapstructure:"database" yaml:"database"`
	Username           string       `mapstructure:"username" yaml:"username"`
	Password           string       `mapstructure:"password" yaml:"password"`
	// MaxTrackedKeys bounds the per-instance TTL tracker. Zero keeps the
	// unbounded sharded tracker.
	MaxTrackedKeys     int64        `mapstructure:"max_tracked_keys" yaml:"max_tracked_keys"`
	Retry              RetryOptions `mapstructure:"retry" yaml:"retry"`
}

func (o RedisOptions) WithDefaults() RedisOptions {
	o.Port = coalesce(o.Port, DefaultRedisPort)
	o.ConnectionString = strings.TrimSpace(o.ConnectionString)
	o.Endpoint = strings.TrimSpace(o.Endpoint)
	return o
}

func (o RedisOptions) Validate() error {
	if strings.TrimSpace(o.ConnectionString) == "" && strings.TrimSpace(o.Endpoint) == "" {
		return InvalidArgument("redis: either connection string or endpoint must be set")
	}
	if o.Port < 0 || o.Port > 65535 {
		return InvalidArgument("redis: port %d out of range", o.Port)
	}
	if o.Database < 0 {
		return InvalidArgument("redis: database index must not be negative, got %d", o.Database)
	}
	if o.MaxTrackedKeys < 0 {
		return InvalidArgument("redis: max tracked keys must not be negative, got %d", o.MaxTrackedKeys)
	}
	return nil
}

// SQLOptions configures the relational provider.
type SQLOptions struct {
	// Driver is one of sqlserver, postgres or sqlite.
	Driver                 string       `mapstructure:"driver" yaml:"driver"`
	ConnectionString       string       `mapstructure:"connection_string" yaml:"connection_string"`
	TableName              string       `mapstructure:"table_name" yaml:"table_name"`
	SchemaName             string       `mapstructure:"schema_name" yaml:"schema_name"`
	CleanupIntervalMinutes int          `mapstructure:"cleanup_interval_minutes" yaml:"cleanup_interval_minutes"`
	QueryTimeoutSeconds    int          `mapstructure:"query_timeout_seconds" yaml:"query_timeout_seconds"`
	Retry                  RetryOptions `mapstructure:"retry" yaml:"retry"`
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func (o SQLOptions) WithDefaults() SQLOptions {
	o.Driver = strings.ToLower(strings.TrimSpace(coalesce(o.Driver, DefaultSQLDriver)))
	o.TableName = coalesce(o.TableName, DefaultTableName)
	if o.Driver == ProviderPostgres {
		o.SchemaName = coalesce(o.SchemaName, "public")
	}
	o.SchemaName = coalesce(o.SchemaName, DefaultSchemaName)
	o.CleanupIntervalMinutes = coalesce(o.CleanupIntervalMinutes, DefaultCleanupIntervalMinutes)
	return o
}

// Validate checks the options after defaults are applied. The connection string
// is not required here since callers may hand in an open handle instead.
func (o SQLOptions) Validate() error {
	switch o.Driver {
	case ProviderSQLServer, ProviderPostgres, ProviderSQLite:
	default:
		return InvalidArgument("sql: unknown driver %q", o.Driver)
	}
	if !identRe.MatchString(o.TableName) {
		return InvalidArgument("sql: invalid table name %q", o.TableName)
	}
	if o.Driver != ProviderSQLite && !identRe.MatchString(o.SchemaName) {
		return InvalidArgument("sql: invalid schema name %q", o.SchemaName)
	}
	if o.CleanupIntervalMinutes < 0 {
		return InvalidArgument("sql: cleanup interval must not be negative")
	}
	if o.QueryTimeoutSeconds < 0 {
		return InvalidArgument("sql: query timeout must not be negative")
	}
	return nil
}

func (o SQLOptions) CleanupInterval() time.Duration {
	return time.Duration(o.CleanupIntervalMinutes) * time.Minute
}

func (o SQLOptions) QueryTimeout() time.Duration {
	return time.Duration(o.QueryTimeoutSeconds) * time.Second
}
