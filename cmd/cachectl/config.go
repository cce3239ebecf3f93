package main

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"

	"github.com/unkn0wn-root/cachekit"
)

const envPrefix = "CACHEKIT"

// configKeys lists every CacheOptions key so AutomaticEnv can resolve them
// during Unmarshal even when no config file mentions them.
var configKeys = []string{
	"default_provider",
	"redis.connection_string",
	"redis.endpoint",
	"redis.port",
	"redis.use_ssl",
	"redis.abort_on_connect_fail",
	"redis.database",
	"redis.username",
	"redis.password",
	"redis.max_tracked_keys",
	"redis.retry.enabled",
	"redis.retry.max_retries",
	"redis.retry.delay_seconds",
	"sql.driver",
	"sql.connection_string",
	"sql.table_name",
	"sql.schema_name",
	"sql.cleanup_interval_minutes",
	"sql.query_timeout_seconds",
	"sql.retry.enabled",
	"sql.retry.max_retries",
	"sql.retry.delay_seconds",
}

// loadOptions reads CacheOptions from an optional YAML file and CACHEKIT_*
// environment variables, e.g. CACHEKIT_SQL_TABLE_NAME. The environment wins.
func loadOptions(v *viper.Viper, file string) (cachekit.CacheOptions, error) {
	var opts cachekit.CacheOptions

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, k := range configKeys {
		if err := v.BindEnv(k); err != nil {
			return opts, errors.Wrapf(err, "bind env %s", k)
		}
	}
	v.SetDefault("redis.retry.enabled", true)
	v.SetDefault("sql.retry.enabled", true)

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return opts, errors.Wrapf(err, "read config %s", file)
		}
	}
	if err := v.Unmarshal(&opts); err != nil {
		return opts, errors.Wrap(err, "decode config")
	}
	return opts, nil
}
