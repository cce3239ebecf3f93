package cachekit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryOptionsEffective(t *testing.T) {
	cases := []struct {
		name    string
		in      RetryOptions
		retries int
		delay   int
	}{
		{"defaults", DefaultRetryOptions(), 3, 2},
		{"enabled custom", RetryOptions{Enabled: true, MaxRetries: 5, DelaySeconds: 1}, 5, 1},
		{"disabled keeps default count", RetryOptions{Enabled: false, MaxRetries: 9, DelaySeconds: 4}, 3, 4},
		{"zero value", RetryOptions{}, 3, 2},
		{"non-positive values", RetryOptions{Enabled: true, MaxRetries: -1, DelaySeconds: -1}, 3, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, d := tc.in.Effective()
			assert.Equal(t, tc.retries, r)
			assert.Equal(t, tc.delay, d)
		})
	}
}

func TestRedisOptions(t *testing.T) {
	o := RedisOptions{Endpoint: " cache.local "}.WithDefaults()
	assert.Equal(t, DefaultRedisPort, o.Port)
	assert.Equal(t, "cache.local", o.Endpoint)
	require.NoError(t, o.Validate())

	assert.True(t, IsInvalidArgument(RedisOptions{}.Validate()))
	assert.True(t, IsInvalidArgument(RedisOptions{Endpoint: "x", Port: 70000}.Validate()))
	assert.True(t, IsInvalidArgument(RedisOptions{Endpoint: "x", Database: -1}.Validate()))
}

func TestSQLOptions(t *testing.T) {
	o := SQLOptions{}.WithDefaults()
	assert.Equal(t, ProviderSQLServer, o.Driver)
	assert.Equal(t, "CacheItems", o.TableName)
	assert.Equal(t, "dbo", o.SchemaName)
	assert.Equal(t, 15*time.Minute, o.CleanupInterval())
	assert.Zero(t, o.QueryTimeout())
	require.NoError(t, o.Validate())

	pg := SQLOptions{Driver: "Postgres"}.WithDefaults()
	assert.Equal(t, ProviderPostgres, pg.Driver)
	assert.Equal(t, "public", pg.SchemaName)

	assert.True(t, IsInvalidArgument(SQLOptions{Driver: "mysql"}.WithDefaults().Validate()))
	assert.True(t, IsInvalidArgument(SQLOptions{TableName: "x; DROP"}.WithDefaults().Validate()))
	assert.True(t, IsInvalidArgument(SQLOptions{SchemaName: "a.b"}.WithDefaults().Validate()))
	assert.True(t, IsInvalidArgument(SQLOptions{CleanupIntervalMinutes: -1}.WithDefaults().Validate()))

	lite := SQLOptions{Driver: ProviderSQLite, SchemaName: "ignored.schema"}.WithDefaults()
	assert.NoError(t, lite.Validate(), "sqlite has no schemas")
}
