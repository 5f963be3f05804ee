package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseEnv() map[string]string {
	return map[string]string{
		"DB_USER": "repl",
		"DB_HOST": "db.internal",
		"DB_NAME": "app",
	}
}

func TestLoadFromMap_Defaults(t *testing.T) {
	cfg, err := LoadFromMap(baseEnv())
	require.NoError(t, err)

	assert.Equal(t, "3306", cfg.DBPort)
	assert.Equal(t, "db.internal:3306", cfg.Addr)
	assert.Equal(t, uint32(100), cfg.ServerID)
	assert.Equal(t, OutputRedis, cfg.Output)
	assert.Equal(t, "127.0.0.1:6379", cfg.RedisAddr)
	assert.Equal(t, DefaultRedisChannel, cfg.RedisChannel)
	assert.Equal(t, 5*time.Second, cfg.ReconnectDelay)
	assert.False(t, cfg.IncludeBefore)
	assert.Equal(t, "repl:@tcp(db.internal:3306)/app", cfg.DSN())
}

func TestLoadFromMap_Overrides(t *testing.T) {
	env := baseEnv()
	env["ADDR"] = "10.0.0.5:3307"
	env["SERVER_ID"] = "4242"
	env["REDIS_STREAM"] = "changes"
	env["RECONNECT_DELAY"] = "250ms"
	env["INCLUDE_BEFORE"] = "true"
	env["OUTPUT"] = "STDOUT"

	cfg, err := LoadFromMap(env)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.5:3307", cfg.Addr)
	assert.Equal(t, uint32(4242), cfg.ServerID)
	assert.Equal(t, "changes", cfg.RedisChannel)
	assert.Equal(t, 250*time.Millisecond, cfg.ReconnectDelay)
	assert.True(t, cfg.IncludeBefore)
	assert.Equal(t, OutputStdout, cfg.Output)
}

func TestLoadFromMap_Invalid(t *testing.T) {
	tcs := []struct {
		name string
		edit func(map[string]string)
	}{
		{name: "missing user", edit: func(m map[string]string) { delete(m, "DB_USER") }},
		{name: "empty db name", edit: func(m map[string]string) { m["DB_NAME"] = "" }},
		{name: "bad server id", edit: func(m map[string]string) { m["SERVER_ID"] = "abc" }},
		{name: "bad delay", edit: func(m map[string]string) { m["RECONNECT_DELAY"] = "soon" }},
		{name: "bad output", edit: func(m map[string]string) { m["OUTPUT"] = "kafka" }},
		{name: "bad addr", edit: func(m map[string]string) { m["ADDR"] = "host:port:extra" }},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			env := baseEnv()
			tc.edit(env)
			_, err := LoadFromMap(env)
			assert.Error(t, err)
		})
	}
}

func TestSplitHostPort(t *testing.T) {
	host, port, err := SplitHostPort("localhost")
	require.NoError(t, err)
	assert.Equal(t, "localhost", host)
	assert.Equal(t, uint16(3306), port)

	host, port, err = SplitHostPort("127.0.0.1:13306")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", host)
	assert.Equal(t, uint16(13306), port)

	_, _, err = SplitHostPort("h:99999")
	assert.Error(t, err)
}
