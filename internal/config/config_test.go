package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fullYAML = `
log:
  level: debug
  format: json
store:
  driver: mysql
  dsn: "user:pw@tcp(127.0.0.1:3306)/pressline?parseTime=true"
redis:
  addr: 127.0.0.1:6379
  db: 2
  lock_ttl: 10s
http:
  addr: ":9090"
flows:
  persisted: [about, hours]
  seed: flows.yaml
  scripts: [extra.yaml]
input:
  max_size: 1024
`

func TestParse_Full(t *testing.T) {
	cfg, err := Parse([]byte(fullYAML))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "mysql", cfg.Store.Driver)
	assert.Equal(t, "127.0.0.1:6379", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, 10*time.Second, cfg.Redis.LockTTL)
	assert.Equal(t, "pressline:", cfg.Redis.Prefix)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, []string{"about", "hours"}, cfg.Flows.Persisted)
	assert.Equal(t, []string{"extra.yaml"}, cfg.Flows.Scripts)
	assert.Equal(t, 1024, cfg.Input.MaxSize)
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "pressline.db", cfg.Store.DSN)
	assert.Equal(t, []string{"about"}, cfg.Flows.Persisted)
	assert.Equal(t, 4096, cfg.Input.MaxSize)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Empty(t, cfg.Redis.Addr)
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte("store:\n  driver: postgres\nlog:\n  format: xml\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `store.driver "postgres"`)
	assert.Contains(t, err.Error(), `log.format "xml"`)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"PRESSLINE_STORE_DSN":       "file::memory:",
		"PRESSLINE_PERSISTED_FLOWS": " about, ,hours ",
		"PRESSLINE_MAX_INPUT_SIZE":  "512",
		"PRESSLINE_REDIS_ADDR":      "redis:6379",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(lookup))
	assert.Equal(t, "file::memory:", cfg.Store.DSN)
	assert.Equal(t, []string{"about", "hours"}, cfg.Flows.Persisted)
	assert.Equal(t, 512, cfg.Input.MaxSize)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
}

func TestApplyEnv_BadNumber(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(func(k string) (string, bool) {
		if k == "PRESSLINE_MAX_INPUT_SIZE" {
			return "lots", true
		}
		return "", false
	})
	assert.ErrorContains(t, err, "PRESSLINE_MAX_INPUT_SIZE")
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pressline.yaml")
	require.NoError(t, os.WriteFile(path, []byte("http:\n  addr: \":7000\"\n"), 0o644))
	t.Setenv("PRESSLINE_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.HTTP.Addr)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "config: read")
}
