package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deep-rent/components/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadHeaderTimeout)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Empty(t, cfg.Database.DSN)
}

func TestLoad_File(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  addr: "127.0.0.1:9000"
  shutdown_timeout: 3s
log:
  level: debug
  format: json
database:
  dsn: "postgres://localhost/visits"
`
	require.NoError(t, os.WriteFile(file, []byte(content), 0o600))

	cfg, err := config.Load(viper.New(), file)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadHeaderTimeout)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "postgres://localhost/visits", cfg.Database.DSN)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(viper.New(), filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("COMPONENTS_SERVER_ADDR", ":9090")
	t.Setenv("COMPONENTS_LOG_LEVEL", "warn")
	t.Setenv("COMPONENTS_DATABASE_DSN", "postgres://db/visits")

	cfg, err := config.Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "postgres://db/visits", cfg.Database.DSN)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte("server:\n  addr: \":7000\"\n"), 0o600))
	t.Setenv("COMPONENTS_SERVER_ADDR", ":7001")

	cfg, err := config.Load(viper.New(), file)
	require.NoError(t, err)
	assert.Equal(t, ":7001", cfg.Server.Addr)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  any
		msg  string
	}{
		{"empty address", "server.addr", " ", "server address is required"},
		{"zero read timeout", "server.read_header_timeout", "0s", "read header timeout"},
		{"negative shutdown timeout", "server.shutdown_timeout", "-1s", "shutdown timeout"},
		{"bad log level", "log.level", "loud", "invalid log level"},
		{"bad log format", "log.format", "xml", "invalid log format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			v.Set(tt.key, tt.val)

			_, err := config.Load(v, "")
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid configuration")
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}
