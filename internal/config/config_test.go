package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kode4food/runq/internal/assert"
	"github.com/kode4food/runq/internal/config"
)

func TestConfigValidation(t *testing.T) {
	as := assert.New(t)

	t.Run("valid_default_config", func(t *testing.T) {
		as.ConfigValid(config.NewDefaultConfig())
	})

	tests := []struct {
		name          string
		configMod     func(*config.Config)
		errorContains string
	}{
		{
			name: "invalid_api_port_zero",
			configMod: func(c *config.Config) {
				c.APIPort = 0
			},
			errorContains: "invalid API port",
		},
		{
			name: "invalid_api_port_too_high",
			configMod: func(c *config.Config) {
				c.APIPort = 70000
			},
			errorContains: "invalid API port",
		},
		{
			name: "zero_tick_interval",
			configMod: func(c *config.Config) {
				c.TickInterval = 0
			},
			errorContains: "tick interval must be positive",
		},
		{
			name: "negative_speed",
			configMod: func(c *config.Config) {
				c.DefaultSpeed = -time.Second
			},
			errorContains: "default speed cannot be negative",
		},
		{
			name: "zero_save_interval",
			configMod: func(c *config.Config) {
				c.Deferred.SaveInterval = 0
			},
			errorContains: "save interval must be positive",
		},
		{
			name: "unknown_store_scheme",
			configMod: func(c *config.Config) {
				c.Deferred.Store = "ftp://nowhere"
			},
			errorContains: "unsupported deferred store",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.NewDefaultConfig()
			tt.configMod(cfg)
			as.ConfigInvalid(cfg, tt.errorContains)
		})
	}
}

func TestDefaultConfigValues(t *testing.T) {
	as := assert.New(t)

	cfg := config.NewDefaultConfig()
	as.Equal(config.DefaultAPIPort, cfg.APIPort)
	as.Equal("0.0.0.0", cfg.APIHost)
	as.Equal(config.DefaultTickInterval, cfg.TickInterval)
	as.Equal(config.DefaultDeferredSaveInterval, cfg.Deferred.SaveInterval)
	as.Equal(config.DefaultDeferredStore, cfg.Deferred.Store)
	as.False(cfg.Deferred.IsRedis())
}

func TestLoadFromEnv(t *testing.T) {
	as := assert.New(t)

	t.Setenv("API_HOST", "127.0.0.1")
	t.Setenv("API_PORT", "9090")
	t.Setenv("TICK_INTERVAL", "20ms")
	t.Setenv("DEFERRED_STORE", "redis://")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("DEFERRED_SAVE_INTERVAL", "5m")

	cfg := config.NewDefaultConfig()
	as.Require.NoError(cfg.LoadFromEnv())
	as.Equal("127.0.0.1", cfg.APIHost)
	as.Equal(9090, cfg.APIPort)
	as.Equal(20*time.Millisecond, cfg.TickInterval)
	as.True(cfg.Deferred.IsRedis())
	as.Equal(3, cfg.Deferred.RedisDB)
	as.Equal(5*time.Minute, cfg.Deferred.SaveInterval)
	as.ConfigValid(cfg)
}

func TestLoadFromEnvErrors(t *testing.T) {
	as := assert.New(t)

	t.Run("bad_port", func(t *testing.T) {
		t.Setenv("API_PORT", "not-a-port")
		as.Error(config.NewDefaultConfig().LoadFromEnv())
	})

	t.Run("port_out_of_range", func(t *testing.T) {
		t.Setenv("API_PORT", "70000")
		as.Error(config.NewDefaultConfig().LoadFromEnv())
	})

	t.Run("bad_duration", func(t *testing.T) {
		t.Setenv("TICK_INTERVAL", "soon")
		as.ErrorIs(
			config.NewDefaultConfig().LoadFromEnv(),
			config.ErrInvalidDuration,
		)
	})
}

func TestLoadFile(t *testing.T) {
	as := assert.New(t)

	path := filepath.Join(t.TempDir(), "runq.toml")
	as.Require.NoError(os.WriteFile(path, []byte(`
api_port = 7070
scripts_dir = "/srv/scripts"
tick_interval = "100ms"

[deferred]
store = "file:///var/lib/runq"
save_interval = "1m"
`), 0o600))

	cfg := config.NewDefaultConfig()
	as.Require.NoError(cfg.LoadFile(path))
	as.Equal(7070, cfg.APIPort)
	as.Equal("/srv/scripts", cfg.ScriptsDir)
	as.Equal(100*time.Millisecond, cfg.TickInterval)
	as.Equal("file:///var/lib/runq", cfg.Deferred.Store)
	as.Equal(time.Minute, cfg.Deferred.SaveInterval)
	as.Equal(config.DefaultDeferredKey, cfg.Deferred.Key)
	as.ConfigValid(cfg)

	as.Error(cfg.LoadFile(filepath.Join(t.TempDir(), "missing.toml")))
}
