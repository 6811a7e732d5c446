package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type (
	// Config holds configuration settings for the runtime host
	Config struct {
		// API Server
		APIHost  string `toml:"api_host"`
		APIPort  int    `toml:"api_port"`
		LogLevel string `toml:"log_level"`

		// Engine
		ScriptsDir      string        `toml:"scripts_dir"`
		ScriptCacheSize int           `toml:"script_cache_size"`
		TickInterval    time.Duration `toml:"tick_interval"`
		DefaultSpeed    time.Duration `toml:"default_speed"`
		ShutdownTimeout time.Duration `toml:"shutdown_timeout"`

		// Deferred Runs
		Deferred DeferredConfig `toml:"deferred"`
	}

	// DeferredConfig locates the persisted deferred-run document
	DeferredConfig struct {
		Store         string        `toml:"store"`
		Key           string        `toml:"key"`
		SaveInterval  time.Duration `toml:"save_interval"`
		RedisAddr     string        `toml:"redis_addr"`
		RedisPassword string        `toml:"redis_password"`
		RedisDB       int           `toml:"redis_db"`
	}
)

const (
	DefaultAPIPort = 8080
	DefaultAPIHost = "0.0.0.0"
	MaxTCPPort     = 65535

	DefaultScriptsDir      = "scripts"
	DefaultScriptCacheSize = 1024
	DefaultTickInterval    = 50 * time.Millisecond
	DefaultSpeed           = DefaultTickInterval
	DefaultShutdownTimeout = 10 * time.Second

	DefaultDeferredStore        = "mem://"
	DefaultDeferredKey          = "runq/deferred.yml"
	DefaultDeferredSaveInterval = 30 * time.Minute
	DefaultRedisEndpoint        = "localhost:6379"
	DefaultRedisDB              = 0

	MaxScriptCacheSize = 1_000_000
	MaxRedisDB         = 15
	MaxTickInterval    = time.Minute
)

var (
	ErrInvalidAPIPort      = errors.New("invalid API port")
	ErrInvalidTickInterval = errors.New("tick interval must be positive")
	ErrInvalidSpeed        = errors.New("default speed cannot be negative")
	ErrInvalidSaveInterval = errors.New("save interval must be positive")
	ErrInvalidStore        = errors.New("unsupported deferred store")
	ErrInvalidDuration     = errors.New("invalid duration")
)

var storeSchemes = []string{
	"mem://", "file://", "s3://", "gs://", "azblob://", "redis://",
}

// NewDefaultConfig creates a configuration with sensible defaults for the
// engine, API server, and deferred store
func NewDefaultConfig() *Config {
	return &Config{
		APIHost:         DefaultAPIHost,
		APIPort:         DefaultAPIPort,
		LogLevel:        "info",
		ScriptsDir:      DefaultScriptsDir,
		ScriptCacheSize: DefaultScriptCacheSize,
		TickInterval:    DefaultTickInterval,
		DefaultSpeed:    DefaultSpeed,
		ShutdownTimeout: DefaultShutdownTimeout,
		Deferred: DeferredConfig{
			Store:        DefaultDeferredStore,
			Key:          DefaultDeferredKey,
			SaveInterval: DefaultDeferredSaveInterval,
			RedisAddr:    DefaultRedisEndpoint,
			RedisDB:      DefaultRedisDB,
		},
	}
}

// LoadFile overlays the settings found in a TOML file
func (c *Config) LoadFile(path string) error {
	if _, err := toml.DecodeFile(path, c); err != nil {
		return fmt.Errorf("config %s: %w", path, err)
	}
	return nil
}

// LoadFromEnv populates configuration values from environment variables.
// Returns an error if any env var cannot be parsed
func (c *Config) LoadFromEnv() error {
	if apiHost := os.Getenv("API_HOST"); apiHost != "" {
		c.APIHost = apiHost
	}
	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		c.LogLevel = logLevel
	}
	if dir := os.Getenv("SCRIPTS_DIR"); dir != "" {
		c.ScriptsDir = dir
	}
	if store := os.Getenv("DEFERRED_STORE"); store != "" {
		c.Deferred.Store = store
	}
	if key := os.Getenv("DEFERRED_KEY"); key != "" {
		c.Deferred.Key = key
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		c.Deferred.RedisAddr = addr
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		c.Deferred.RedisPassword = password
	}

	if err := loadEnvInt("API_PORT", &c.APIPort, 0, MaxTCPPort); err != nil {
		return err
	}
	if err := loadEnvInt(
		"SCRIPT_CACHE_SIZE", &c.ScriptCacheSize, 0, MaxScriptCacheSize,
	); err != nil {
		return err
	}
	if err := loadEnvInt(
		"REDIS_DB", &c.Deferred.RedisDB, -1, MaxRedisDB,
	); err != nil {
		return err
	}

	if err := loadEnvDuration("TICK_INTERVAL", &c.TickInterval); err != nil {
		return err
	}
	if err := loadEnvDuration("DEFAULT_SPEED", &c.DefaultSpeed); err != nil {
		return err
	}
	if err := loadEnvDuration(
		"SHUTDOWN_TIMEOUT", &c.ShutdownTimeout,
	); err != nil {
		return err
	}
	return loadEnvDuration(
		"DEFERRED_SAVE_INTERVAL", &c.Deferred.SaveInterval,
	)
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	if c.APIPort <= 0 || c.APIPort > MaxTCPPort {
		return fmt.Errorf("%w: %d", ErrInvalidAPIPort, c.APIPort)
	}

	if c.TickInterval <= 0 || c.TickInterval > MaxTickInterval {
		return fmt.Errorf("%w: %s", ErrInvalidTickInterval, c.TickInterval)
	}

	if c.DefaultSpeed < 0 {
		return ErrInvalidSpeed
	}

	if c.Deferred.SaveInterval <= 0 {
		return ErrInvalidSaveInterval
	}

	if !c.Deferred.HasValidScheme() {
		return fmt.Errorf("%w: %s", ErrInvalidStore, c.Deferred.Store)
	}

	return nil
}

// IsRedis reports whether the deferred document lives in Redis
func (d DeferredConfig) IsRedis() bool {
	return strings.HasPrefix(d.Store, "redis://")
}

// HasValidScheme reports whether the store URL names a supported backend
func (d DeferredConfig) HasValidScheme() bool {
	for _, s := range storeSchemes {
		if strings.HasPrefix(d.Store, s) {
			return true
		}
	}
	return false
}

// loadEnvInt reads key from the environment, parses it as an integer, and
// sets *dst if the value is in the range (min, max]
func loadEnvInt[T ~int | ~int64](key string, dst *T, min, max T) error {
	s := os.Getenv(key)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %q", key, s)
	}
	tv := T(v)
	if tv <= min || tv > max {
		return fmt.Errorf("invalid %s: %d out of range [%d, %d]",
			key, tv, min+1, max)
	}
	*dst = tv
	return nil
}

func loadEnvDuration(key string, dst *time.Duration) error {
	s := os.Getenv(key)
	if s == "" {
		return nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("%w: %s=%q", ErrInvalidDuration, key, s)
	}
	*dst = d
	return nil
}
