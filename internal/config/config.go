// Package config loads panelkit configuration from file and environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Listen  string
	Session SessionConfig
}

// SessionConfig selects and parameterizes the session store backend.
type SessionConfig struct {
	Backend    string // memory | sqlite | redis | bolt
	TTL        time.Duration
	SQLitePath string `mapstructure:"sqlite_path"`
	RedisURL   string `mapstructure:"redis_url"`
	BoltPath   string `mapstructure:"bolt_path"`
}

// Load reads configuration from file and env. Env var overrides use prefix PANELKIT_.
func Load() (Config, error) {
	v := viper.New()

	dataDir := filepath.Join(os.Getenv("HOME"), ".local", "share", "panelkit")
	v.SetDefault("listen", ":8080")
	v.SetDefault("session.backend", "memory")
	v.SetDefault("session.ttl", "40m")
	v.SetDefault("session.sqlite_path", filepath.Join(dataDir, "sessions.db"))
	v.SetDefault("session.redis_url", "redis://localhost:6379/0")
	v.SetDefault("session.bolt_path", filepath.Join(dataDir, "sessions.bolt"))

	v.SetConfigType("toml")

	cfgPath := os.Getenv("PANELKIT_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "panelkit"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("PANELKIT")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// read config file if present
	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	switch c.Session.Backend {
	case "memory", "sqlite", "redis", "bolt":
	default:
		return Config{}, fmt.Errorf("unknown session backend %q", c.Session.Backend)
	}
	return c, nil
}
