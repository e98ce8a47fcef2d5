// Package config loads runtime settings from the environment and an
// optional .env file.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type ServerConfig struct {
	Port       string
	CORSOrigin string
}

type LogConfig struct {
	Level slog.Level
}

type RedisConfig struct {
	URL string // empty selects the in-memory quote store
}

type FxConfig struct {
	PrimaryURL      string
	SecondaryURL    string
	UpstreamTimeout time.Duration
	WarmInterval    time.Duration // 0 disables the warmer
	RefreshLimit    time.Duration // minimum spacing of forced refreshes
}

type Config struct {
	Server ServerConfig
	Log    LogConfig
	Redis  RedisConfig
	Fx     FxConfig
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	v.AutomaticEnv()

	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("FX_PRIMARY_URL", "https://api.frankfurter.app")
	v.SetDefault("FX_SECONDARY_URL", "https://open.er-api.com")
	v.SetDefault("FX_UPSTREAM_TIMEOUT", "5s")
	v.SetDefault("FX_WARM_INTERVAL", "0s")
	v.SetDefault("FX_REFRESH_LIMIT", "10s")
	v.SetDefault("CORS_ORIGIN", "*")

	var level slog.Level
	if err := level.UnmarshalText([]byte(v.GetString("LOG_LEVEL"))); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	timeout, err := duration(v, "FX_UPSTREAM_TIMEOUT")
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("FX_UPSTREAM_TIMEOUT must be positive")
	}
	warm, err := duration(v, "FX_WARM_INTERVAL")
	if err != nil {
		return nil, err
	}
	limit, err := duration(v, "FX_REFRESH_LIMIT")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:       v.GetString("SERVER_PORT"),
			CORSOrigin: v.GetString("CORS_ORIGIN"),
		},
		Log: LogConfig{
			Level: level,
		},
		Redis: RedisConfig{
			URL: v.GetString("REDIS_URL"),
		},
		Fx: FxConfig{
			PrimaryURL:      strings.TrimRight(v.GetString("FX_PRIMARY_URL"), "/"),
			SecondaryURL:    strings.TrimRight(v.GetString("FX_SECONDARY_URL"), "/"),
			UpstreamTimeout: timeout,
			WarmInterval:    warm,
			RefreshLimit:    limit,
		},
	}

	if cfg.Server.Port == "" {
		return nil, fmt.Errorf("SERVER_PORT is required")
	}
	if cfg.Fx.WarmInterval < 0 || cfg.Fx.RefreshLimit < 0 {
		return nil, fmt.Errorf("FX_WARM_INTERVAL and FX_REFRESH_LIMIT must not be negative")
	}

	return cfg, nil
}

func duration(v *viper.Viper, key string) (time.Duration, error) {
	d, err := time.ParseDuration(v.GetString(key))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
