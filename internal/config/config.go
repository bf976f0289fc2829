// Package config loads server configuration from an optional YAML
// file, WORDBASE_* environment variables and defaults, in that
// ascending order of precedence.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the server configuration.
type Config struct {
	Address         string        `mapstructure:"address"`
	DatabasePath    string        `mapstructure:"database_path"`
	LogLevel        string        `mapstructure:"log_level"`
	JWTSecret       string        `mapstructure:"jwt_secret"`
	AccessTokenTTL  time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL time.Duration `mapstructure:"refresh_token_ttl"`
	DeveloperSecret string        `mapstructure:"developer_secret"`
	Sync            SyncConfig    `mapstructure:"sync"`
}

// SyncConfig holds the category policy sets.
type SyncConfig struct {
	PassiveCategories  []string `mapstructure:"passive_categories"`
	ReadOnlyCategories []string `mapstructure:"readonly_categories"`
}

// Load reads configuration. path may be empty, in which case only
// environment variables and defaults apply.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("address", ":8080")
	v.SetDefault("database_path", "wordbase.db")
	v.SetDefault("log_level", "info")
	v.SetDefault("access_token_ttl", 15*time.Minute)
	v.SetDefault("refresh_token_ttl", 30*24*time.Hour)
	v.SetDefault("sync.passive_categories", []string{"collections"})
	v.SetDefault("sync.readonly_categories", []string{"collections", "user-readonly", "app"})

	v.SetEnvPrefix("WORDBASE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("jwt_secret is required (set WORDBASE_JWT_SECRET)")
	}

	return &cfg, nil
}
