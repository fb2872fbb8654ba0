// Package config loads the scrollfeed service configuration.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config file when one
// is given (otherwise looks for config.toml in the working directory), and
// binds environment variables with the SCROLLFEED_ prefix.
//
// Config precedence (highest to lowest):
//  1. Environment variables (SCROLLFEED_API_LISTEN, SCROLLFEED_EMBEDDING_API_KEY, etc.)
//  2. config.toml file values
//  3. Defaults from NewDefaultConfig()
func InitViper(configFile string) (*viper.Viper, error) {
	v := viper.New()

	setViperDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(".")

		if err := v.ReadInConfig(); err != nil {
			// Config file not found errors are fine, defaults will apply.
			if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
				return nil, fmt.Errorf("reading config: %w", err)
			}
		}
	}

	v.SetEnvPrefix("SCROLLFEED")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// Load resolves the full configuration from a viper instance.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	defaults := NewDefaultConfig()

	v.SetDefault("api.listen", defaults.API.Listen)
	v.SetDefault("storage.provider", defaults.Storage.Provider)
	v.SetDefault("storage.sqlite_path", defaults.Storage.SQLitePath)
	v.SetDefault("storage.postgres_url", defaults.Storage.PostgresURL)
	v.SetDefault("embedding.provider", defaults.Embedding.Provider)
	v.SetDefault("embedding.target", defaults.Embedding.Target)
	v.SetDefault("embedding.model", defaults.Embedding.Model)
	v.SetDefault("embedding.api_key", defaults.Embedding.APIKey)
	v.SetDefault("embedding.dimensions", defaults.Embedding.Dimensions)
	v.SetDefault("embedding.timeout_seconds", defaults.Embedding.TimeoutSeconds)
	v.SetDefault("ranking.top_k", defaults.Ranking.TopK)
	v.SetDefault("ranking.max_top_k", defaults.Ranking.MaxTopK)
}
