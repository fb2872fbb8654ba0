package config

// Config represents the scrollfeed service configuration, loadable from a
// TOML file with SCROLLFEED_-prefixed environment overrides. The TOML
// layout uses sections for logical grouping.
type Config struct {
	API       APIConfig       `mapstructure:"api" toml:"api"`
	Storage   StorageConfig   `mapstructure:"storage" toml:"storage"`
	Embedding EmbeddingConfig `mapstructure:"embedding" toml:"embedding"`
	Ranking   RankingConfig   `mapstructure:"ranking" toml:"ranking"`
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen string `mapstructure:"listen" toml:"listen,omitempty"`
}

// StorageConfig holds store settings.
type StorageConfig struct {
	// Provider selects the store backend: "memory", "sqlite" or "postgres".
	Provider    string `mapstructure:"provider" toml:"provider,omitempty"`
	SQLitePath  string `mapstructure:"sqlite_path" toml:"sqlite_path,omitempty"`
	PostgresURL string `mapstructure:"postgres_url" toml:"postgres_url,omitempty"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	// Provider selects the embedding backend: "gemini" or "ollama".
	Provider string `mapstructure:"provider" toml:"provider,omitempty"`
	Target   string `mapstructure:"target" toml:"target,omitempty"`
	Model    string `mapstructure:"model" toml:"model,omitempty"`
	APIKey   string `mapstructure:"api_key" toml:"api_key,omitempty"`
	// Dimensions is the fixed dimensionality D shared by every profile
	// and article embedding in the corpus.
	Dimensions uint `mapstructure:"dimensions" toml:"dimensions,omitempty"`
	// TimeoutSeconds bounds a single call to the embedding provider.
	TimeoutSeconds uint `mapstructure:"timeout_seconds" toml:"timeout_seconds,omitempty"`
}

// RankingConfig holds feed ranking settings.
type RankingConfig struct {
	// TopK is the default feed size when the request does not override it.
	TopK int `mapstructure:"top_k" toml:"top_k,omitempty"`
	// MaxTopK caps the per-request result-count override.
	MaxTopK int `mapstructure:"max_top_k" toml:"max_top_k,omitempty"`
}
