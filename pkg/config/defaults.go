package config

const (
	defaultAPIListen = ":8080"

	defaultStorageProvider = "sqlite"
	defaultSQLitePath      = "scrollfeed.db"

	defaultEmbeddingProvider = "ollama"
	defaultEmbeddingTarget   = "http://localhost:11434"
	defaultEmbeddingModel    = "nomic-embed-text"

	defaultEmbeddingDimensions = 768
	defaultEmbedTimeoutSeconds = 10

	defaultTopK    = 10
	defaultMaxTopK = 50
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			Listen: defaultAPIListen,
		},
		Storage: StorageConfig{
			Provider:   defaultStorageProvider,
			SQLitePath: defaultSQLitePath,
		},
		Embedding: EmbeddingConfig{
			Provider:       defaultEmbeddingProvider,
			Target:         defaultEmbeddingTarget,
			Model:          defaultEmbeddingModel,
			Dimensions:     defaultEmbeddingDimensions,
			TimeoutSeconds: defaultEmbedTimeoutSeconds,
		},
		Ranking: RankingConfig{
			TopK:    defaultTopK,
			MaxTopK: defaultMaxTopK,
		},
	}
}
