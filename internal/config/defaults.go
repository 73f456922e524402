package config

// defaultModels maps each provider to its default chat model.
var defaultModels = map[ProviderType]string{
	ProviderOpenAI:    "gpt-4o",
	ProviderAnthropic: "claude-sonnet-4-5-20250929",
	ProviderOllama:    "llama3",
}

// defaultEmbeddingModels maps each provider to its default embedding model.
var defaultEmbeddingModels = map[ProviderType]string{
	ProviderOpenAI: "text-embedding-3-small",
	ProviderOllama: "nomic-embed-text",
}

// DefaultExcludes are glob patterns excluded from ingestion by default.
var DefaultExcludes = []string{
	".git/**",
	"node_modules/**",
	"**/README.md",
	"**/CHANGELOG.md",
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Provider:          ProviderOpenAI,
		Model:             defaultModels[ProviderOpenAI],
		EmbeddingProvider: ProviderOpenAI,
		EmbeddingModel:    defaultEmbeddingModels[ProviderOpenAI],
		DocsDir:           "docs",
		DataDir:           ".docchat",
		TracesDir:         "traces",
		TopK:              8,
		MaxHistoryTurns:   10,
		Include:           []string{"**/*.md", "**/*.txt"},
		Exclude:           DefaultExcludes,
		ChunkSize:         1400,
		ChunkOverlap:      200,
		RateLimitRPM:      0,
		Server: ServerConfig{
			Port: 8377,
		},
	}
}

// DefaultModel returns the default chat model for the given provider.
func DefaultModel(provider ProviderType) string {
	if m, ok := defaultModels[provider]; ok {
		return m
	}
	return defaultModels[ProviderOpenAI]
}

// DefaultEmbeddingModel returns the default embedding model for the
// given provider. Providers without native embeddings fall back to
// OpenAI's small model.
func DefaultEmbeddingModel(provider ProviderType) string {
	if m, ok := defaultEmbeddingModels[provider]; ok {
		return m
	}
	return defaultEmbeddingModels[ProviderOpenAI]
}
