package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/docchat/docchat/internal/config"
	"github.com/docchat/docchat/internal/db"
	"github.com/docchat/docchat/internal/embeddings"
	"github.com/docchat/docchat/internal/llm"
	"github.com/docchat/docchat/internal/memory"
	"github.com/docchat/docchat/internal/orchestrator"
	"github.com/docchat/docchat/internal/planner"
	"github.com/docchat/docchat/internal/rag"
	"github.com/docchat/docchat/internal/trace"
	"github.com/docchat/docchat/internal/vectordb"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `docchat init` to create a config file", err)
	}
	return cfg, nil
}

// createLLMProviderFromConfig creates an LLM provider based on config
// settings, rate-limited when rate_limit_rpm is set.
func createLLMProviderFromConfig(cfg *config.Config) (llm.Provider, error) {
	provider, err := llm.NewProvider(string(cfg.Provider), cfg.Model)
	if err != nil {
		return nil, err
	}
	if cfg.RateLimitRPM > 0 {
		provider = llm.NewRateLimitedProvider(provider, cfg.RateLimitRPM)
	}
	return provider, nil
}

// createEmbedderFromConfig creates an embeddings.Embedder based on config.
func createEmbedderFromConfig(cfg *config.Config) (embeddings.Embedder, error) {
	provider := cfg.EmbeddingProvider
	if provider == "" {
		provider = cfg.Provider
	}
	model := cfg.EmbeddingModel
	if model == "" {
		model = config.DefaultEmbeddingModel(provider)
	}

	switch provider {
	case config.ProviderOpenAI:
		apiKey := os.Getenv(config.APIKeyEnvVar(config.ProviderOpenAI))
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is required for OpenAI embeddings")
		}
		return embeddings.NewOpenAIEmbedder(apiKey, embeddings.OpenAIModel(model)), nil
	case config.ProviderOllama:
		return embeddings.NewOllamaEmbedder(model, 768, ""), nil
	default:
		// Providers without native embeddings fall back to OpenAI.
		apiKey := os.Getenv(config.APIKeyEnvVar(config.ProviderOpenAI))
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required (used for embeddings when provider is %s)", provider)
		}
		return embeddings.NewOpenAIEmbedder(apiKey, embeddings.OpenAIModel(model)), nil
	}
}

// tracesPath resolves the traces directory relative to the data
// directory unless an absolute path was configured.
func tracesPath(cfg *config.Config) string {
	if filepath.IsAbs(cfg.TracesDir) {
		return cfg.TracesDir
	}
	return filepath.Join(cfg.DataDir, cfg.TracesDir)
}

// pipeline bundles the long-lived pieces shared by every conversation:
// the LLM provider, the planner, the retrieval loop, the vector store,
// and the trace run index. Conversations get fresh memory per session.
type pipeline struct {
	cfg      *config.Config
	provider llm.Provider
	planner  *planner.Planner
	loop     *rag.Loop
	store    vectordb.VectorStore
	database *db.DB
	runs     *trace.Store
}

// buildPipeline assembles the query pipeline from config. It loads the
// persisted vector index; a missing index is an error since there is
// nothing to retrieve from.
func buildPipeline(ctx context.Context) (*pipeline, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	provider, err := createLLMProviderFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating LLM provider: %w", err)
	}

	embedder, err := createEmbedderFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}

	store, err := vectordb.NewChromemStore(embedder)
	if err != nil {
		return nil, fmt.Errorf("creating vector store: %w", err)
	}
	if err := store.Load(ctx, cfg.DataDir); err != nil {
		return nil, fmt.Errorf("loading vector index from %s: %w\nRun `docchat ingest` first", cfg.DataDir, err)
	}

	database, err := db.Open(filepath.Join(cfg.DataDir, "docchat.db"))
	if err != nil {
		return nil, fmt.Errorf("opening trace index: %w", err)
	}

	p := planner.New(provider, cfg.Model, cfg.TopK)
	loop := rag.NewLoop(
		rag.NewRetriever(store),
		rag.NewEvaluator(provider, cfg.Model),
		rag.NewSynthesizer(provider, cfg.Model),
	)

	return &pipeline{
		cfg:      cfg,
		provider: provider,
		planner:  p,
		loop:     loop,
		store:    store,
		database: database,
		runs:     trace.NewStore(database),
	}, nil
}

// newOrchestrator creates an orchestrator with fresh conversation
// memory. Call once per chat session.
func (p *pipeline) newOrchestrator() *orchestrator.Orchestrator {
	mem := memory.New(p.provider, p.cfg.Model, p.cfg.MaxHistoryTurns)
	return orchestrator.New(p.planner, p.loop, mem, p.runs, tracesPath(p.cfg))
}

// Close releases the pipeline's database handle.
func (p *pipeline) Close() error {
	if p.database != nil {
		return p.database.Close()
	}
	return nil
}
