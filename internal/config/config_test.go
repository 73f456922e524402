package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Provider != ProviderOpenAI {
		t.Errorf("expected default provider openai, got %q", cfg.Provider)
	}
	if cfg.TopK != 8 {
		t.Errorf("expected default top_k 8, got %d", cfg.TopK)
	}
}

func TestLoadFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".docchat.yml")
	yaml := `provider: ollama
model: llama3
docs_dir: corpus
top_k: 4
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Provider != ProviderOllama {
		t.Errorf("provider = %q, want ollama", cfg.Provider)
	}
	if cfg.DocsDir != "corpus" {
		t.Errorf("docs_dir = %q, want corpus", cfg.DocsDir)
	}
	if cfg.TopK != 4 {
		t.Errorf("top_k = %d, want 4", cfg.TopK)
	}
	// Untouched fields keep their defaults.
	if cfg.ChunkSize != 1400 {
		t.Errorf("chunk_size = %d, want default 1400", cfg.ChunkSize)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".docchat.yml")
	if err := os.WriteFile(path, []byte("model: gpt-4o\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DOCCHAT_MODEL", "gpt-4o-mini")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Model != "gpt-4o-mini" {
		t.Errorf("model = %q, want env override gpt-4o-mini", cfg.Model)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".docchat.yml")

	cfg := DefaultConfig()
	cfg.Provider = ProviderAnthropic
	cfg.Model = "claude-sonnet-4-5-20250929"
	if err := cfg.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Provider != ProviderAnthropic {
		t.Errorf("provider = %q, want anthropic", loaded.Provider)
	}
	if loaded.Model != cfg.Model {
		t.Errorf("model = %q, want %q", loaded.Model, cfg.Model)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty provider", func(c *Config) { c.Provider = "" }},
		{"unknown provider", func(c *Config) { c.Provider = "cohere" }},
		{"empty model", func(c *Config) { c.Model = "" }},
		{"bad embedding provider", func(c *Config) { c.EmbeddingProvider = "cohere" }},
		{"empty docs dir", func(c *Config) { c.DocsDir = "" }},
		{"zero top_k", func(c *Config) { c.TopK = 0 }},
		{"zero history", func(c *Config) { c.MaxHistoryTurns = 0 }},
		{"overlap >= chunk size", func(c *Config) { c.ChunkOverlap = c.ChunkSize }},
		{"negative rpm", func(c *Config) { c.RateLimitRPM = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestAPIKeyEnvVar(t *testing.T) {
	if got := APIKeyEnvVar(ProviderOpenAI); got != "OPENAI_API_KEY" {
		t.Errorf("openai env var = %q", got)
	}
	if got := APIKeyEnvVar(ProviderAnthropic); got != "ANTHROPIC_API_KEY" {
		t.Errorf("anthropic env var = %q", got)
	}
	if got := APIKeyEnvVar(ProviderOllama); got != "" {
		t.Errorf("ollama env var = %q, want empty", got)
	}
}
