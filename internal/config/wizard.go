package config

import (
	"fmt"
	"strconv"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to the given path.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to docchat! Let's configure your document corpus.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Provider selection.
	providerPrompt := promptui.Select{
		Label: "Select LLM provider",
		Items: []string{"openai", "anthropic", "ollama"},
	}
	_, providerStr, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	cfg.Provider = ProviderType(providerStr)
	cfg.Model = DefaultModel(cfg.Provider)

	// Embeddings come from the same provider when it supports them,
	// otherwise OpenAI.
	cfg.EmbeddingProvider = cfg.Provider
	if cfg.Provider == ProviderAnthropic {
		cfg.EmbeddingProvider = ProviderOpenAI
	}
	cfg.EmbeddingModel = DefaultEmbeddingModel(cfg.EmbeddingProvider)

	// 2. Model override.
	modelPrompt := promptui.Prompt{
		Label:   "Chat model",
		Default: cfg.Model,
	}
	model, err := modelPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("model prompt: %w", err)
	}
	cfg.Model = model

	// 3. Document directory.
	docsPrompt := promptui.Prompt{
		Label:   "Directory containing your documents",
		Default: cfg.DocsDir,
	}
	docsDir, err := docsPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("docs dir prompt: %w", err)
	}
	cfg.DocsDir = docsDir

	// 4. Retrieval width.
	kPrompt := promptui.Prompt{
		Label:   "Chunks to retrieve per query",
		Default: strconv.Itoa(cfg.TopK),
		Validate: func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 {
				return fmt.Errorf("must be a positive integer")
			}
			return nil
		},
	}
	kStr, err := kPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("top_k prompt: %w", err)
	}
	cfg.TopK, _ = strconv.Atoi(kStr)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Save(path); err != nil {
		return nil, err
	}

	fmt.Printf("\nSaved configuration to %s\n", path)
	keyVar := APIKeyEnvVar(cfg.Provider)
	if keyVar != "" {
		fmt.Printf("Make sure %s is set, then run `docchat ingest`.\n", keyVar)
	}
	return cfg, nil
}
