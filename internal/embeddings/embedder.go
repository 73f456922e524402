// Package embeddings abstracts text-embedding backends.
package embeddings

import "context"

// Embedder generates vector embeddings for texts.
type Embedder interface {
	// Embed generates embeddings for one or more texts.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector width.
	Dimensions() int

	// Name returns the model identifier.
	Name() string
}
