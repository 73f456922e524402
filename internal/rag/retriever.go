// Package rag implements the agentic retrieval loop: bounded
// retrieve/evaluate rounds feeding a single citation-aware synthesis.
package rag

import (
	"context"
	"fmt"

	"github.com/docchat/docchat/internal/schema"
	"github.com/docchat/docchat/internal/vectordb"
)

// Retriever wraps the vector store and returns typed chunks with
// rank-ordered identifiers C1..Ck.
type Retriever struct {
	store vectordb.VectorStore
}

// NewRetriever creates a Retriever over the given store.
func NewRetriever(store vectordb.VectorStore) *Retriever {
	return &Retriever{store: store}
}

// Retrieve searches for up to k chunks. Identifiers are assigned in
// descending relevance order and are only unique within this call.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]schema.RetrievedChunk, error) {
	results, err := r.store.Search(ctx, query, k)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	chunks := make([]schema.RetrievedChunk, len(results))
	for i, res := range results {
		chunks[i] = schema.RetrievedChunk{
			ChunkID: fmt.Sprintf("C%d", i+1),
			Content: res.Document.Content,
			Source:  res.Document.Metadata.Source,
			Page:    res.Document.Metadata.Page,
			Score:   float64(res.Similarity),
		}
	}
	return chunks, nil
}
