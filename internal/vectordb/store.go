// Package vectordb stores corpus chunks and searches them by
// embedding similarity.
package vectordb

import "context"

// VectorStore is the vector retrieval capability: given query text and
// a width, it returns up to that many results in descending relevance
// order.
type VectorStore interface {
	// AddDocuments adds or updates documents in the store.
	AddDocuments(ctx context.Context, docs []Document) error

	// Search performs a semantic search using the query text.
	Search(ctx context.Context, query string, limit int) ([]SearchResult, error)

	// DeleteBySource removes all documents from the given source file.
	DeleteBySource(ctx context.Context, source string) error

	// Persist saves the store's data to the given directory.
	Persist(ctx context.Context, dir string) error

	// Load restores the store's data from the given directory.
	Load(ctx context.Context, dir string) error

	// Count returns the total number of documents in the store.
	Count() int
}
