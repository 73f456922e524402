package vectordb

import "time"

// Document is one retrievable unit of corpus text.
type Document struct {
	ID       string
	Content  string
	Metadata Metadata
}

// Metadata holds structured information about a corpus document chunk.
type Metadata struct {
	Source      string // Source file name, e.g. "leave_policy.md".
	Page        int    // 1-based chunk ordinal within the source.
	Section     string // Nearest heading above the chunk, if any.
	ContentHash string // SHA-256 hex digest of the source file.
	IndexedAt   time.Time
}

// SearchResult pairs a document with its similarity score.
type SearchResult struct {
	Document   Document
	Similarity float32
}
