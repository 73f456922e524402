package ingest

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/docchat/docchat/internal/config"
	"github.com/docchat/docchat/internal/vectordb"
)

// Stats summarizes one ingestion run.
type Stats struct {
	Documents int
	Chunks    int
}

// Run executes the full ingestion pipeline: load the corpus, chunk
// every document, embed the chunks into the vector store, and persist
// a snapshot under the data directory.
func Run(ctx context.Context, cfg *config.Config, store vectordb.VectorStore) (*Stats, error) {
	docs, err := LoadCorpus(cfg.DocsDir, cfg.Include, cfg.Exclude)
	if err != nil {
		return nil, err
	}
	log.Printf("ingest: loaded %d document(s) from %s", len(docs), cfg.DocsDir)

	now := time.Now()
	var vdocs []vectordb.Document
	for _, doc := range docs {
		chunks := ChunkDocument(doc, cfg.ChunkSize, cfg.ChunkOverlap)
		for _, c := range chunks {
			vdocs = append(vdocs, vectordb.Document{
				ID:      fmt.Sprintf("%s#%d", doc.RelPath, c.Page),
				Content: c.Content,
				Metadata: vectordb.Metadata{
					Source:      c.Source,
					Page:        c.Page,
					Section:     c.Section,
					ContentHash: c.ContentHash,
					IndexedAt:   now,
				},
			})
		}
	}
	if len(vdocs) == 0 {
		return nil, fmt.Errorf("chunking produced zero chunks from %d document(s)", len(docs))
	}
	log.Printf("ingest: produced %d chunk(s)", len(vdocs))

	bar := progressbar.NewOptions(len(vdocs),
		progressbar.OptionSetDescription("Embedding chunks"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	// One document per call keeps the progress bar honest; embedding
	// dominates the cost anyway.
	for i, vd := range vdocs {
		if err := store.AddDocuments(ctx, []vectordb.Document{vd}); err != nil {
			return nil, fmt.Errorf("indexing chunk %s: %w", vd.ID, err)
		}
		_ = bar.Set(i + 1)
	}
	_ = bar.Finish()

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	if err := store.Persist(ctx, cfg.DataDir); err != nil {
		return nil, fmt.Errorf("persisting vector store: %w", err)
	}

	return &Stats{Documents: len(docs), Chunks: len(vdocs)}, nil
}
