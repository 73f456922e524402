package rag

import (
	"fmt"
	"strings"

	"github.com/docchat/docchat/internal/schema"
)

// contextBlock renders chunks as identifier-tagged passages. The
// evaluator and synthesizer share this shape so the model sees the
// same identifiers it is later asked to cite.
func contextBlock(chunks []schema.RetrievedChunk) string {
	parts := make([]string, len(chunks))
	for i, c := range chunks {
		parts[i] = fmt.Sprintf("[%s] (source: %s)\n%s", c.ChunkID, c.Source, c.Content)
	}
	return strings.Join(parts, "\n\n")
}
