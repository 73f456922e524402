package rag

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/docchat/docchat/internal/llm"
	"github.com/docchat/docchat/internal/schema"
)

// citationPattern matches the literal bracketed chunk markers the
// synthesizer asks the model to emit, e.g. [C1].
var citationPattern = regexp.MustCompile(`\[C\d+\]`)

// Synthesizer generates the final answer from retrieved chunks,
// citing sources as [C1], [C2], and so on.
type Synthesizer struct {
	provider llm.Provider
	model    string
}

// NewSynthesizer creates a Synthesizer.
func NewSynthesizer(provider llm.Provider, model string) *Synthesizer {
	return &Synthesizer{provider: provider, model: model}
}

// Synthesize answers the query using only the supplied chunks. Notes
// are appended verbatim as formatting constraints; a non-empty
// limitations text instructs the model to acknowledge the gap.
// CitationsUsed is a syntactic scan of the produced text, not a
// semantic verification of the citations.
func (s *Synthesizer) Synthesize(ctx context.Context, query string, chunks []schema.RetrievedChunk, notes []string, limitations string) (schema.SynthesizedAnswer, error) {
	prompt := buildSynthesizerPrompt(query, chunks, notes, limitations)

	resp, err := s.provider.Complete(ctx, llm.Request{
		Model:       s.model,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: prompt}},
		MaxTokens:   1024,
		Temperature: 0.2,
	})
	if err != nil {
		return schema.SynthesizedAnswer{}, fmt.Errorf("synthesizer completion: %w", err)
	}

	answerText := strings.TrimSpace(resp.Content)

	return schema.SynthesizedAnswer{
		Answer:        answerText,
		CitationsUsed: ExtractCitations(answerText),
		Limitations:   limitations,
	}, nil
}

// ExtractCitations returns the deduplicated, sorted citation markers
// present in text.
func ExtractCitations(text string) []string {
	matches := citationPattern.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(matches))
	var cited []string
	for _, m := range matches {
		if !seen[m] {
			seen[m] = true
			cited = append(cited, m)
		}
	}
	sort.Strings(cited)
	return cited
}

func buildSynthesizerPrompt(query string, chunks []schema.RetrievedChunk, notes []string, limitations string) string {
	var b strings.Builder
	b.WriteString("You are a document Q&A assistant. Answer the user's question using ONLY the provided context chunks.\n\n")
	b.WriteString("Rules:\n")
	b.WriteString("- Cite every fact using the chunk ID in square brackets, e.g. [C1], [C2].\n")
	b.WriteString("- If multiple chunks support a fact, cite all of them.\n")
	b.WriteString("- If the context doesn't contain enough information, say so honestly.\n")
	b.WriteString("- Do NOT invent information not present in the context.\n")

	if len(notes) > 0 {
		fmt.Fprintf(&b, "\nFormatting instructions from user: %s\n", strings.Join(notes, "; "))
	}
	if limitations != "" {
		fmt.Fprintf(&b, "\nNote: After two retrieval attempts, some information may still be incomplete. Missing: %s. Acknowledge any gaps honestly.\n", limitations)
	}

	fmt.Fprintf(&b, "\nContext Chunks:\n%s\n\nUser Question: %s\n\nAnswer:", contextBlock(chunks), query)
	return b.String()
}
