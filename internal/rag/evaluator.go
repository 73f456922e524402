package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/docchat/docchat/internal/llm"
	"github.com/docchat/docchat/internal/schema"
	"github.com/docchat/docchat/internal/structured"
)

// Evaluator judges whether retrieved chunks suffice to answer a query.
type Evaluator struct {
	provider llm.Provider
	model    string
}

// NewEvaluator creates an Evaluator.
func NewEvaluator(provider llm.Provider, model string) *Evaluator {
	return &Evaluator{provider: provider, model: model}
}

// Evaluate returns a sufficiency verdict for the chunks against the
// query. An unparseable model response yields the fail-safe verdict
// {sufficient, confidence 0.5} so a bad judgment can never cause
// unbounded looping. A failed model call is returned as an error.
func (e *Evaluator) Evaluate(ctx context.Context, query string, chunks []schema.RetrievedChunk) (schema.SufficiencyVerdict, error) {
	prompt := buildEvaluatorPrompt(query, chunks)

	resp, err := e.provider.Complete(ctx, llm.Request{
		Model:       e.model,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: prompt}},
		MaxTokens:   512,
		Temperature: 0.0,
		JSONMode:    true,
	})
	if err != nil {
		return schema.SufficiencyVerdict{}, fmt.Errorf("evaluator completion: %w", err)
	}

	verdict, _ := structured.Decode(resp.Content, parseVerdict, defaultVerdict)
	return verdict, nil
}

func parseVerdict(text string) (schema.SufficiencyVerdict, error) {
	var raw struct {
		Sufficient   bool    `json:"sufficient"`
		Missing      string  `json:"missing"`
		RefinedQuery string  `json:"refined_query"`
		Confidence   float64 `json:"confidence"`
	}
	if err := structured.UnmarshalObject(text, &raw); err != nil {
		return schema.SufficiencyVerdict{}, err
	}

	v := schema.SufficiencyVerdict{
		Sufficient:   raw.Sufficient,
		Missing:      strings.TrimSpace(raw.Missing),
		RefinedQuery: strings.TrimSpace(raw.RefinedQuery),
		Confidence:   clamp01(raw.Confidence),
	}
	if v.Sufficient {
		v.Missing = ""
		v.RefinedQuery = ""
	}
	return v, nil
}

// defaultVerdict is the fail-safe: bias toward termination, not retry.
func defaultVerdict(string) (schema.SufficiencyVerdict, error) {
	return schema.SufficiencyVerdict{Sufficient: true, Confidence: 0.5}, nil
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

func buildEvaluatorPrompt(query string, chunks []schema.RetrievedChunk) string {
	var b strings.Builder
	b.WriteString("You are a retrieval quality evaluator for a document Q&A system.\n\n")
	b.WriteString("Given a user query and retrieved document chunks, determine if the chunks contain SUFFICIENT information to fully answer the query.\n\n")
	b.WriteString("Be strict: if the query asks for an explanation with examples but the chunks only contain policy statements without examples, mark as insufficient. ")
	b.WriteString("If the query asks for a specific detail and the chunks discuss the topic generally but don't include that detail, mark as insufficient.\n\n")
	fmt.Fprintf(&b, "User Query: %s\n\nRetrieved Chunks:\n%s\n\n", query, contextBlock(chunks))
	b.WriteString(`Respond with a JSON object:
{
  "sufficient": true/false,
  "missing": "what information is missing (empty string if sufficient)",
  "refined_query": "a better search query to find the missing info (empty string if sufficient)",
  "confidence": 0.0 to 1.0
}

Respond ONLY with valid JSON. No markdown, no explanation.`)
	return b.String()
}
