// Package planner turns a raw user message plus memory context into a
// canonical retrieval plan.
package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/docchat/docchat/internal/llm"
	"github.com/docchat/docchat/internal/schema"
	"github.com/docchat/docchat/internal/structured"
)

// recentWindow mirrors the memory package: the last 3 exchanges.
const recentWindow = 6

// Planner rewrites user messages into self-contained retrieval plans.
type Planner struct {
	provider llm.Provider
	model    string
	defaultK int
}

// New creates a Planner. defaultK is the retrieval width used when the
// model does not choose one.
func New(provider llm.Provider, model string, defaultK int) *Planner {
	return &Planner{provider: provider, model: model, defaultK: defaultK}
}

// Plan produces a retrieval plan for the user message. Malformed model
// output degrades through regex extraction down to the raw message and
// default width; only a failed model call is returned as an error.
func (p *Planner) Plan(ctx context.Context, userMessage string, mem schema.MemoryState) (schema.RetrievalPlan, error) {
	prompt := p.buildPrompt(userMessage, mem)

	resp, err := p.provider.Complete(ctx, llm.Request{
		Model:       p.model,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: prompt}},
		MaxTokens:   512,
		Temperature: 0.2,
		JSONMode:    true,
	})
	if err != nil {
		return schema.RetrievalPlan{}, fmt.Errorf("planner completion: %w", err)
	}

	plan, _ := structured.Decode(resp.Content,
		p.parseStrict,
		p.parseLoose,
		p.fallback(userMessage),
	)
	return plan, nil
}

// parseStrict attempts a full JSON parse of the model response.
func (p *Planner) parseStrict(text string) (schema.RetrievalPlan, error) {
	var raw struct {
		CleanQuery string   `json:"clean_query"`
		K          int      `json:"k"`
		Notes      []string `json:"notes"`
	}
	if err := structured.UnmarshalObject(text, &raw); err != nil {
		return schema.RetrievalPlan{}, err
	}
	if strings.TrimSpace(raw.CleanQuery) == "" {
		return schema.RetrievalPlan{}, errors.New("planner: empty clean_query")
	}
	k := raw.K
	if k <= 0 {
		k = p.defaultK
	}
	return schema.RetrievalPlan{
		CleanQuery: strings.TrimSpace(raw.CleanQuery),
		K:          k,
		Notes:      raw.Notes,
	}, nil
}

// parseLoose extracts individual fields from malformed JSON.
func (p *Planner) parseLoose(text string) (schema.RetrievalPlan, error) {
	query, ok := structured.StringField(text, "clean_query")
	if !ok || strings.TrimSpace(query) == "" {
		return schema.RetrievalPlan{}, errors.New("planner: clean_query not found")
	}
	k := p.defaultK
	if n, ok := structured.IntField(text, "k"); ok && n > 0 {
		k = n
	}
	return schema.RetrievalPlan{CleanQuery: strings.TrimSpace(query), K: k}, nil
}

// fallback uses the raw user message verbatim. It never fails.
func (p *Planner) fallback(userMessage string) structured.Parser[schema.RetrievalPlan] {
	return func(string) (schema.RetrievalPlan, error) {
		return schema.RetrievalPlan{CleanQuery: userMessage, K: p.defaultK}, nil
	}
}

func (p *Planner) buildPrompt(userMessage string, mem schema.MemoryState) string {
	var b strings.Builder

	b.WriteString("You are a query-planning agent for a document Q&A system.\n\n")
	b.WriteString("Given the conversation context and the user's latest message, produce a JSON object with:\n")
	b.WriteString(`- "clean_query": a self-contained, searchable query that resolves all pronouns and references using conversation history. This must be a standalone question that a search engine could answer without any conversation context.` + "\n")
	fmt.Fprintf(&b, `- "k": number of chunks to retrieve (default %d, increase for broad topics)`+"\n", p.defaultK)
	b.WriteString(`- "notes": list of formatting/style instructions extracted from the user message (e.g. ["keep to 2 lines", "give an example"])` + "\n\n")
	b.WriteString("IMPORTANT: If the user says \"that\", \"it\", \"this\", or similar pronouns, you MUST resolve them to the actual topic from conversation history.\n")

	if mem.Summary != "" {
		fmt.Fprintf(&b, "\nConversation summary: %s\n", mem.Summary)
	}

	recent := mem.History
	if len(recent) > recentWindow {
		recent = recent[len(recent)-recentWindow:]
	}
	if len(recent) > 0 {
		b.WriteString("\nRecent conversation:\n")
		for _, t := range recent {
			fmt.Fprintf(&b, "  %s: %s\n", strings.ToUpper(t.Role), t.Content)
		}
	}

	if len(mem.Facts) > 0 {
		fmt.Fprintf(&b, "\nUser preferences: %s\n", strings.Join(mem.Facts, "; "))
	}

	fmt.Fprintf(&b, "\nCurrent user message: %s\n", userMessage)
	b.WriteString("\nRespond ONLY with a valid JSON object. No markdown, no explanation.")

	return b.String()
}
