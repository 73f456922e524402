// Package memory maintains one conversation's state: a sliding window
// of history turns, a rolling LLM-generated summary, and extracted
// user facts.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/docchat/docchat/internal/llm"
	"github.com/docchat/docchat/internal/schema"
	"github.com/docchat/docchat/internal/structured"
)

// recentWindow is how many trailing turns feed the summary and planner
// context: the last 3 user/assistant exchanges.
const recentWindow = 6

// Conversation owns the memory of a single conversation. All mutation
// happens under one lock so concurrent turns cannot interleave.
type Conversation struct {
	mu       sync.Mutex
	provider llm.Provider
	model    string
	maxTurns int
	state    schema.MemoryState
}

// New creates an empty conversation memory. maxTurns is the number of
// user/assistant exchanges to keep; older turns are dropped first.
func New(provider llm.Provider, model string, maxTurns int) *Conversation {
	return &Conversation{
		provider: provider,
		model:    model,
		maxTurns: maxTurns,
	}
}

// State returns an independent snapshot of the current memory state.
func (c *Conversation) State() schema.MemoryState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

// AddTurn appends a turn and trims the history to the most recent
// window, dropping the oldest turns first.
func (c *Conversation) AddTurn(role, content string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state.History = append(c.state.History, schema.Turn{Role: role, Content: content})
	if max := c.maxTurns * 2; len(c.state.History) > max {
		c.state.History = c.state.History[len(c.state.History)-max:]
	}
}

// UpdateSummary regenerates the rolling summary from the previous
// summary plus the most recent turns. No-op when the history is empty.
func (c *Conversation) UpdateSummary(ctx context.Context) error {
	c.mu.Lock()
	if len(c.state.History) == 0 {
		c.mu.Unlock()
		return nil
	}
	prompt := buildSummaryPrompt(c.state)
	c.mu.Unlock()

	resp, err := c.provider.Complete(ctx, llm.Request{
		Model:       c.model,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: prompt}},
		MaxTokens:   256,
		Temperature: 0.2,
	})
	if err != nil {
		return fmt.Errorf("summary completion: %w", err)
	}

	c.mu.Lock()
	c.state.Summary = strings.TrimSpace(resp.Content)
	c.mu.Unlock()
	return nil
}

// ExtractFacts asks the model for short preference/instruction strings
// found in the message and appends any new distinct ones. Malformed
// model output is ignored silently.
func (c *Conversation) ExtractFacts(ctx context.Context, message string) error {
	prompt := "Extract any user preferences or explicit instructions from this message. " +
		"Return a JSON list of short strings, or an empty list if none found.\n\n" +
		"Message: " + message + "\n\nFacts:"

	resp, err := c.provider.Complete(ctx, llm.Request{
		Model:       c.model,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: prompt}},
		MaxTokens:   256,
		Temperature: 0.0,
	})
	if err != nil {
		return fmt.Errorf("fact extraction completion: %w", err)
	}

	var facts []string
	if err := structured.UnmarshalList(resp.Content, &facts); err != nil {
		// Expected occasionally; a missed fact is not worth failing the turn.
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, f := range facts {
		f = strings.TrimSpace(f)
		if f == "" || containsFact(c.state.Facts, f) {
			continue
		}
		c.state.Facts = append(c.state.Facts, f)
	}
	return nil
}

func containsFact(facts []string, fact string) bool {
	for _, f := range facts {
		if f == fact {
			return true
		}
	}
	return false
}

func buildSummaryPrompt(state schema.MemoryState) string {
	recent := state.History
	if len(recent) > recentWindow {
		recent = recent[len(recent)-recentWindow:]
	}

	var b strings.Builder
	b.WriteString("Summarize the following conversation in 2-3 sentences. ")
	b.WriteString("Focus on the topics discussed and any user preferences.\n\n")

	prev := state.Summary
	if prev == "" {
		prev = "(none)"
	}
	fmt.Fprintf(&b, "Previous summary: %s\n\nRecent turns:\n", prev)
	for _, t := range recent {
		fmt.Fprintf(&b, "%s: %s\n", strings.ToUpper(t.Role), t.Content)
	}
	b.WriteString("\nSummary:")
	return b.String()
}
