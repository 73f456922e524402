package planner

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/docchat/docchat/internal/llm"
	"github.com/docchat/docchat/internal/schema"
)

type fakeProvider struct {
	response string
	lastReq  llm.Request
	err      error
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &llm.Response{Content: f.response}, nil
}

func TestPlanParsesStrictJSON(t *testing.T) {
	provider := &fakeProvider{response: `{"clean_query": "what is the parental leave policy", "k": 12, "notes": ["keep it short"]}`}
	p := New(provider, "m", 8)

	plan, err := p.Plan(context.Background(), "what about parental leave?", schema.MemoryState{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.CleanQuery != "what is the parental leave policy" {
		t.Errorf("clean_query = %q", plan.CleanQuery)
	}
	if plan.K != 12 {
		t.Errorf("k = %d, want 12", plan.K)
	}
	if len(plan.Notes) != 1 || plan.Notes[0] != "keep it short" {
		t.Errorf("notes = %v", plan.Notes)
	}
	if !provider.lastReq.JSONMode {
		t.Error("planner request should ask for JSON mode")
	}
}

func TestPlanParsesFencedJSON(t *testing.T) {
	provider := &fakeProvider{response: "```json\n{\"clean_query\": \"remote work rules\", \"k\": 6}\n```"}
	p := New(provider, "m", 8)

	plan, err := p.Plan(context.Background(), "and remote work?", schema.MemoryState{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.CleanQuery != "remote work rules" || plan.K != 6 {
		t.Errorf("got %+v", plan)
	}
}

func TestPlanLooseExtractionFromMalformedJSON(t *testing.T) {
	// Trailing garbage breaks strict parsing but the fields are present.
	provider := &fakeProvider{response: `{"clean_query": "expense reimbursement deadline", "k": 4, "notes": [`}
	p := New(provider, "m", 8)

	plan, err := p.Plan(context.Background(), "when is it due?", schema.MemoryState{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.CleanQuery != "expense reimbursement deadline" {
		t.Errorf("clean_query = %q", plan.CleanQuery)
	}
	if plan.K != 4 {
		t.Errorf("k = %d, want 4", plan.K)
	}
}

func TestPlanFallsBackToRawMessage(t *testing.T) {
	provider := &fakeProvider{response: "I could not produce JSON, sorry."}
	p := New(provider, "m", 8)

	plan, err := p.Plan(context.Background(), "what is the policy?", schema.MemoryState{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.CleanQuery != "what is the policy?" {
		t.Errorf("fallback clean_query = %q, want raw message", plan.CleanQuery)
	}
	if plan.K != 8 {
		t.Errorf("fallback k = %d, want default 8", plan.K)
	}
}

func TestPlanDefaultsNonPositiveK(t *testing.T) {
	provider := &fakeProvider{response: `{"clean_query": "vacation carryover", "k": 0}`}
	p := New(provider, "m", 8)

	plan, err := p.Plan(context.Background(), "carryover?", schema.MemoryState{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.K != 8 {
		t.Errorf("k = %d, want default 8", plan.K)
	}
}

func TestPlanPropagatesProviderError(t *testing.T) {
	provider := &fakeProvider{err: errors.New("model down")}
	p := New(provider, "m", 8)

	if _, err := p.Plan(context.Background(), "q", schema.MemoryState{}); err == nil {
		t.Error("expected error from failing provider")
	}
}

func TestPlanPromptIncludesMemoryContext(t *testing.T) {
	provider := &fakeProvider{response: `{"clean_query": "q", "k": 8}`}
	p := New(provider, "m", 8)

	mem := schema.MemoryState{
		Summary: "The user asked about vacation days.",
		History: []schema.Turn{
			{Role: "user", Content: "how many vacation days?"},
			{Role: "assistant", Content: "25 days. [C1]"},
		},
		Facts: []string{"prefers short answers"},
	}
	if _, err := p.Plan(context.Background(), "does that include holidays?", mem); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	prompt := provider.lastReq.Messages[0].Content
	for _, want := range []string{
		"The user asked about vacation days.",
		"how many vacation days?",
		"prefers short answers",
		"does that include holidays?",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}
