package orchestrator

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/docchat/docchat/internal/db"
	"github.com/docchat/docchat/internal/llm"
	"github.com/docchat/docchat/internal/memory"
	"github.com/docchat/docchat/internal/planner"
	"github.com/docchat/docchat/internal/rag"
	"github.com/docchat/docchat/internal/trace"
	"github.com/docchat/docchat/internal/vectordb"
)

// scriptedProvider returns queued responses in order and fails once the
// queue is empty. The pipeline is strictly sequential, so the queue
// order is the call order: planner, evaluator(s), synthesizer, summary,
// facts.
type scriptedProvider struct {
	responses []string
	calls     int
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	if p.calls >= len(p.responses) {
		return nil, errors.New("scripted provider: out of responses")
	}
	content := p.responses[p.calls]
	p.calls++
	return &llm.Response{Content: content}, nil
}

type fixedStore struct {
	results []vectordb.SearchResult
}

func (f *fixedStore) AddDocuments(ctx context.Context, docs []vectordb.Document) error { return nil }
func (f *fixedStore) DeleteBySource(ctx context.Context, source string) error          { return nil }
func (f *fixedStore) Persist(ctx context.Context, dir string) error                    { return nil }
func (f *fixedStore) Load(ctx context.Context, dir string) error                       { return nil }
func (f *fixedStore) Count() int                                                       { return len(f.results) }

func (f *fixedStore) Search(ctx context.Context, query string, limit int) ([]vectordb.SearchResult, error) {
	return f.results, nil
}

func newTestOrchestrator(t *testing.T, provider llm.Provider, tracesDir string) (*Orchestrator, *trace.Store) {
	t.Helper()

	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("opening db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	store := &fixedStore{results: []vectordb.SearchResult{{
		Document: vectordb.Document{
			Content:  "leave is 25 days per year",
			Metadata: vectordb.Metadata{Source: "policy.md", Page: 1},
		},
		Similarity: 0.92,
	}}}

	runs := trace.NewStore(database)
	o := New(
		planner.New(provider, "m", 4),
		rag.NewLoop(
			rag.NewRetriever(store),
			rag.NewEvaluator(provider, "m"),
			rag.NewSynthesizer(provider, "m"),
		),
		memory.New(provider, "m", 10),
		runs,
		tracesDir,
	)
	return o, runs
}

func TestHandleQueryFullTurn(t *testing.T) {
	tracesDir := t.TempDir()
	provider := &scriptedProvider{responses: []string{
		`{"clean_query": "annual leave allowance", "k": 2}`,
		`{"sufficient": true, "confidence": 0.9}`,
		"Employees get 25 days of leave [C1].",
		"The user asked about annual leave.",
		`["prefers concise answers"]`,
	}}

	o, runs := newTestOrchestrator(t, provider, tracesDir)

	answer, err := o.HandleQuery(context.Background(), "how much leave do I get?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer != "Employees get 25 days of leave [C1]." {
		t.Errorf("answer = %q", answer)
	}

	// Memory committed after the turn.
	state := o.Memory().State()
	if len(state.History) != 2 {
		t.Fatalf("expected 2 history turns, got %d", len(state.History))
	}
	if state.History[0].Role != "user" || state.History[1].Role != "assistant" {
		t.Errorf("history roles = %q, %q", state.History[0].Role, state.History[1].Role)
	}
	if state.Summary != "The user asked about annual leave." {
		t.Errorf("summary = %q", state.Summary)
	}
	if len(state.Facts) != 1 || state.Facts[0] != "prefers concise answers" {
		t.Errorf("facts = %v", state.Facts)
	}

	// Trace file written and indexed.
	entries, err := os.ReadDir(tracesDir)
	if err != nil || len(entries) != 1 {
		t.Fatalf("expected 1 trace file, got %v (%v)", entries, err)
	}
	if !strings.HasSuffix(entries[0].Name(), "_trace.json") {
		t.Errorf("trace file name = %q", entries[0].Name())
	}

	indexed, err := runs.List(context.Background(), 10)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(indexed) != 1 {
		t.Fatalf("expected 1 indexed run, got %d", len(indexed))
	}
	if indexed[0].IterationCount != 1 || indexed[0].CitationCount != 1 {
		t.Errorf("indexed run = %+v", indexed[0])
	}

	qt, err := trace.Load(indexed[0].FilePath)
	if err != nil {
		t.Fatalf("loading trace: %v", err)
	}
	if qt.RetrievalPlan == nil || qt.RetrievalPlan.CleanQuery != "annual leave allowance" {
		t.Errorf("trace plan = %+v", qt.RetrievalPlan)
	}
	if qt.Iteration1 == nil || qt.Iteration2 != nil {
		t.Error("expected exactly one recorded iteration")
	}
}

func TestHandleQueryTwoRoundTurn(t *testing.T) {
	provider := &scriptedProvider{responses: []string{
		`{"clean_query": "leave policy examples", "k": 2}`,
		`{"sufficient": false, "missing": "examples", "refined_query": "worked leave examples", "confidence": 0.4}`,
		`{"sufficient": true, "confidence": 0.9}`,
		"Example: 25 days [C1].",
		"summary",
		`[]`,
	}}

	o, runs := newTestOrchestrator(t, provider, t.TempDir())

	if _, err := o.HandleQuery(context.Background(), "give me examples"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	indexed, err := runs.List(context.Background(), 10)
	if err != nil || len(indexed) != 1 {
		t.Fatalf("list runs: %v (%d)", err, len(indexed))
	}
	if indexed[0].IterationCount != 2 {
		t.Errorf("iteration count = %d, want 2", indexed[0].IterationCount)
	}
}

func TestHandleQueryFailureLeavesMemoryUntouched(t *testing.T) {
	// Planner succeeds, evaluator call fails: the turn must not commit.
	provider := &scriptedProvider{responses: []string{
		`{"clean_query": "q", "k": 2}`,
	}}

	o, _ := newTestOrchestrator(t, provider, t.TempDir())

	if _, err := o.HandleQuery(context.Background(), "question"); err == nil {
		t.Fatal("expected error from exhausted provider")
	}

	state := o.Memory().State()
	if len(state.History) != 0 || state.Summary != "" || len(state.Facts) != 0 {
		t.Errorf("memory mutated by failed turn: %+v", state)
	}
}

func TestHandleQueryWithoutRunIndex(t *testing.T) {
	tracesDir := t.TempDir()
	provider := &scriptedProvider{responses: []string{
		`{"clean_query": "q", "k": 2}`,
		`{"sufficient": true, "confidence": 0.9}`,
		"answer [C1]",
		"summary",
		`[]`,
	}}

	store := &fixedStore{}
	o := New(
		planner.New(provider, "m", 4),
		rag.NewLoop(
			rag.NewRetriever(store),
			rag.NewEvaluator(provider, "m"),
			rag.NewSynthesizer(provider, "m"),
		),
		memory.New(provider, "m", 10),
		nil, // no run index
		tracesDir,
	)

	answer, err := o.HandleQuery(context.Background(), "question")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer != "answer [C1]" {
		t.Errorf("answer = %q", answer)
	}

	entries, _ := os.ReadDir(tracesDir)
	if len(entries) != 1 {
		t.Errorf("expected trace file even without run index, got %d", len(entries))
	}
}
