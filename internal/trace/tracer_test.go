package trace

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/docchat/docchat/internal/schema"
)

func TestTracerBeforeStartReturnsErrNotStarted(t *testing.T) {
	tr := NewTracer()

	if err := tr.SetPlan(schema.RetrievalPlan{}); !errors.Is(err, ErrNotStarted) {
		t.Errorf("SetPlan error = %v, want ErrNotStarted", err)
	}
	if err := tr.SetIteration(1, schema.IterationTrace{}); !errors.Is(err, ErrNotStarted) {
		t.Errorf("SetIteration error = %v, want ErrNotStarted", err)
	}
	if err := tr.SetAnswer(schema.SynthesizedAnswer{}); !errors.Is(err, ErrNotStarted) {
		t.Errorf("SetAnswer error = %v, want ErrNotStarted", err)
	}
	if _, err := tr.Save(t.TempDir()); !errors.Is(err, ErrNotStarted) {
		t.Errorf("Save error = %v, want ErrNotStarted", err)
	}
}

func TestTracerRejectsInvalidIterationNumber(t *testing.T) {
	tr := NewTracer()
	tr.StartQuery("q", "")

	if err := tr.SetIteration(3, schema.IterationTrace{}); err == nil {
		t.Error("expected error for iteration 3")
	}
	if err := tr.SetIteration(0, schema.IterationTrace{}); err == nil {
		t.Error("expected error for iteration 0")
	}
}

func TestTracerSaveAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()

	tr := NewTracer()
	tr.StartQuery("what is the leave policy?", "earlier we discussed onboarding")
	if err := tr.SetPlan(schema.RetrievalPlan{CleanQuery: "leave policy", K: 4, Notes: []string{"short"}}); err != nil {
		t.Fatal(err)
	}
	verdict := schema.SufficiencyVerdict{Sufficient: true, Confidence: 0.9}
	if err := tr.SetIteration(1, schema.IterationTrace{
		Query: "leave policy",
		Retrieved: []schema.RetrievedChunk{
			{ChunkID: "C1", Content: "25 days", Source: "policy.md", Page: 1, Score: 0.91},
		},
		Evaluator: &verdict,
	}); err != nil {
		t.Fatal(err)
	}
	if err := tr.SetAnswer(schema.SynthesizedAnswer{
		Answer:        "Leave is 25 days [C1].",
		CitationsUsed: []string{"[C1]"},
	}); err != nil {
		t.Fatal(err)
	}

	path, err := tr.Save(dir)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !strings.HasSuffix(path, tr.Trace().RunID+"_trace.json") {
		t.Errorf("unexpected trace path %q", path)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(loaded, tr.Trace()) {
		t.Errorf("round trip mismatch:\ngot  %+v\nwant %+v", loaded, tr.Trace())
	}
	if loaded.Iteration2 != nil {
		t.Error("iteration_2 should be nil for a one-round run")
	}
}

func TestTracerSaveCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "traces")

	tr := NewTracer()
	tr.StartQuery("q", "")
	path, err := tr.Save(dir)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("trace file not written: %v", err)
	}
}

func TestRunIDsAreSortableAndDistinct(t *testing.T) {
	a := newRunID()
	b := newRunID()
	if a == b {
		t.Error("expected distinct run IDs")
	}
	// Timestamp prefix keeps lexicographic order aligned with time.
	if a[:15] > b[:15] {
		t.Errorf("run IDs out of order: %q > %q", a, b)
	}
}
