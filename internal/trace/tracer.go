// Package trace builds the immutable per-query decision record and
// persists it: one JSON file per run, plus a SQLite index of runs for
// listing.
package trace

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/docchat/docchat/internal/schema"
)

// ErrNotStarted is returned when a trace is updated or saved before
// StartQuery. This is a programming error, not a recoverable state.
var ErrNotStarted = errors.New("trace: query not started")

// Tracer assembles one QueryTrace incrementally and writes it to disk.
// A saved trace is never rewritten.
type Tracer struct {
	trace *schema.QueryTrace
}

// NewTracer creates a Tracer with no active trace.
func NewTracer() *Tracer {
	return &Tracer{}
}

// StartQuery opens a new trace for the given user message and the
// memory summary as it stood at the start of the turn.
func (t *Tracer) StartQuery(userMessage, memorySummary string) {
	t.trace = &schema.QueryTrace{
		RunID:         newRunID(),
		UserMessage:   userMessage,
		MemorySummary: memorySummary,
	}
}

// SetPlan records the retrieval plan.
func (t *Tracer) SetPlan(plan schema.RetrievalPlan) error {
	if t.trace == nil {
		return ErrNotStarted
	}
	t.trace.RetrievalPlan = &plan
	return nil
}

// SetIteration records the trace of round 1 or 2.
func (t *Tracer) SetIteration(num int, it schema.IterationTrace) error {
	if t.trace == nil {
		return ErrNotStarted
	}
	switch num {
	case 1:
		t.trace.Iteration1 = &it
	case 2:
		t.trace.Iteration2 = &it
	default:
		return fmt.Errorf("trace: invalid iteration number %d", num)
	}
	return nil
}

// SetAnswer records the final answer and its citations.
func (t *Tracer) SetAnswer(answer schema.SynthesizedAnswer) error {
	if t.trace == nil {
		return ErrNotStarted
	}
	t.trace.FinalAnswer = answer.Answer
	t.trace.CitationsUsed = answer.CitationsUsed
	return nil
}

// Trace returns the trace built so far, or nil before StartQuery.
func (t *Tracer) Trace() *schema.QueryTrace {
	return t.trace
}

// Save serializes the complete trace to <dir>/<run_id>_trace.json,
// creating the directory if needed, and returns the written path.
func (t *Tracer) Save(dir string) (string, error) {
	if t.trace == nil {
		return "", ErrNotStarted
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating traces directory: %w", err)
	}

	data, err := json.MarshalIndent(t.trace, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshalling trace: %w", err)
	}

	path := filepath.Join(dir, t.trace.RunID+"_trace.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing trace to %s: %w", path, err)
	}
	return path, nil
}

// Load reads a trace file back into a QueryTrace.
func Load(path string) (*schema.QueryTrace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading trace %s: %w", path, err)
	}
	var qt schema.QueryTrace
	if err := json.Unmarshal(data, &qt); err != nil {
		return nil, fmt.Errorf("unmarshalling trace %s: %w", path, err)
	}
	return &qt, nil
}

// newRunID returns a timestamp-plus-random-suffix identifier, e.g.
// "20250108T142355_a3f2". Identifiers sort by start time; the suffix
// distinguishes runs started in the same second.
func newRunID() string {
	u := uuid.New()
	return fmt.Sprintf("%s_%x", time.Now().UTC().Format("20060102T150405"), u[:2])
}
