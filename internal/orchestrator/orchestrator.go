// Package orchestrator wires the per-turn pipeline: plan → loop →
// trace → memory update.
package orchestrator

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/docchat/docchat/internal/memory"
	"github.com/docchat/docchat/internal/planner"
	"github.com/docchat/docchat/internal/rag"
	"github.com/docchat/docchat/internal/trace"
)

// Orchestrator owns one conversation and drives a full query turn
// through planning, the agentic loop, tracing, and memory updates.
type Orchestrator struct {
	// turnMu serializes whole turns: the memory store must never be
	// read/written by two in-flight turns of the same conversation.
	turnMu sync.Mutex

	planner   *planner.Planner
	loop      *rag.Loop
	memory    *memory.Conversation
	runs      *trace.Store // optional run index; may be nil
	tracesDir string
}

// New creates an Orchestrator. runs may be nil to skip run indexing.
func New(p *planner.Planner, loop *rag.Loop, mem *memory.Conversation, runs *trace.Store, tracesDir string) *Orchestrator {
	return &Orchestrator{
		planner:   p,
		loop:      loop,
		memory:    mem,
		runs:      runs,
		tracesDir: tracesDir,
	}
}

// HandleQuery runs one complete query turn and returns the answer
// text. Memory is updated only after the turn fully completes; any
// external-call failure propagates and leaves memory untouched.
func (o *Orchestrator) HandleQuery(ctx context.Context, userMessage string) (string, error) {
	o.turnMu.Lock()
	defer o.turnMu.Unlock()

	tracer := trace.NewTracer()
	state := o.memory.State()
	tracer.StartQuery(userMessage, state.Summary)

	plan, err := o.planner.Plan(ctx, userMessage, state)
	if err != nil {
		return "", err
	}
	if err := tracer.SetPlan(plan); err != nil {
		return "", err
	}
	log.Printf("orchestrator: plan %q k=%d notes=%v", plan.CleanQuery, plan.K, plan.Notes)

	answer, iterations, err := o.loop.Run(ctx, plan)
	if err != nil {
		return "", err
	}
	for i, it := range iterations {
		if err := tracer.SetIteration(i+1, it); err != nil {
			return "", err
		}
	}
	if err := tracer.SetAnswer(answer); err != nil {
		return "", err
	}

	path, err := tracer.Save(o.tracesDir)
	if err != nil {
		return "", fmt.Errorf("saving trace: %w", err)
	}
	log.Printf("orchestrator: trace saved to %s", path)

	if o.runs != nil {
		if err := o.runs.Record(ctx, tracer.Trace(), path); err != nil {
			return "", fmt.Errorf("indexing trace run: %w", err)
		}
	}

	// The turn is complete; commit it to memory.
	o.memory.AddTurn("user", userMessage)
	o.memory.AddTurn("assistant", answer.Answer)
	if err := o.memory.UpdateSummary(ctx); err != nil {
		return "", err
	}
	if err := o.memory.ExtractFacts(ctx, userMessage); err != nil {
		return "", err
	}

	return answer.Answer, nil
}

// Memory exposes the conversation memory, mainly for front-ends that
// report memory status.
func (o *Orchestrator) Memory() *memory.Conversation {
	return o.memory
}
