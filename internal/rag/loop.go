package rag

import (
	"context"
	"fmt"
	"log"

	"github.com/docchat/docchat/internal/schema"
)

// loopState enumerates the states of the retrieval-refinement loop.
// The only branch is after the first evaluation: a sufficient verdict
// jumps straight to synthesis, bypassing round 2.
type loopState int

const (
	stateFirstRetrieval loopState = iota
	stateFirstEvaluation
	stateSecondRetrieval
	stateSecondEvaluation
	stateSynthesizing
	stateDone
)

// Loop orchestrates the bounded retrieve → evaluate → refine →
// synthesize flow: at most two rounds, exactly one synthesis.
type Loop struct {
	retriever   *Retriever
	evaluator   *Evaluator
	synthesizer *Synthesizer
}

// NewLoop wires the loop components.
func NewLoop(retriever *Retriever, evaluator *Evaluator, synthesizer *Synthesizer) *Loop {
	return &Loop{
		retriever:   retriever,
		evaluator:   evaluator,
		synthesizer: synthesizer,
	}
}

// Run executes the loop for one retrieval plan and returns the
// synthesized answer plus one or two iteration traces. The final
// synthesis always answers the original plan query; a refined query is
// a retrieval aid only.
func (l *Loop) Run(ctx context.Context, plan schema.RetrievalPlan) (schema.SynthesizedAnswer, []schema.IterationTrace, error) {
	var (
		iterations []schema.IterationTrace
		chunks     []schema.RetrievedChunk
		verdict    schema.SufficiencyVerdict
		answer     schema.SynthesizedAnswer
		query      = plan.CleanQuery
		limits     string
		err        error
	)

	state := stateFirstRetrieval
	for state != stateDone {
		switch state {
		case stateFirstRetrieval:
			chunks, err = l.retriever.Retrieve(ctx, plan.CleanQuery, plan.K)
			if err != nil {
				return schema.SynthesizedAnswer{}, iterations, err
			}
			state = stateFirstEvaluation

		case stateFirstEvaluation:
			verdict, err = l.evaluator.Evaluate(ctx, plan.CleanQuery, chunks)
			if err != nil {
				return schema.SynthesizedAnswer{}, iterations, err
			}
			iterations = append(iterations, schema.IterationTrace{
				Query:     plan.CleanQuery,
				Retrieved: chunks,
				Evaluator: &verdict,
			})
			log.Printf("loop: iter 1: %d chunks | %s | confidence=%.2f",
				len(chunks), verdictStatus(verdict, "iter 2"), verdict.Confidence)

			if verdict.Sufficient {
				state = stateSynthesizing
			} else {
				state = stateSecondRetrieval
			}

		case stateSecondRetrieval:
			// The refined query is a retrieval aid; fall back to the
			// original when the evaluator did not supply one.
			query = verdict.RefinedQuery
			if query == "" {
				query = plan.CleanQuery
			}
			chunks, err = l.retriever.Retrieve(ctx, query, plan.K)
			if err != nil {
				return schema.SynthesizedAnswer{}, iterations, err
			}
			state = stateSecondEvaluation

		case stateSecondEvaluation:
			verdict, err = l.evaluator.Evaluate(ctx, query, chunks)
			if err != nil {
				return schema.SynthesizedAnswer{}, iterations, err
			}
			iterations = append(iterations, schema.IterationTrace{
				Query:     query,
				Retrieved: chunks,
				Evaluator: &verdict,
			})
			log.Printf("loop: iter 2: %d chunks | %s -> synthesize | confidence=%.2f",
				len(chunks), verdictStatus(verdict, "max reached"), verdict.Confidence)

			if !verdict.Sufficient {
				limits = verdict.Missing
			}
			state = stateSynthesizing

		case stateSynthesizing:
			// Exactly one synthesis per run, always against the
			// original query.
			answer, err = l.synthesizer.Synthesize(ctx, plan.CleanQuery, chunks, plan.Notes, limits)
			if err != nil {
				return schema.SynthesizedAnswer{}, iterations, err
			}
			state = stateDone
		}
	}

	return answer, iterations, nil
}

func verdictStatus(v schema.SufficiencyVerdict, insufficientNext string) string {
	if v.Sufficient {
		return "sufficient"
	}
	return fmt.Sprintf("insufficient (%s)", insufficientNext)
}
