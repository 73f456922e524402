// Package schema holds the data contracts shared by every component of
// the query pipeline: conversation memory, retrieval plans, retrieved
// chunks, verdicts, answers, and traces.
package schema

// Turn is a single conversation message.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// MemoryState is a snapshot of one conversation's memory: a bounded
// history window, a rolling summary, and extracted user facts.
type MemoryState struct {
	History []Turn   `json:"history"`
	Summary string   `json:"summary"`
	Facts   []string `json:"facts"`
}

// Clone returns an independent deep copy of the state.
func (s MemoryState) Clone() MemoryState {
	out := MemoryState{Summary: s.Summary}
	if s.History != nil {
		out.History = make([]Turn, len(s.History))
		copy(out.History, s.History)
	}
	if s.Facts != nil {
		out.Facts = make([]string, len(s.Facts))
		copy(out.Facts, s.Facts)
	}
	return out
}

// RetrievalPlan is the canonical search plan derived from one user
// message: a self-contained query, a retrieval width, and free-form
// formatting notes. Immutable once produced.
type RetrievalPlan struct {
	CleanQuery string   `json:"clean_query"`
	K          int      `json:"k"`
	Notes      []string `json:"notes"`
}

// RetrievedChunk is one passage returned by a retrieval call. ChunkID
// is assigned C1..Ck in descending relevance order and is only unique
// within that call.
type RetrievedChunk struct {
	ChunkID string  `json:"chunk_id"`
	Content string  `json:"content"`
	Source  string  `json:"source"`
	Page    int     `json:"page"`
	Score   float64 `json:"score"`
}

// SufficiencyVerdict is the judged outcome of whether a batch of
// chunks can fully answer a query. Missing and RefinedQuery are empty
// iff Sufficient; Confidence is always within [0, 1].
type SufficiencyVerdict struct {
	Sufficient   bool    `json:"sufficient"`
	Missing      string  `json:"missing"`
	RefinedQuery string  `json:"refined_query"`
	Confidence   float64 `json:"confidence"`
}

// SynthesizedAnswer is the terminal artifact of one query turn.
// CitationsUsed lists the chunk markers that literally appear in the
// answer text, deduplicated and sorted.
type SynthesizedAnswer struct {
	Answer        string   `json:"answer"`
	CitationsUsed []string `json:"citations_used"`
	Limitations   string   `json:"limitations"`
}

// IterationTrace records one retrieve+evaluate round.
type IterationTrace struct {
	Query     string              `json:"query"`
	Retrieved []RetrievedChunk    `json:"retrieved"`
	Evaluator *SufficiencyVerdict `json:"evaluator"`
}

// QueryTrace is the complete record of one query turn's decision path.
// Iteration2 is nil when round 1 was judged sufficient.
type QueryTrace struct {
	RunID         string          `json:"run_id"`
	UserMessage   string          `json:"user_message"`
	MemorySummary string          `json:"memory_summary"`
	RetrievalPlan *RetrievalPlan  `json:"retrieval_plan"`
	Iteration1    *IterationTrace `json:"iteration_1"`
	Iteration2    *IterationTrace `json:"iteration_2"`
	FinalAnswer   string          `json:"final_answer"`
	CitationsUsed []string        `json:"citations_used"`
}
