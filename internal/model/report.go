package model

import "time"

// BreakdownRow counts failed transactions whose last event was Step.
type BreakdownRow struct {
	Step       string  `json:"step"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// Breakdown ranks failure points, most frequent first. An empty breakdown
// means no failures were observed.
type Breakdown struct {
	Rows   []BreakdownRow `json:"rows"`
	Failed int            `json:"failed"`
}

// Empty reports whether no failures were observed.
func (b Breakdown) Empty() bool { return len(b.Rows) == 0 }

// Top returns the highest-ranked row.
func (b Breakdown) Top() (BreakdownRow, bool) {
	if len(b.Rows) == 0 {
		return BreakdownRow{}, false
	}
	return b.Rows[0], true
}

// Assessment levels derived from a breakdown's concentration.
const (
	LevelHealthy     = "healthy"
	LevelCritical    = "critical"
	LevelWarning     = "warning"
	LevelDistributed = "distributed"
)

// Assessment is the triage verdict for a breakdown.
type Assessment struct {
	Level      string  `json:"level"`
	Step       string  `json:"step,omitempty"`
	Percentage float64 `json:"percentage,omitempty"`
	Message    string  `json:"message"`
	Hint       string  `json:"hint,omitempty"`
}

// VocabEntry is one row of the id -> symbol table.
type VocabEntry struct {
	ID     int    `json:"id"`
	Symbol string `json:"symbol"`
}

// TraceStep is one event of a single-transaction detail view.
type TraceStep struct {
	Step      int       `json:"step"`
	Event     string    `json:"event"`
	EncodedID int       `json:"encoded_id"`
	Timestamp time.Time `json:"timestamp"`
	Severity  string    `json:"severity"`
	Raw       string    `json:"raw,omitempty"`
}

// Trace is the full journey of one transaction.
type Trace struct {
	TransactionID int64       `json:"transaction_id"`
	Label         int         `json:"label"`
	Status        string      `json:"status"` // SUCCESS or FAILURE
	Steps         []TraceStep `json:"steps"`
	Vector        []int       `json:"vector"`
	Probability   float64     `json:"success_probability"`
}

// Stats summarizes record and transaction volumes for one run.
type Stats struct {
	Lines        int `json:"lines"`
	Dropped      int `json:"dropped"`
	Transactions int `json:"transactions"`
	Failed       int `json:"failed"`
}

// Report is the outcome of one pipeline run, as written to outputs.
type Report struct {
	RunID       string       `json:"run_id"`
	GeneratedAt time.Time    `json:"generated_at"`
	Stats       Stats        `json:"stats"`
	FinalLoss   float64      `json:"final_loss"`
	Vocabulary  []VocabEntry `json:"vocabulary,omitempty"`
	Breakdown   Breakdown    `json:"breakdown"`
	Assessment  Assessment   `json:"assessment"`
	Traces      []Trace      `json:"traces,omitempty"`
}
