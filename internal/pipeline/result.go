package pipeline

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/crimson-sun/dropoff/internal/engine/classifier"
	"github.com/crimson-sun/dropoff/internal/engine/sessionizer"
	"github.com/crimson-sun/dropoff/internal/engine/vocab"
	"github.com/crimson-sun/dropoff/internal/model"
)

// Result holds every intermediate table of one analysis run.
type Result struct {
	RunID       string
	GeneratedAt time.Time
	Lines       int
	Records     []model.Record
	Sequences   []model.Sequence
	Stats       sessionizer.Stats
	Vocabulary  *vocab.Vocabulary
	Encoded     []model.EncodedSequence // parallel to Sequences
	Model       *classifier.Trained
	Breakdown   model.Breakdown
	Assessment  model.Assessment

	scorer classifier.Scorer
	logger *slog.Logger
	byID   map[int64]int
}

func (r *Result) index() {
	r.byID = make(map[int64]int, len(r.Sequences))
	for i, s := range r.Sequences {
		r.byID[s.TransactionID] = i
	}
}

// Failed returns the ids of failed transactions in ascending order.
func (r *Result) Failed() []int64 {
	var ids []int64
	for _, s := range r.Sequences {
		if !s.Succeeded() {
			ids = append(ids, s.TransactionID)
		}
	}
	return ids
}

// Predict returns the success probability of transaction id.
func (r *Result) Predict(id int64) (float64, error) {
	i, ok := r.byID[id]
	if !ok {
		return 0, fmt.Errorf("pipeline: unknown transaction %d", id)
	}
	return r.scorer.Predict(r.Encoded[i].Vector)
}

// Score returns the success probability of an already encoded, fixed-length
// vector. A vector of the wrong length fails with
// classifier.ErrInvalidSequenceLength.
func (r *Result) Score(vec []int) (float64, error) {
	return r.scorer.Predict(vec)
}

// Trace returns the step-by-step journey of transaction id.
func (r *Result) Trace(id int64) (model.Trace, bool) {
	i, ok := r.byID[id]
	if !ok {
		return model.Trace{}, false
	}
	s, es := r.Sequences[i], r.Encoded[i]

	tr := model.Trace{
		TransactionID: s.TransactionID,
		Label:         s.Label,
		Status:        "FAILURE",
		Steps:         make([]model.TraceStep, len(s.Events)),
		Vector:        es.Vector,
	}
	if s.Succeeded() {
		tr.Status = "SUCCESS"
	}
	for j, ev := range s.Events {
		tr.Steps[j] = model.TraceStep{
			Step:      j + 1,
			Event:     ev,
			EncodedID: es.IDs[j],
			Timestamp: s.Timestamps[j],
			Severity:  s.Severities[j],
			Raw:       s.RawLines[j],
		}
	}
	p, err := r.scorer.Predict(es.Vector)
	if err != nil {
		r.logger.Warn("trace scoring failed", "run_id", r.RunID, "transaction_id", id, "error", err)
		return tr, true
	}
	tr.Probability = p
	return tr, true
}

// Summary returns the line and transaction counts of the run.
func (r *Result) Summary() model.Stats {
	return model.Stats{
		Lines:        r.Lines,
		Dropped:      r.Stats.Dropped,
		Transactions: r.Stats.Transactions,
		Failed:       r.Stats.Failed,
	}
}

// Report builds the output document: summary tables plus a trace for every
// failed transaction.
func (r *Result) Report() model.Report {
	rep := model.Report{
		RunID:       r.RunID,
		GeneratedAt: r.GeneratedAt,
		Stats:       r.Summary(),
		FinalLoss:   r.Model.Loss(),
		Vocabulary:  r.Vocabulary.Entries(),
		Breakdown:   r.Breakdown,
		Assessment:  r.Assessment,
	}
	for _, id := range r.Failed() {
		tr, _ := r.Trace(id)
		rep.Traces = append(rep.Traces, tr)
	}
	return rep
}
