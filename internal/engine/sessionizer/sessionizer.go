package sessionizer

import (
	"slices"
	"sort"
	"time"

	"github.com/crimson-sun/dropoff/internal/model"
)

// DefaultSuccessSymbol marks a completed order journey.
const DefaultSuccessSymbol = "Screen_S14"

// Stats counts what the builder kept and discarded.
type Stats struct {
	Input        int
	Dropped      int // records without a transaction id
	Transactions int
	Failed       int
}

// Builder groups records into per-transaction sequences.
type Builder struct {
	successSymbol string
}

// New creates a Builder that labels sequences containing successSymbol as 1.
func New(successSymbol string) *Builder {
	if successSymbol == "" {
		successSymbol = DefaultSuccessSymbol
	}
	return &Builder{successSymbol: successSymbol}
}

// SuccessSymbol returns the symbol that marks a successful transaction.
func (b *Builder) SuccessSymbol() string { return b.successSymbol }

// Build drops records without a transaction id, partitions the rest by id,
// orders each partition by timestamp (ties keep ingestion order) and labels
// it. Sequences are returned in ascending transaction id order.
func (b *Builder) Build(records []model.Record) ([]model.Sequence, Stats) {
	stats := Stats{Input: len(records)}

	partitions := make(map[int64][]model.Record)
	for _, r := range records {
		if !r.HasTransactionID {
			stats.Dropped++
			continue
		}
		partitions[r.TransactionID] = append(partitions[r.TransactionID], r)
	}

	ids := make([]int64, 0, len(partitions))
	for id := range partitions {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	seqs := make([]model.Sequence, 0, len(ids))
	for _, id := range ids {
		seq := b.project(id, partitions[id])
		if seq.Label == 0 {
			stats.Failed++
		}
		seqs = append(seqs, seq)
	}
	stats.Transactions = len(seqs)
	return seqs, stats
}

func (b *Builder) project(id int64, recs []model.Record) model.Sequence {
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Timestamp.Before(recs[j].Timestamp)
	})

	seq := model.Sequence{
		TransactionID: id,
		Events:        make([]string, len(recs)),
		RawLines:      make([]string, len(recs)),
		Timestamps:    make([]time.Time, len(recs)),
		Severities:    make([]string, len(recs)),
	}
	for i, r := range recs {
		seq.Events[i] = r.Event
		seq.RawLines[i] = r.Raw
		seq.Timestamps[i] = r.Timestamp
		seq.Severities[i] = r.Severity
		if r.Event == b.successSymbol {
			seq.Label = 1
		}
	}
	return seq
}
