package dropoff

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/crimson-sun/dropoff/internal/engine"
	"github.com/crimson-sun/dropoff/internal/engine/attributor"
	"github.com/crimson-sun/dropoff/internal/engine/classifier"
	"github.com/crimson-sun/dropoff/internal/engine/extractor"
	"github.com/crimson-sun/dropoff/internal/metrics"
	"github.com/crimson-sun/dropoff/internal/model"
	"github.com/crimson-sun/dropoff/internal/pipeline"
)

// ErrNoTransactions is returned by Analyze when no line carries a
// transaction id.
var ErrNoTransactions = pipeline.ErrNoTransactions

// ErrInvalidSequenceLength is returned by Score when the vector length does
// not match the configured maximum sequence length.
var ErrInvalidSequenceLength = classifier.ErrInvalidSequenceLength

// Analyzer runs failure analyses over batches of raw log lines. The event
// vocabulary persists across Analyze calls; ids are never reassigned.
type Analyzer struct {
	pipeline *pipeline.Pipeline
	engine   *engine.Engine
	metrics  *metrics.Metrics
	onnx     *classifier.ONNXScorer
}

// New creates an Analyzer. With WithONNXModel the model is loaded here, which
// is expensive: create once, reuse.
func New(opts ...Option) (*Analyzer, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	th := attributor.DefaultThresholds()
	if o.thresholdsSet {
		th.CriticalAbove, th.WarningFrom = o.criticalAbove, o.warningFrom
	}
	if th.WarningFrom > th.CriticalAbove {
		return nil, fmt.Errorf("dropoff: warning threshold %.1f above critical %.1f", th.WarningFrom, th.CriticalAbove)
	}

	ext := extractor.DefaultConfig()
	if len(o.eventPrefixes) > 0 {
		ext.EventPrefixes = o.eventPrefixes
	}

	m := metrics.New(o.registerer)
	eng := engine.New(engine.Options{
		Extractor:     ext,
		SuccessSymbol: o.successSymbol,
		MaxSeqLen:     o.maxSeqLen,
		Model: classifier.Config{
			EmbeddingDim: o.embeddingDim,
			HiddenDim:    o.hiddenDim,
			Epochs:       o.epochs,
			LearningRate: o.learningRate,
			Seed:         o.seed,
		},
		Thresholds: &th,
		Workers:    o.workers,
		Metrics:    m,
		Logger:     o.logger,
	})

	a := &Analyzer{engine: eng, metrics: m}
	popts := []pipeline.Option{pipeline.WithLogger(o.logger)}
	if o.onnxModelPath != "" {
		s, err := classifier.NewONNXScorer(o.onnxModelPath, eng.MaxSeqLen())
		if err != nil {
			return nil, fmt.Errorf("dropoff: %w", err)
		}
		a.onnx = s
		popts = append(popts, pipeline.WithScorer(s))
	}
	a.pipeline = pipeline.New(nil, eng, nil, popts...)
	return a, nil
}

// Analyze extracts, groups, encodes and trains on lines, then ranks the
// failure points of unsuccessful transactions.
func (a *Analyzer) Analyze(ctx context.Context, lines []string) (*Analysis, error) {
	res, err := a.pipeline.Analyze(ctx, lines)
	if err != nil {
		return nil, err
	}
	return &Analysis{res: res}, nil
}

// Encode maps events onto the vocabulary built so far. Events never seen by
// Analyze encode as the unknown id and are counted in unknown_symbols_total.
func (a *Analyzer) Encode(events []string) EncodedSequence {
	return a.engine.EncodeOne(model.Sequence{Events: events})
}

// Close releases the ONNX session, if one was loaded.
func (a *Analyzer) Close() error {
	if a.onnx != nil {
		return a.onnx.Close()
	}
	return nil
}

// Analysis is the outcome of one Analyze call.
type Analysis struct {
	res *pipeline.Result
}

// RunID identifies this analysis in logs and reports.
func (a *Analysis) RunID() string { return a.res.RunID }

// Stats returns line and transaction counts.
func (a *Analysis) Stats() Stats { return a.res.Summary() }

// Loss returns the final training loss.
func (a *Analysis) Loss() float64 { return a.res.Model.Loss() }

// Vocabulary returns the id to symbol table used for encoding.
func (a *Analysis) Vocabulary() []VocabEntry { return a.res.Vocabulary.Entries() }

// Breakdown returns failure points ranked by count.
func (a *Analysis) Breakdown() Breakdown { return a.res.Breakdown }

// Assessment returns the concentration verdict for the breakdown.
func (a *Analysis) Assessment() Assessment { return a.res.Assessment }

// Transactions returns every transaction id in ascending order.
func (a *Analysis) Transactions() []int64 {
	ids := make([]int64, len(a.res.Sequences))
	for i, s := range a.res.Sequences {
		ids[i] = s.TransactionID
	}
	return ids
}

// Failed returns the ids of failed transactions in ascending order.
func (a *Analysis) Failed() []int64 { return a.res.Failed() }

// Trace returns the step-by-step journey of one transaction.
func (a *Analysis) Trace(id int64) (Trace, bool) { return a.res.Trace(id) }

// Predict returns the probability that transaction id succeeded.
func (a *Analysis) Predict(id int64) (float64, error) { return a.res.Predict(id) }

// PickFailed returns a random failed transaction, or the first transaction
// when none failed.
func (a *Analysis) PickFailed(r *rand.Rand) int64 {
	if failed := a.res.Failed(); len(failed) > 0 {
		return failed[r.Intn(len(failed))]
	}
	return a.res.Sequences[0].TransactionID
}

// Records returns the extracted records, dropped ones included, in input
// order.
func (a *Analysis) Records() []Record { return a.res.Records }

// Sequences returns the per-transaction event sequences in ascending id
// order.
func (a *Analysis) Sequences() []Sequence { return a.res.Sequences }

// Encoded returns the fixed-length vectors, parallel to Sequences.
func (a *Analysis) Encoded() []EncodedSequence { return a.res.Encoded }

// Score returns the success probability of an encoded vector. vec must have
// the configured maximum sequence length.
func (a *Analysis) Score(vec []int) (float64, error) { return a.res.Score(vec) }

// Report returns the full document written by outputs.
func (a *Analysis) Report() Report { return a.res.Report() }
