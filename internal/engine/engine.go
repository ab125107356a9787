package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/crimson-sun/dropoff/internal/engine/attributor"
	"github.com/crimson-sun/dropoff/internal/engine/classifier"
	"github.com/crimson-sun/dropoff/internal/engine/extractor"
	"github.com/crimson-sun/dropoff/internal/engine/sessionizer"
	"github.com/crimson-sun/dropoff/internal/engine/vocab"
	"github.com/crimson-sun/dropoff/internal/metrics"
	"github.com/crimson-sun/dropoff/internal/model"
)

// Options configures an Engine. Zero values select the defaults of each stage.
type Options struct {
	Extractor     extractor.Config
	SuccessSymbol string
	MaxSeqLen     int
	Model         classifier.Config // VocabSize is set by Train, MaxSeqLen by New
	Thresholds    *attributor.Thresholds // nil selects attributor.DefaultThresholds
	Workers       int
	Metrics       *metrics.Metrics
	Logger        *slog.Logger
}

// Engine orchestrates extract → sessionize → encode → train, plus failure
// attribution. It owns the long-lived vocabulary; Encode is its only writer.
type Engine struct {
	extractor  *extractor.Extractor
	builder    *sessionizer.Builder
	encoder    *vocab.Encoder
	model      classifier.Config
	thresholds attributor.Thresholds
	workers    int
	metrics    *metrics.Metrics
	logger     *slog.Logger

	mu    sync.Mutex
	vocab *vocab.Vocabulary
}

// New creates an Engine with the provided options.
func New(opts Options) *Engine {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New(nil)
	}
	th := attributor.DefaultThresholds()
	if opts.Thresholds != nil {
		th = *opts.Thresholds
	}

	enc := vocab.NewEncoder(opts.MaxSeqLen)
	mc := opts.Model
	def := classifier.DefaultConfig(0)
	if mc.EmbeddingDim == 0 {
		mc.EmbeddingDim = def.EmbeddingDim
	}
	if mc.HiddenDim == 0 {
		mc.HiddenDim = def.HiddenDim
	}
	if mc.Epochs == 0 {
		mc.Epochs = def.Epochs
	}
	if mc.LearningRate == 0 {
		mc.LearningRate = def.LearningRate
	}
	if mc.Seed == 0 {
		mc.Seed = def.Seed
	}
	mc.MaxSeqLen = enc.MaxSeqLen
	mc.Logger = opts.Logger

	return &Engine{
		extractor:  extractor.New(opts.Extractor),
		builder:    sessionizer.New(opts.SuccessSymbol),
		encoder:    enc,
		model:      mc,
		thresholds: th,
		workers:    opts.Workers,
		metrics:    opts.Metrics,
		logger:     opts.Logger,
		vocab:      vocab.New(),
	}
}

// MaxSeqLen returns the fixed encoded sequence length.
func (e *Engine) MaxSeqLen() int { return e.encoder.MaxSeqLen }

// SuccessSymbol returns the symbol that labels a transaction successful.
func (e *Engine) SuccessSymbol() string { return e.builder.SuccessSymbol() }

// Extract parses every raw line into a structured record.
func (e *Engine) Extract(ctx context.Context, lines []string) ([]model.Record, error) {
	recs, err := e.extractor.ExtractAll(ctx, lines, e.workers)
	if err != nil {
		return nil, fmt.Errorf("engine extract: %w", err)
	}
	e.metrics.LinesExtracted.Add(float64(len(lines)))
	return recs, nil
}

// Sessionize groups records into labeled per-transaction sequences.
func (e *Engine) Sessionize(records []model.Record) ([]model.Sequence, sessionizer.Stats) {
	seqs, stats := e.builder.Build(records)
	e.metrics.RecordsDropped.Add(float64(stats.Dropped))
	e.metrics.Transactions.Set(float64(stats.Transactions))
	e.metrics.FailedTxns.Set(float64(stats.Failed))
	if stats.Dropped > 0 {
		e.logger.Info("dropped records without transaction id", "dropped", stats.Dropped, "records", stats.Input)
	}
	return seqs, stats
}

// Encode grows the engine's vocabulary with the symbols of seqs and encodes
// them. The vocabulary snapshot used for encoding is returned.
func (e *Engine) Encode(seqs []model.Sequence) ([]model.EncodedSequence, *vocab.Vocabulary) {
	e.mu.Lock()
	v, enc := e.encoder.Encode(e.vocab, seqs)
	e.vocab = v
	e.mu.Unlock()

	e.metrics.VocabularySize.Set(float64(v.Size()))
	return enc, v
}

// EncodeOne encodes a sequence against the current vocabulary without
// extending it; unseen symbols become the unknown id.
func (e *Engine) EncodeOne(seq model.Sequence) model.EncodedSequence {
	es := e.encoder.EncodeOne(e.Vocabulary(), seq)
	if n := vocab.Unknown(es); n > 0 {
		e.metrics.UnknownSymbols.Add(float64(n))
	}
	return es
}

// Vocabulary returns the current vocabulary snapshot.
func (e *Engine) Vocabulary() *vocab.Vocabulary {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.vocab
}

// Train fits a new classifier on the encoded sequences and their labels.
func (e *Engine) Train(encoded []model.EncodedSequence) (*classifier.Trained, error) {
	cfg := e.model
	cfg.VocabSize = e.Vocabulary().Size()

	u, err := classifier.NewUntrained(cfg)
	if err != nil {
		return nil, fmt.Errorf("engine train: %w", err)
	}

	x := make([][]int, len(encoded))
	y := make([]int, len(encoded))
	for i, es := range encoded {
		x[i] = es.Vector
		y[i] = es.Label
	}

	start := time.Now()
	m, err := u.Train(x, y)
	if err != nil {
		return nil, fmt.Errorf("engine train: %w", err)
	}
	e.metrics.TrainingSeconds.Observe(time.Since(start).Seconds())
	e.metrics.TrainingLoss.Set(m.Loss())
	return m, nil
}

// Summarize ranks failure points and assesses their concentration.
func (e *Engine) Summarize(seqs []model.Sequence) (model.Breakdown, model.Assessment) {
	b := attributor.Summarize(seqs)
	return b, attributor.Assess(b, e.thresholds)
}
