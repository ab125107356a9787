package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/crimson-sun/dropoff/internal/engine"
	"github.com/crimson-sun/dropoff/internal/engine/classifier"
	"github.com/crimson-sun/dropoff/internal/output"
	"github.com/crimson-sun/dropoff/internal/source"
)

// ErrNoTransactions is returned when no line carries a transaction id.
var ErrNoTransactions = errors.New("pipeline: no transactions found")

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithScorer scores traces with s instead of the freshly trained model.
func WithScorer(s classifier.Scorer) Option {
	return func(p *Pipeline) { p.scorer = s }
}

// WithLogger sets the pipeline logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithClock overrides the report timestamp source.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// Pipeline connects a source, engine, and output into one analysis run.
type Pipeline struct {
	source source.Source
	engine *engine.Engine
	output output.Output
	scorer classifier.Scorer
	logger *slog.Logger
	now    func() time.Time
}

// New creates a Pipeline from the given components. out may be nil when the
// caller only needs the Result.
func New(src source.Source, eng *engine.Engine, out output.Output, opts ...Option) *Pipeline {
	p := &Pipeline{
		source: src,
		engine: eng,
		output: out,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run reads every line from the source, analyzes it and writes the report.
func (p *Pipeline) Run(ctx context.Context, cfg source.Config) (*Result, error) {
	lines, err := p.source.Lines(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("pipeline source: %w", err)
	}

	res, err := p.Analyze(ctx, lines)
	if err != nil {
		return nil, err
	}

	if p.output != nil {
		if err := p.output.Write(ctx, res.Report()); err != nil {
			return nil, fmt.Errorf("pipeline output: %w", err)
		}
	}
	return res, nil
}

// Analyze runs extract, sessionize, encode, train and attribution over lines.
func (p *Pipeline) Analyze(ctx context.Context, lines []string) (*Result, error) {
	runID := uuid.NewString()
	log := p.logger.With("run_id", runID)

	records, err := p.engine.Extract(ctx, lines)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	seqs, stats := p.engine.Sessionize(records)
	if len(seqs) == 0 {
		return nil, ErrNoTransactions
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	encoded, v := p.engine.Encode(seqs)
	trained, err := p.engine.Train(encoded)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	breakdown, assessment := p.engine.Summarize(seqs)

	res := &Result{
		RunID:       runID,
		GeneratedAt: p.now(),
		Lines:       len(lines),
		Records:     records,
		Sequences:   seqs,
		Stats:       stats,
		Vocabulary:  v,
		Encoded:     encoded,
		Model:       trained,
		Breakdown:   breakdown,
		Assessment:  assessment,
		scorer:      p.scorer,
		logger:      p.logger,
	}
	if res.scorer == nil {
		res.scorer = trained
	}
	res.index()

	log.Info("analysis complete",
		"lines", len(lines),
		"transactions", stats.Transactions,
		"failed", stats.Failed,
		"dropped", stats.Dropped,
		"vocabulary", v.Size(),
		"loss", trained.Loss(),
		"assessment", assessment.Level,
	)
	return res, nil
}

// Close shuts down the output.
func (p *Pipeline) Close() error {
	if p.output == nil {
		return nil
	}
	return p.output.Close()
}
