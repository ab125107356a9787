package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/crimson-sun/dropoff/internal/config"
	"github.com/crimson-sun/dropoff/internal/engine"
	"github.com/crimson-sun/dropoff/internal/engine/attributor"
	"github.com/crimson-sun/dropoff/internal/engine/classifier"
	"github.com/crimson-sun/dropoff/internal/engine/compactor"
	"github.com/crimson-sun/dropoff/internal/engine/extractor"
	"github.com/crimson-sun/dropoff/internal/logging"
	"github.com/crimson-sun/dropoff/internal/metrics"
	"github.com/crimson-sun/dropoff/internal/output"
	"github.com/crimson-sun/dropoff/internal/output/file"
	"github.com/crimson-sun/dropoff/internal/output/multi"
	"github.com/crimson-sun/dropoff/internal/output/stdout"
	"github.com/crimson-sun/dropoff/internal/pipeline"
	"github.com/crimson-sun/dropoff/internal/source"

	// Register source implementations.
	_ "github.com/crimson-sun/dropoff/internal/source/file"
	_ "github.com/crimson-sun/dropoff/internal/source/remote"
	_ "github.com/crimson-sun/dropoff/internal/source/synthetic"
)

func main() {
	if err := run(); err != nil {
		slog.Error("dropoff failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.Init(cfg.Output.Format != "file", logging.ParseLevel(cfg.Logging.Level))
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Initialize engine.
	loc, err := time.LoadLocation(cfg.Engine.Timezone)
	if err != nil {
		return fmt.Errorf("timezone: %w", err)
	}
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	th := attributor.DefaultThresholds()
	th.CriticalAbove, th.WarningFrom = cfg.Report.CriticalAbove, cfg.Report.WarningFrom

	eng := engine.New(engine.Options{
		Extractor: extractor.Config{
			EventPrefixes:   cfg.Engine.EventPrefixes,
			UnknownEvent:    cfg.Engine.UnknownEvent,
			Severities:      cfg.Engine.Severities,
			DefaultSeverity: cfg.Engine.DefaultSeverity,
			Location:        loc,
		},
		SuccessSymbol: cfg.Engine.SuccessSymbol,
		MaxSeqLen:     cfg.Model.MaxSeqLen,
		Model: classifier.Config{
			EmbeddingDim: cfg.Model.EmbeddingDim,
			HiddenDim:    cfg.Model.HiddenDim,
			Epochs:       cfg.Model.Epochs,
			LearningRate: cfg.Model.LearningRate,
			Seed:         cfg.Model.Seed,
		},
		Thresholds: &th,
		Workers:    cfg.Engine.Workers,
		Metrics:    m,
		Logger:     logger,
	})

	// Initialize output.
	out, err := newOutput(cfg.Output)
	if err != nil {
		return err
	}

	// Resolve source.
	ctor, err := source.Get(cfg.Source.Provider)
	if err != nil {
		out.Close()
		return err
	}

	// Build pipeline.
	opts := []pipeline.Option{pipeline.WithLogger(logger)}
	if cfg.Model.ONNXPath != "" {
		scorer, err := classifier.NewONNXScorer(cfg.Model.ONNXPath, eng.MaxSeqLen())
		if err != nil {
			out.Close()
			return err
		}
		defer scorer.Close()
		opts = append(opts, pipeline.WithScorer(scorer))
	}
	p := pipeline.New(ctor(), eng, out, opts...)
	defer p.Close()

	// Set up graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("dropoff: starting", "source", cfg.Source.Provider, "output", cfg.Output.Format)
	res, err := p.Run(ctx, source.Config{
		Provider: cfg.Source.Provider,
		Path:     cfg.Source.Path,
		URL:      cfg.Source.URL,
		Token:    cfg.Source.Token,
		Orders:   cfg.Source.Orders,
		Seed:     cfg.Source.Seed,
	})
	if errors.Is(err, context.Canceled) {
		logger.Warn("dropoff: interrupted")
		return nil
	}
	if err != nil {
		return err
	}

	logger.Info("dropoff: done", "run_id", res.RunID, "assessment", res.Assessment.Message)
	if cfg.Metrics.Textfile != "" {
		if err := prometheus.WriteToTextfile(cfg.Metrics.Textfile, reg); err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
	}
	return nil
}

func newOutput(cfg config.OutputConfig) (output.Output, error) {
	v := compactor.ParseVerbosity(cfg.Verbosity)
	switch cfg.Format {
	case "file":
		return file.New(cfg.Path, v, file.WithMaxSize(cfg.MaxBytes))
	case "both":
		f, err := file.New(cfg.Path, v, file.WithMaxSize(cfg.MaxBytes))
		if err != nil {
			return nil, err
		}
		return multi.New(stdout.New(v, cfg.Pretty), f), nil
	default:
		return stdout.New(v, cfg.Pretty), nil
	}
}
