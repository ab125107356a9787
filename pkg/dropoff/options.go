package dropoff

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

type options struct {
	successSymbol string
	eventPrefixes []string
	maxSeqLen     int
	embeddingDim  int
	hiddenDim     int
	epochs        int
	learningRate  float64
	seed          int64
	workers       int
	criticalAbove float64
	warningFrom   float64
	thresholdsSet bool
	onnxModelPath string
	logger        *slog.Logger
	registerer    prometheus.Registerer
}

// Option configures an Analyzer.
type Option func(*options)

// WithSuccessSymbol sets the event that marks a transaction successful.
// Default: "Screen_S14".
func WithSuccessSymbol(s string) Option {
	return func(o *options) { o.successSymbol = s }
}

// WithEventPrefixes sets the prefixes that identify event symbols in a line.
// Default: "UseCase_", "Screen_".
func WithEventPrefixes(prefixes ...string) Option {
	return func(o *options) { o.eventPrefixes = prefixes }
}

// WithMaxSeqLen sets the fixed length sequences are truncated or padded to.
// Default: 15.
func WithMaxSeqLen(n int) Option {
	return func(o *options) { o.maxSeqLen = n }
}

// WithModelShape sets the embedding and hidden widths. Default: 16, 32.
func WithModelShape(embedding, hidden int) Option {
	return func(o *options) {
		o.embeddingDim = embedding
		o.hiddenDim = hidden
	}
}

// WithEpochs sets the number of full-batch training epochs. Default: 10.
func WithEpochs(n int) Option {
	return func(o *options) { o.epochs = n }
}

// WithLearningRate sets the Adam learning rate. Default: 0.01.
func WithLearningRate(lr float64) Option {
	return func(o *options) { o.learningRate = lr }
}

// WithSeed sets the weight initialization seed. Default: 42.
func WithSeed(seed int64) Option {
	return func(o *options) { o.seed = seed }
}

// WithWorkers sets the number of goroutines used for field extraction.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithThresholds sets the assessment cut-offs, in percent of failed
// transactions. Default: critical above 50, warning from 30.
func WithThresholds(criticalAbove, warningFrom float64) Option {
	return func(o *options) {
		o.criticalAbove = criticalAbove
		o.warningFrom = warningFrom
		o.thresholdsSet = true
	}
}

// WithONNXModel scores transactions with an exported ONNX model instead of
// the model trained during Analyze. The runtime library is loaded from the
// model's directory.
func WithONNXModel(path string) Option {
	return func(o *options) { o.onnxModelPath = path }
}

// WithLogger sets the structured logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithRegisterer registers the Analyzer's collectors with reg. Without it
// they are kept unregistered.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

func defaultOptions() options {
	return options{
		workers: 1,
	}
}
