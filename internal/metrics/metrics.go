package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "dropoff"

// Metrics holds the pipeline's observability signals.
type Metrics struct {
	LinesExtracted  prometheus.Counter
	RecordsDropped  prometheus.Counter
	UnknownSymbols  prometheus.Counter
	Transactions    prometheus.Gauge
	FailedTxns      prometheus.Gauge
	VocabularySize  prometheus.Gauge
	TrainingLoss    prometheus.Gauge
	TrainingSeconds prometheus.Histogram
}

// New creates the collectors and registers them with reg. A nil reg leaves
// them unregistered, which is convenient for tests and one-off runs.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		LinesExtracted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lines_extracted_total",
			Help:      "Raw log lines passed through the field extractor.",
		}),
		RecordsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_dropped_total",
			Help:      "Records discarded because no transaction id was found.",
		}),
		UnknownSymbols: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unknown_symbols_total",
			Help:      "Event symbols encoded as the unknown id.",
		}),
		Transactions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "transactions",
			Help:      "Transactions in the most recent batch.",
		}),
		FailedTxns: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "failed_transactions",
			Help:      "Failed transactions in the most recent batch.",
		}),
		VocabularySize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "vocabulary_size",
			Help:      "Assigned vocabulary ids, reserved ids included.",
		}),
		TrainingLoss: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "training_loss",
			Help:      "Final-epoch binary cross-entropy of the last training run.",
		}),
		TrainingSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "training_duration_seconds",
			Help:      "Wall time of classifier training runs.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
	}
	if reg != nil {
		reg.MustRegister(
			m.LinesExtracted, m.RecordsDropped, m.UnknownSymbols,
			m.Transactions, m.FailedTxns, m.VocabularySize,
			m.TrainingLoss, m.TrainingSeconds,
		)
	}
	return m
}
