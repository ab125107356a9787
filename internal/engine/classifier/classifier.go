package classifier

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
)

const (
	padID = 0
	unkID = 1

	// probEps bounds probabilities away from 0 and 1 inside the log.
	probEps = 1e-7
)

// ErrInvalidSequenceLength is returned when an input vector does not have
// exactly MaxSeqLen entries.
var ErrInvalidSequenceLength = errors.New("invalid sequence length")

// Config holds the model shape and training schedule.
type Config struct {
	VocabSize    int
	MaxSeqLen    int
	EmbeddingDim int
	HiddenDim    int
	Epochs       int
	LearningRate float64
	Seed         int64
	Logger       *slog.Logger
}

// DefaultConfig returns the standard shape for a vocabulary of vocabSize ids.
func DefaultConfig(vocabSize int) Config {
	return Config{
		VocabSize:    vocabSize,
		MaxSeqLen:    15,
		EmbeddingDim: 16,
		HiddenDim:    32,
		Epochs:       10,
		LearningRate: 0.01,
		Seed:         42,
	}
}

func (c Config) validate() error {
	switch {
	case c.VocabSize < 2:
		return fmt.Errorf("classifier: vocab size %d must include padding and unknown ids", c.VocabSize)
	case c.MaxSeqLen <= 0:
		return fmt.Errorf("classifier: max sequence length must be positive, got %d", c.MaxSeqLen)
	case c.EmbeddingDim <= 0 || c.HiddenDim <= 0:
		return fmt.Errorf("classifier: embedding and hidden dims must be positive, got %d/%d", c.EmbeddingDim, c.HiddenDim)
	case c.Epochs <= 0:
		return fmt.Errorf("classifier: epochs must be positive, got %d", c.Epochs)
	case c.LearningRate <= 0:
		return fmt.Errorf("classifier: learning rate must be positive, got %g", c.LearningRate)
	}
	return nil
}

// Scorer predicts the success probability of fixed-length id vectors.
type Scorer interface {
	Predict(seq []int) (float64, error)
	PredictBatch(seqs [][]int) ([]float64, error)
}

// Untrained is a classifier that has not been fitted yet. It cannot predict;
// Train produces a Trained model.
type Untrained struct {
	cfg Config
}

// NewUntrained creates an untrained classifier.
func NewUntrained(cfg Config) (*Untrained, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Untrained{cfg: cfg}, nil
}

// Train fits the model on x with 0/1 labels y using full-batch binary
// cross-entropy and Adam, one step per epoch. Nothing is returned unless
// every epoch completes.
func (u *Untrained) Train(x [][]int, y []int) (*Trained, error) {
	cfg := u.cfg
	if len(x) == 0 {
		return nil, errors.New("classifier: empty training batch")
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("classifier: %d sequences but %d labels", len(x), len(y))
	}
	targets := make([]float64, len(y))
	for i := range x {
		if err := checkLen(x[i], cfg.MaxSeqLen); err != nil {
			return nil, fmt.Errorf("classifier: sequence %d: %w", i, err)
		}
		if y[i] != 0 && y[i] != 1 {
			return nil, fmt.Errorf("classifier: label %d at %d is not 0 or 1", y[i], i)
		}
		targets[i] = float64(y[i])
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	p := initParams(cfg.VocabSize, cfg.EmbeddingDim, cfg.HiddenDim, rng)
	grad := newParams(cfg.VocabSize, cfg.EmbeddingDim, cfg.HiddenDim)
	opt := newAdam(cfg.LearningRate, p.tensors())

	n := float64(len(x))
	losses := make([]float64, 0, cfg.Epochs)
	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		grad.zero()
		var loss float64
		for i, seq := range x {
			tr := p.forward(seq, true)
			loss += bce(tr.prob, targets[i])
			// d(BCE∘sigmoid)/dlogit, averaged over the batch.
			p.backward(tr, (tr.prob-targets[i])/n, grad)
		}
		loss /= n
		opt.step(p.tensors(), grad.tensors())
		losses = append(losses, loss)

		if epoch%2 == 0 {
			cfg.Logger.Debug("training epoch", "epoch", epoch, "loss", loss)
		}
	}
	cfg.Logger.Info("training complete", "epochs", cfg.Epochs, "samples", len(x), "final_loss", losses[len(losses)-1])

	return &Trained{cfg: cfg, params: p, losses: losses}, nil
}

// Trained is a fitted classifier. Safe for concurrent use.
type Trained struct {
	cfg    Config
	params *params
	losses []float64
}

// Loss returns the mean training loss of the final epoch.
func (m *Trained) Loss() float64 {
	return m.losses[len(m.losses)-1]
}

// Losses returns the mean training loss of every epoch.
func (m *Trained) Losses() []float64 {
	out := make([]float64, len(m.losses))
	copy(out, m.losses)
	return out
}

// MaxSeqLen returns the input length the model expects.
func (m *Trained) MaxSeqLen() int { return m.cfg.MaxSeqLen }

// Predict returns the success probability of one encoded sequence. The
// sequence must have exactly MaxSeqLen ids; ids the model was not trained on
// are scored as unknown.
func (m *Trained) Predict(seq []int) (float64, error) {
	if err := checkLen(seq, m.cfg.MaxSeqLen); err != nil {
		return 0, fmt.Errorf("classifier: %w", err)
	}
	return m.params.forward(seq, false).prob, nil
}

// PredictBatch scores every sequence, failing on the first malformed one.
func (m *Trained) PredictBatch(seqs [][]int) ([]float64, error) {
	out := make([]float64, len(seqs))
	for i, s := range seqs {
		p, err := m.Predict(s)
		if err != nil {
			return nil, fmt.Errorf("sequence %d: %w", i, err)
		}
		out[i] = p
	}
	return out, nil
}

func checkLen(seq []int, want int) error {
	if len(seq) != want {
		return fmt.Errorf("%w: got %d, want %d", ErrInvalidSequenceLength, len(seq), want)
	}
	return nil
}

func bce(p, y float64) float64 {
	p = math.Min(math.Max(p, probEps), 1-probEps)
	return -(y*math.Log(p) + (1-y)*math.Log(1-p))
}
