package dropoff

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crimson-sun/dropoff/internal/logging"
	"github.com/crimson-sun/dropoff/internal/source/synthetic"
)

func newTestAnalyzer(t *testing.T, opts ...Option) *Analyzer {
	t.Helper()
	opts = append([]Option{WithLogger(logging.Discard()), WithEpochs(3)}, opts...)
	a, err := New(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func failureLines() []string {
	return []string{
		"[2024-01-01 00:00:00] [INFO] User executing Screen_Login for Order #1.",
		"[2024-01-01 00:00:01] [INFO] Running UseCase_AuthUser. Payload: <Order>1</Order>",
		"[2024-01-01 00:00:00] [INFO] User executing Screen_Login for Order #2.",
		"[2024-01-01 00:00:02] [INFO] Context: {'action': 'UseCase_AuthUser', 'order_id': 2}",
		"[2024-01-01 00:00:00] [INFO] User executing Screen_Login for Order #3.",
		"[2024-01-01 00:00:03] [INFO] User executing UseCase_CheckDelivery for Order #3.",
		"[2024-01-01 00:00:00] [INFO] User executing Screen_Login for Order #4.",
		"[2024-01-01 00:00:04] [INFO] User executing Screen_S14 for Order #4.",
	}
}

func TestAnalyzeBreakdown(t *testing.T) {
	a := newTestAnalyzer(t)
	res, err := a.Analyze(context.Background(), failureLines())
	require.NoError(t, err)

	b := res.Breakdown()
	require.Len(t, b.Rows, 2)
	assert.Equal(t, BreakdownRow{Step: "UseCase_AuthUser", Count: 2, Percentage: 66.7}, b.Rows[0])
	assert.Equal(t, BreakdownRow{Step: "UseCase_CheckDelivery", Count: 1, Percentage: 33.3}, b.Rows[1])
	assert.Equal(t, LevelCritical, res.Assessment().Level)

	assert.Equal(t, Stats{Lines: 8, Transactions: 4, Failed: 3}, res.Stats())
	assert.Equal(t, []int64{1, 2, 3, 4}, res.Transactions())
	assert.Equal(t, []int64{1, 2, 3}, res.Failed())
	assert.NotEmpty(t, res.RunID())
	assert.Positive(t, res.Loss())
}

func TestAnalyzeTraceAndPredict(t *testing.T) {
	a := newTestAnalyzer(t)
	res, err := a.Analyze(context.Background(), failureLines())
	require.NoError(t, err)

	tr, ok := res.Trace(4)
	require.True(t, ok)
	assert.Equal(t, "SUCCESS", tr.Status)
	assert.Equal(t, []string{"Screen_Login", "Screen_S14"}, []string{tr.Steps[0].Event, tr.Steps[1].Event})
	assert.Len(t, tr.Vector, 15)

	p, err := res.Predict(4)
	require.NoError(t, err)
	assert.InDelta(t, tr.Probability, p, 1e-12)

	_, err = res.Predict(99)
	assert.Error(t, err)
}

func TestPickFailed(t *testing.T) {
	a := newTestAnalyzer(t)
	res, err := a.Analyze(context.Background(), failureLines())
	require.NoError(t, err)

	r := rand.New(rand.NewSource(1))
	for i := 0; i < 20; i++ {
		id := res.PickFailed(r)
		assert.Contains(t, res.Failed(), id)
	}

	ok, err := a.Analyze(context.Background(), []string{
		"[2024-01-01 00:00:00] [INFO] User executing Screen_S14 for Order #8.",
		"[2024-01-01 00:00:00] [INFO] User executing Screen_S14 for Order #9.",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(8), ok.PickFailed(r))
	assert.Equal(t, LevelHealthy, ok.Assessment().Level)
	assert.True(t, ok.Breakdown().Empty())
}

func TestVocabularyPersistsAcrossRuns(t *testing.T) {
	a := newTestAnalyzer(t)
	first, err := a.Analyze(context.Background(), failureLines())
	require.NoError(t, err)
	second, err := a.Analyze(context.Background(), synthetic.New(3).Generate(10))
	require.NoError(t, err)

	ids := map[string]int{}
	for _, e := range second.Vocabulary() {
		ids[e.Symbol] = e.ID
	}
	for _, e := range first.Vocabulary() {
		assert.Equal(t, e.ID, ids[e.Symbol], "id of %s changed", e.Symbol)
	}
	assert.Greater(t, len(second.Vocabulary()), len(first.Vocabulary()))
}

func TestAnalyzeNoTransactions(t *testing.T) {
	a := newTestAnalyzer(t)
	_, err := a.Analyze(context.Background(), []string{"nothing to see"})
	assert.True(t, errors.Is(err, ErrNoTransactions))
}

func TestOptions(t *testing.T) {
	a := newTestAnalyzer(t,
		WithSuccessSymbol("Screen_Done"),
		WithEventPrefixes("Step_", "Screen_"),
		WithMaxSeqLen(4),
		WithModelShape(3, 4),
		WithLearningRate(0.05),
		WithSeed(9),
		WithWorkers(2),
		WithThresholds(90, 40),
	)
	res, err := a.Analyze(context.Background(), []string{
		"[2024-01-01 00:00:00] [INFO] Step_One Order #1",
		"[2024-01-01 00:00:01] [INFO] Screen_Done Order #1",
		"[2024-01-01 00:00:00] [INFO] Step_One Order #2",
		"[2024-01-01 00:00:00] [INFO] Step_One Order #3",
		"[2024-01-01 00:00:01] [INFO] Step_Two Order #3",
	})
	require.NoError(t, err)

	assert.Equal(t, []int64{2, 3}, res.Failed())
	tr, _ := res.Trace(1)
	assert.Len(t, tr.Vector, 4)
	assert.Equal(t, LevelWarning, res.Assessment().Level) // 50% each
}

func TestInvalidThresholds(t *testing.T) {
	_, err := New(WithThresholds(20, 40))
	assert.Error(t, err)
}

func TestConcurrentAnalyze(t *testing.T) {
	a := newTestAnalyzer(t)
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			_, err := a.Analyze(context.Background(), synthetic.New(seed).Generate(15))
			assert.NoError(t, err)
		}(int64(i))
	}
	wg.Wait()
}

func TestAnalysisTables(t *testing.T) {
	a := newTestAnalyzer(t)
	lines := append(failureLines(), "[2024-01-01 00:00:05] [ERROR] gateway unreachable")
	res, err := a.Analyze(context.Background(), lines)
	require.NoError(t, err)

	recs := res.Records()
	require.Len(t, recs, 9)
	assert.False(t, recs[8].HasTransactionID)
	assert.Equal(t, "ERROR", recs[8].Severity)

	seqs, enc := res.Sequences(), res.Encoded()
	require.Len(t, seqs, 4)
	require.Len(t, enc, 4)
	for i := range seqs {
		assert.Equal(t, seqs[i].TransactionID, enc[i].TransactionID)
		assert.Len(t, enc[i].Vector, 15)
	}
	assert.Equal(t, []string{"INFO", "INFO"}, seqs[0].Severities)

	tr, ok := res.Trace(1)
	require.True(t, ok)
	assert.Equal(t, "INFO", tr.Steps[0].Severity)
}

func TestAnalysisScore(t *testing.T) {
	a := newTestAnalyzer(t)
	res, err := a.Analyze(context.Background(), failureLines())
	require.NoError(t, err)

	enc := res.Encoded()[3]
	got, err := res.Score(enc.Vector)
	require.NoError(t, err)
	want, err := res.Predict(enc.TransactionID)
	require.NoError(t, err)
	assert.InDelta(t, want, got, 1e-12)

	_, err = res.Score([]int{2, 3, 4})
	assert.ErrorIs(t, err, ErrInvalidSequenceLength)
}

func TestEncodeCountsUnknownSymbols(t *testing.T) {
	reg := prometheus.NewRegistry()
	a := newTestAnalyzer(t, WithRegisterer(reg))
	_, err := a.Analyze(context.Background(), failureLines())
	require.NoError(t, err)

	es := a.Encode([]string{"Screen_Login", "Screen_Never", "UseCase_AuthUser"})
	require.Len(t, es.IDs, 3)
	assert.Equal(t, 1, es.IDs[1], "unseen symbol should encode as the unknown id")
	assert.NotEqual(t, 1, es.IDs[0])
	assert.Len(t, es.Vector, 15)
	assert.Equal(t, 1.0, testutil.ToFloat64(a.metrics.UnknownSymbols))

	a.Encode([]string{"Screen_Never", "Screen_Other"})
	assert.Equal(t, 3.0, testutil.ToFloat64(a.metrics.UnknownSymbols))

	n, err := testutil.GatherAndCount(reg, "dropoff_unknown_symbols_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestZeroThresholds(t *testing.T) {
	a := newTestAnalyzer(t, WithThresholds(0, 0))
	var lines []string
	for i, step := range []string{"Screen_A", "Screen_B", "Screen_C", "Screen_D", "Screen_E"} {
		lines = append(lines, fmt.Sprintf("[2024-01-01 00:00:00] [INFO] User executing %s for Order #%d.", step, i+1))
	}
	res, err := a.Analyze(context.Background(), lines)
	require.NoError(t, err)
	assert.Equal(t, LevelCritical, res.Assessment().Level)
}
