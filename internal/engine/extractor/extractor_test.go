package extractor

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crimson-sun/dropoff/internal/engine/testdata"
)

var fixedNow = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

func newTestExtractor() *Extractor {
	cfg := DefaultConfig()
	cfg.Now = func() time.Time { return fixedNow }
	return New(cfg)
}

func TestExtractFormats(t *testing.T) {
	e := newTestExtractor()
	ts := time.Date(2024, 1, 1, 0, 0, 5, 0, time.UTC)

	tests := []struct {
		name     string
		raw      string
		event    string
		id       int64
		severity string
	}{
		{
			name:     "plain text",
			raw:      "[2024-01-01 00:00:05] [INFO] [Thread-3] User executing Screen_Login for Order #1000. Processing...",
			event:    "Screen_Login",
			id:       1000,
			severity: "INFO",
		},
		{
			name:     "inline markup",
			raw:      "[2024-01-01 00:00:05] [WARN] [Backend] TraceID: 912. Running UseCase_AuthUser. Payload: <Order>1001</Order><State>Active</State>.",
			event:    "UseCase_AuthUser",
			id:       1001,
			severity: "WARN",
		},
		{
			name:     "inline key value",
			raw:      "[2024-01-01 00:00:05] [ERROR] [API] Context: {'action': 'UseCase_CheckDelivery', 'order_id': 1002, 'meta': 'retry_0'}",
			event:    "UseCase_CheckDelivery",
			id:       1002,
			severity: "ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := e.Extract(tt.raw)
			assert.Equal(t, ts, rec.Timestamp)
			assert.True(t, rec.TimestampFound)
			assert.Equal(t, tt.event, rec.Event)
			assert.True(t, rec.HasTransactionID)
			assert.Equal(t, tt.id, rec.TransactionID)
			assert.Equal(t, tt.severity, rec.Severity)
			assert.Equal(t, tt.raw, rec.Raw)
		})
	}
}

func TestExtractFallbacks(t *testing.T) {
	e := newTestExtractor()

	rec := e.Extract("system heartbeat ok")
	assert.Equal(t, fixedNow, rec.Timestamp)
	assert.False(t, rec.TimestampFound)
	assert.Equal(t, "UnknownEvent", rec.Event)
	assert.False(t, rec.HasTransactionID)
	assert.Equal(t, "INFO", rec.Severity)
}

func TestExtractEmptyLine(t *testing.T) {
	rec := newTestExtractor().Extract("")
	assert.Equal(t, "UnknownEvent", rec.Event)
	assert.False(t, rec.HasTransactionID)
}

func TestExtractInvalidTimestampFallsBack(t *testing.T) {
	rec := newTestExtractor().Extract("[2024-13-45 99:99:99] Screen_Login Order #7")
	assert.False(t, rec.TimestampFound)
	assert.Equal(t, fixedNow, rec.Timestamp)
	assert.Equal(t, int64(7), rec.TransactionID)
}

func TestExtractFirstEventWins(t *testing.T) {
	rec := newTestExtractor().Extract("Screen_Review then UseCase_SubmitOrder for Order #5")
	assert.Equal(t, "Screen_Review", rec.Event)
}

func TestExtractTransactionIDPrecedence(t *testing.T) {
	// Both the key/value and free-text forms are present; the free-text
	// matcher is tried first regardless of position in the line.
	rec := newTestExtractor().Extract("{'order_id': 42} retried as Order #43")
	require.True(t, rec.HasTransactionID)
	assert.Equal(t, int64(43), rec.TransactionID)

	rec = newTestExtractor().Extract("<Order>77</Order> {'order_id': 78}")
	require.True(t, rec.HasTransactionID)
	assert.Equal(t, int64(77), rec.TransactionID)
}

func TestExtractZeroIsValidID(t *testing.T) {
	rec := newTestExtractor().Extract("Order #0 created")
	assert.True(t, rec.HasTransactionID)
	assert.Equal(t, int64(0), rec.TransactionID)
}

func TestExtractOverflowingIDSkipped(t *testing.T) {
	rec := newTestExtractor().Extract("Order #99999999999999999999999 for <Order>12</Order>")
	require.True(t, rec.HasTransactionID)
	assert.Equal(t, int64(12), rec.TransactionID)
}

func TestExtractUnknownSeverityMarker(t *testing.T) {
	rec := newTestExtractor().Extract("[DEBUG] Screen_Login Order #1")
	assert.Equal(t, "INFO", rec.Severity)
}

func TestExtractControlCharacters(t *testing.T) {
	rec := newTestExtractor().Extract("Screen_\x00Login\tOrder #\x0711")
	// Control bytes are dropped before matching.
	assert.Equal(t, "Screen_Login", rec.Event)
	assert.Equal(t, int64(11), rec.TransactionID)
}

func TestExtractCustomPrefixes(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EventPrefixes = []string{"Step."}
	cfg.Severities = []string{"I", "E"}
	cfg.DefaultSeverity = "I"
	e := New(cfg)

	rec := e.Extract("[E] Step.Pay_Card Order #3 Screen_Login")
	assert.Equal(t, "Step.Pay_Card", rec.Event)
	assert.Equal(t, "E", rec.Severity)
}

func TestExtractAllPreservesOrder(t *testing.T) {
	e := newTestExtractor()
	lines := make([]string, 500)
	for i := range lines {
		lines[i] = fmt.Sprintf("[2024-01-01 00:00:00] Screen_Login Order #%d", i)
	}

	for _, workers := range []int{0, 1, 4, 16} {
		recs, err := e.ExtractAll(context.Background(), lines, workers)
		require.NoError(t, err)
		require.Len(t, recs, len(lines))
		for i, r := range recs {
			if r.TransactionID != int64(i) {
				t.Fatalf("workers=%d: record %d has id %d", workers, i, r.TransactionID)
			}
		}
	}
}

func TestExtractAllCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newTestExtractor().ExtractAll(ctx, []string{"a", "b"}, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExtractCorpus(t *testing.T) {
	entries, err := testdata.LoadCorpus()
	require.NoError(t, err)

	e := newTestExtractor()
	for _, c := range entries {
		t.Run(c.Description, func(t *testing.T) {
			rec := e.Extract(c.Raw)
			assert.Equal(t, c.ExpectedEvent, rec.Event)
			assert.Equal(t, c.ExpectedHasID, rec.HasTransactionID)
			assert.Equal(t, c.ExpectedTransactionID, rec.TransactionID)
			assert.Equal(t, c.ExpectedSeverity, rec.Severity)
			assert.Equal(t, c.Raw, rec.Raw)
			if c.ExpectedTimestamp == "" {
				assert.False(t, rec.TimestampFound)
				assert.Equal(t, fixedNow, rec.Timestamp)
				return
			}
			want, err := time.ParseInLocation("2006-01-02 15:04:05", c.ExpectedTimestamp, time.UTC)
			require.NoError(t, err)
			assert.True(t, rec.TimestampFound)
			assert.True(t, want.Equal(rec.Timestamp))
		})
	}
}
