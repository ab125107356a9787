package model

import "time"

// Record is one structured event extracted from a single raw log line.
type Record struct {
	Timestamp        time.Time
	TimestampFound   bool   // false when Timestamp is the extraction-time fallback
	Event            string // event symbol, e.g. "Screen_Login" or "UnknownEvent"
	TransactionID    int64
	HasTransactionID bool // false marks noise: the record is dropped before grouping
	Severity         string
	Raw              string // original log text
}
