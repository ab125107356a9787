package model

import "time"

// Sequence is the chronologically ordered event history of one transaction.
// Events, RawLines, Timestamps and Severities are parallel and always the
// same length.
type Sequence struct {
	TransactionID int64
	Events        []string
	RawLines      []string
	Timestamps    []time.Time
	Severities    []string
	Label         int // 1 when the success symbol was reached, else 0
}

// Succeeded reports whether the sequence is labeled as a success.
func (s Sequence) Succeeded() bool { return s.Label == 1 }

// Last returns the final event symbol and false if the sequence is empty.
func (s Sequence) Last() (string, bool) {
	if len(s.Events) == 0 {
		return "", false
	}
	return s.Events[len(s.Events)-1], true
}

// EncodedSequence pairs a transaction with its integer encoding.
type EncodedSequence struct {
	TransactionID int64
	IDs           []int // one id per event, unpadded and untruncated
	Vector        []int // fixed-length model input, tail-truncated and tail-padded
	Label         int
}
