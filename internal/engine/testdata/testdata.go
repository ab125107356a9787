package testdata

import (
	_ "embed"
	"encoding/json"
	"fmt"
)

//go:embed corpus.json
var corpusJSON []byte

// CorpusEntry is a raw log line with the fields extraction should produce.
type CorpusEntry struct {
	Raw                   string `json:"raw"`
	Format                string `json:"format"` // text, xml, json or none
	ExpectedEvent         string `json:"expected_event"`
	ExpectedTransactionID int64  `json:"expected_transaction_id"`
	ExpectedHasID         bool   `json:"expected_has_id"`
	ExpectedSeverity      string `json:"expected_severity"`
	ExpectedTimestamp     string `json:"expected_timestamp"` // empty when absent or unparseable
	Description           string `json:"description"`
}

// LoadCorpus parses the embedded corpus.json and returns all entries.
func LoadCorpus() ([]CorpusEntry, error) {
	var entries []CorpusEntry
	if err := json.Unmarshal(corpusJSON, &entries); err != nil {
		return nil, fmt.Errorf("parse corpus.json: %w", err)
	}
	return entries, nil
}
