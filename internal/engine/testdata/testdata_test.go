package testdata

import (
	"testing"
)

func TestLoadCorpus(t *testing.T) {
	entries, err := LoadCorpus()
	if err != nil {
		t.Fatalf("LoadCorpus() error: %v", err)
	}

	if len(entries) == 0 {
		t.Fatal("corpus is empty")
	}
	t.Logf("Total entries: %d", len(entries))

	for i, e := range entries {
		if e.ExpectedEvent == "" {
			t.Errorf("entry[%d] has empty expected_event", i)
		}
		if e.ExpectedSeverity == "" {
			t.Errorf("entry[%d] has empty expected_severity", i)
		}
		if e.Description == "" {
			t.Errorf("entry[%d] has empty description", i)
		}
	}
}

func TestCorpusCoverage(t *testing.T) {
	entries, err := LoadCorpus()
	if err != nil {
		t.Fatalf("LoadCorpus() error: %v", err)
	}

	formats := map[string]int{}
	orphans := 0
	for _, e := range entries {
		formats[e.Format]++
		if !e.ExpectedHasID {
			orphans++
		}
	}
	for _, f := range []string{"text", "xml", "json", "none"} {
		if formats[f] == 0 {
			t.Errorf("no corpus entry for format %q", f)
		}
	}
	if orphans == 0 {
		t.Error("corpus has no orphan lines")
	}
}
