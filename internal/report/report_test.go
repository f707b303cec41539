package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/FranksOps/magpie/internal/ingest"
)

func sampleSummary() *ingest.RunSummary {
	started := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	return &ingest.RunSummary{
		RunID:        "run-1234",
		QueryID:      7,
		Query:        "widget gear",
		Keywords:     []string{"widget", "gear"},
		Started:      started,
		Finished:     started.Add(42 * time.Second),
		TotalURLs:    12,
		UniqueURLs:   9,
		Duplicates:   3,
		AdsRemoved:   2,
		Measured:     7,
		Reused:       1,
		Skipped:      1,
		Failed:       1,
		NotFoundURLs: []string{"https://example.com/gone"},
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, sampleSummary()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, `"unique_urls": 9`) {
		t.Errorf("expected JSON to contain unique_urls: 9, got %s", out)
	}
	if !strings.Contains(out, `"run_id": "run-1234"`) {
		t.Errorf("expected JSON to contain the run id")
	}
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteText(&buf, sampleSummary()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "Query:         widget gear (id 7)") {
		t.Errorf("expected text to name the query, got:\n%s", out)
	}
	if !strings.Contains(out, "12 found, 9 unique, 3 duplicates, 2 ads removed") {
		t.Errorf("expected text to carry the URL totals, got:\n%s", out)
	}
	if !strings.Contains(out, "https://example.com/gone") {
		t.Errorf("expected text to list gone URLs")
	}
}

func TestWriteTextEmptyLists(t *testing.T) {
	s := sampleSummary()
	s.Keywords = nil
	s.NotFoundURLs = nil

	var buf bytes.Buffer
	if err := WriteText(&buf, s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "None") {
		t.Errorf("expected placeholder for empty lists, got:\n%s", buf.String())
	}
}

func TestWriteHTML(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteHTML(&buf, sampleSummary()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "<title>Magpie Ingestion Report</title>") {
		t.Errorf("expected HTML title")
	}
	if !strings.Contains(out, "https://example.com/gone") {
		t.Errorf("expected HTML to list gone URLs")
	}
}
