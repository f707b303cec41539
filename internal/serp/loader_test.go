package serp

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()

	writeFile(t, dir, "google_results.json", `{
		"results": [
			{"url": "https://example.com/a", "domain": "example.com", "title": "A", "description": "first"}
		],
		"statistics": {"total_urls_found": 10, "ad_urls_removed": 2}
	}`)
	writeFile(t, dir, "bing_results.json", `{
		"results": [],
		"statistics": {"total_urls_found": 5, "ad_urls_removed": 0}
	}`)
	writeFile(t, dir, "notes.txt", "ignore me")

	batches, warnings, err := LoadDir(dir, nil)
	if err != nil {
		t.Fatalf("LoadDir failed: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("expected no warnings, got %v", warnings)
	}
	if len(batches) != 2 {
		t.Fatalf("expected 2 batches, got %d", len(batches))
	}

	// Ordered by engine name.
	if batches[0].Engine != "bing" || batches[1].Engine != "google" {
		t.Errorf("unexpected engine order: %q, %q", batches[0].Engine, batches[1].Engine)
	}
	if batches[1].Statistics.TotalURLsFound != 10 {
		t.Errorf("expected 10 total urls, got %d", batches[1].Statistics.TotalURLsFound)
	}
	if len(batches[1].Results) != 1 || batches[1].Results[0].URL != "https://example.com/a" {
		t.Errorf("unexpected results: %+v", batches[1].Results)
	}
}

func TestLoadDirSkipsUnparseable(t *testing.T) {
	dir := t.TempDir()

	writeFile(t, dir, "google_results.json", `{not valid json`)
	writeFile(t, dir, "yahoo_results.json", `{"results": [], "statistics": {}}`)

	batches, warnings, err := LoadDir(dir, nil)
	if err != nil {
		t.Fatalf("LoadDir failed: %v", err)
	}
	if len(batches) != 1 || batches[0].Engine != "yahoo" {
		t.Fatalf("expected only yahoo batch, got %+v", batches)
	}
	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning, got %v", warnings)
	}
}

func TestLoadDirMissing(t *testing.T) {
	if _, _, err := LoadDir(filepath.Join(t.TempDir(), "nope"), nil); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestPurgeDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "google_results.json", "{}")
	writeFile(t, dir, "capture.png", "binary")

	if err := PurgeDir(dir); err != nil {
		t.Fatalf("PurgeDir failed: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected empty dir, found %d entries", len(entries))
	}
}
