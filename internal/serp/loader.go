package serp

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// resultsSuffix identifies engine capture files inside a batch directory,
// e.g. "google_results.json" -> engine "google".
const resultsSuffix = "_results.json"

// LoadDir reads every per-engine capture file in dir and returns the parsed
// batches ordered by engine name. Files that are missing or unparseable are
// skipped, not fatal; each skip is returned as a warning so the caller can
// fold it into run statistics.
func LoadDir(dir string, logger *slog.Logger) ([]Batch, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("read batch dir: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), resultsSuffix) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)

	var (
		mu       sync.Mutex
		batches  []Batch
		warnings []string
	)

	var g errgroup.Group
	for _, path := range paths {
		g.Go(func() error {
			b, err := loadFile(path)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				warn := fmt.Sprintf("skipping %s: %v", filepath.Base(path), err)
				logger.Warn("engine batch skipped", "file", filepath.Base(path), "err", err)
				warnings = append(warnings, warn)
				return nil
			}
			batches = append(batches, b)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	// Parsing runs concurrently; restore a stable order for callers.
	sort.Slice(batches, func(i, j int) bool { return batches[i].Engine < batches[j].Engine })
	sort.Strings(warnings)

	return batches, warnings, nil
}

func loadFile(path string) (Batch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Batch{}, err
	}

	var b Batch
	if err := json.Unmarshal(data, &b); err != nil {
		return Batch{}, fmt.Errorf("parse: %w", err)
	}

	b.Engine = strings.TrimSuffix(filepath.Base(path), resultsSuffix)
	return b, nil
}

// PurgeDir removes every regular file directly inside dir. Capture
// directories are cleared between runs so stale engine batches never leak
// into the next consolidation.
func PurgeDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read dir: %w", err)
	}

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
			return fmt.Errorf("remove %s: %w", e.Name(), err)
		}
	}
	return nil
}
