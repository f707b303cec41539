package consolidate

import (
	"github.com/FranksOps/magpie/internal/serp"
)

// URLRecord is one deduplicated catalogue entry with provenance.
type URLRecord struct {
	URL            string   `json:"url"`
	Title          string   `json:"title"`
	Domain         string   `json:"domain"`
	SourceEngines  []string `json:"source_search_engines"`
	Description    string   `json:"description"`
	DuplicateCount int      `json:"duplicate_count"`
}

// Stats aggregates capture statistics across every merged batch.
type Stats struct {
	TotalAdsRemoved   int      `json:"total_ads_removed"`
	TotalOriginalURLs int      `json:"total_original_urls"`
	TotalUniqueURLs   int      `json:"total_unique_urls"`
	TotalOccurrences  int      `json:"total_occurrences"`
	EnginesProcessed  []string `json:"engines_processed"`
	Warnings          []string `json:"warnings,omitempty"`
}

// Consolidated is the merged view of all engine batches for one query.
type Consolidated struct {
	UniqueURLs []URLRecord `json:"unique_urls"`
	Statistics Stats       `json:"statistics"`
}

// Merge folds N engine batches into one deduplicated URL list. For a URL seen
// by several engines, the first-seen title, domain and description win and
// every contributing engine is recorded once, in first-occurrence order.
// Title/domain/description selection is therefore order-dependent;
// unique-URL membership and all counts are not.
//
// Merge is a pure function: it never touches the store or the network.
func Merge(batches []serp.Batch, warnings []string) *Consolidated {
	type entry struct {
		rec   URLRecord
		seen  map[string]struct{}
		order int
	}

	byURL := make(map[string]*entry)
	out := &Consolidated{
		Statistics: Stats{Warnings: warnings},
	}

	for _, batch := range batches {
		out.Statistics.TotalAdsRemoved += batch.Statistics.AdURLsRemoved
		out.Statistics.TotalOriginalURLs += batch.Statistics.TotalURLsFound
		out.Statistics.EnginesProcessed = append(out.Statistics.EnginesProcessed, batch.Engine)

		for _, res := range batch.Results {
			if res.URL == "" {
				continue
			}

			e, ok := byURL[res.URL]
			if !ok {
				e = &entry{
					rec: URLRecord{
						URL:         res.URL,
						Title:       res.Title,
						Domain:      res.Domain,
						Description: res.Description,
					},
					seen:  make(map[string]struct{}),
					order: len(byURL),
				}
				byURL[res.URL] = e
			}

			if _, dup := e.seen[batch.Engine]; !dup {
				e.seen[batch.Engine] = struct{}{}
				e.rec.SourceEngines = append(e.rec.SourceEngines, batch.Engine)
			}
			e.rec.DuplicateCount++
			out.Statistics.TotalOccurrences++
		}
	}

	out.UniqueURLs = make([]URLRecord, len(byURL))
	for _, e := range byURL {
		out.UniqueURLs[e.order] = e.rec
	}
	out.Statistics.TotalUniqueURLs = len(out.UniqueURLs)

	return out
}
