// Package memory provides an in-process Index used by tests and local
// development, mirroring the Postgres implementation's contract.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/driftline/driftline/pkg/search"
)

var _ search.Index = (*Index)(nil)

type Index struct {
	mu      sync.RWMutex
	entries map[string]search.Entry
}

func MakeIndex() *Index {
	return &Index{
		entries: make(map[string]search.Entry),
	}
}

func (idx *Index) Close() error {
	return nil
}

func (idx *Index) Upsert(_ context.Context, entry search.Entry) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	entry.Score = 0
	idx.entries[entry.ContentId] = entry
	return nil
}

func (idx *Index) Delete(_ context.Context, contentId string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	delete(idx.entries, contentId)
	return nil
}

func (idx *Index) Search(_ context.Context, query string, limit int) ([]search.Entry, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	terms := strings.Fields(strings.ToLower(query))

	var results []search.Entry
	for _, entry := range idx.entries {
		score := score(strings.ToLower(entry.Body), terms)
		if score == 0 {
			continue
		}
		entry.Score = score
		results = append(results, entry)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Len reports the number of indexed entries. Handy in tests.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}

// score counts query-term occurrences among the body's words. A crude
// stand-in for ts_rank, sufficient for relevance ordering in tests.
func score(body string, terms []string) float64 {
	if len(terms) == 0 {
		return 0
	}

	words := strings.Fields(body)
	var hits float64
	for _, term := range terms {
		for _, word := range words {
			if strings.Trim(word, ".,!?;:\"'()") == term {
				hits++
			}
		}
	}
	return hits
}
