// Package memory provides an in-process vector index. Vectors are held
// in a map and queried by brute-force dot product, which equals cosine
// similarity for normalised vectors. Used for infrastructure-free runs
// and as a test double.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/consulta-labs/consulta/internal/core/ports/driven"
)

// Index is an in-memory vector index safe for concurrent use.
type Index struct {
	mu      sync.RWMutex
	entries map[string]driven.VectorEntry
	order   []string
}

// New creates an empty in-memory index.
func New() *Index {
	return &Index{entries: make(map[string]driven.VectorEntry)}
}

// Interface compliance check.
var _ driven.VectorIndex = (*Index)(nil)

// Upsert stores entries, overwriting existing IDs.
func (idx *Index) Upsert(_ context.Context, entries []driven.VectorEntry) (int, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	for _, e := range entries {
		if _, exists := idx.entries[e.ID]; !exists {
			idx.order = append(idx.order, e.ID)
		}
		idx.entries[e.ID] = e
	}
	return len(entries), nil
}

// Query returns the topK entries nearest to the query vector. Ordering
// is stable: ties keep insertion order.
func (idx *Index) Query(_ context.Context, vector []float32, topK int) ([]driven.VectorMatch, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	matches := make([]driven.VectorMatch, 0, len(idx.order))
	for _, id := range idx.order {
		e := idx.entries[id]
		matches = append(matches, driven.VectorMatch{
			ID:       e.ID,
			Score:    dot(vector, e.Values),
			Metadata: e.Metadata,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if topK > 0 && len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// DeleteByDocument removes every vector whose metadata names the document.
func (idx *Index) DeleteByDocument(_ context.Context, documentID string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	kept := idx.order[:0]
	for _, id := range idx.order {
		if idx.entries[id].Metadata.DocumentID == documentID {
			delete(idx.entries, id)
			continue
		}
		kept = append(kept, id)
	}
	idx.order = kept
	return nil
}

// Count returns the number of stored vectors.
func (idx *Index) Count(_ context.Context) (int, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries), nil
}

// Ping always succeeds.
func (idx *Index) Ping(_ context.Context) error { return nil }

// Close releases the stored vectors.
func (idx *Index) Close() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.entries = make(map[string]driven.VectorEntry)
	idx.order = nil
	return nil
}

func dot(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float32
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
