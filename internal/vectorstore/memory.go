// Package vectorstore provides the in-memory vector index used for
// nearest-neighbour search over embedded chunks.
package vectorstore

import (
	"errors"
	"math"
	"sort"
	"sync"

	"ragserver/internal/domain"
)

// Memory is a brute-force in-memory vector index. Scores are cosine
// distances (1 - cosine similarity), so lower means more similar. Entries
// are append-only and equal distances keep insertion order, which makes
// repeated searches against an unchanged index byte-identical.
type Memory struct {
	mu        sync.RWMutex
	dimension int
	vectors   [][]float64
	chunks    []domain.Chunk
}

// NewMemory creates an empty index. The dimension is fixed by the first Add.
func NewMemory() *Memory { return &Memory{} }

// Add appends embedded chunks to the index.
func (m *Memory) Add(chunks []domain.Chunk, vectors [][]float64) error {
	if len(chunks) != len(vectors) {
		return errors.New("chunks and vectors length mismatch")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range vectors {
		if len(v) == 0 {
			return errors.New("empty vector")
		}
		if m.dimension == 0 && len(m.vectors) == 0 {
			m.dimension = len(v)
		}
		if len(v) != m.dimension {
			return errors.New("vector dimension mismatch")
		}
	}
	m.chunks = append(m.chunks, chunks...)
	m.vectors = append(m.vectors, vectors...)
	return nil
}

// Len returns the number of embedded chunks in the index.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.chunks)
}

// Search returns up to k results ordered by ascending distance. An empty
// index yields an empty result set, not an error.
func (m *Memory) Search(vector []float64, k int) ([]domain.SearchResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.chunks) == 0 {
		return []domain.SearchResult{}, nil
	}
	if len(vector) != m.dimension {
		return nil, errors.New("query vector dimension mismatch")
	}
	if k <= 0 {
		k = 3
	}

	idxs := make([]int, len(m.vectors))
	dists := make([]float64, len(m.vectors))
	for i := range m.vectors {
		idxs[i] = i
		dists[i] = cosineDistance(m.vectors[i], vector)
	}
	sort.SliceStable(idxs, func(a, b int) bool { return dists[idxs[a]] < dists[idxs[b]] })

	if k > len(idxs) {
		k = len(idxs)
	}
	results := make([]domain.SearchResult, 0, k)
	for _, i := range idxs[:k] {
		results = append(results, domain.SearchResult{
			Content: m.chunks[i].Content,
			Source:  m.chunks[i].Source,
			Page:    m.chunks[i].Page,
			Score:   dists[i],
		})
	}
	return results, nil
}

func cosineDistance(a, b []float64) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}
