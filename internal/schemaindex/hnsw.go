//go:build !windows

package schemaindex

import (
	"github.com/coder/hnsw"
)

// hnswIndex wraps a Hierarchical Navigable Small World graph from
// github.com/coder/hnsw for large vocabularies. The graph is populated once
// at construction and never mutated, which sidesteps the library's unsafe
// delete path entirely.
type hnswIndex struct {
	graph *hnsw.Graph[string]
	count int
}

func newHNSW(vectors map[string][]float32) Index {
	g := hnsw.NewGraph[string]()
	g.M = 16
	g.EfSearch = 100
	g.Ml = 0.25
	g.Distance = hnsw.CosineDistance

	nodes := make([]hnsw.Node[string], 0, len(vectors))
	for field, vec := range vectors {
		cp := make([]float32, len(vec))
		copy(cp, vec)
		nodes = append(nodes, hnsw.MakeNode(field, cp))
	}
	if len(nodes) > 0 {
		g.Add(nodes...)
	}

	return &hnswIndex{graph: g, count: len(nodes)}
}

// Search returns the topK most similar fields, scored as
// 1.0 - CosineDistance(query, candidate).
func (h *hnswIndex) Search(query []float32, topK int) []Match {
	if len(query) == 0 || topK <= 0 || h.count == 0 {
		return nil
	}

	nodes := h.graph.Search(query, topK)
	results := make([]Match, 0, len(nodes))
	for _, n := range nodes {
		dist := hnsw.CosineDistance(query, n.Value)
		results = append(results, Match{
			Field: n.Key,
			Score: 1.0 - float64(dist),
		})
	}
	return results
}

func (h *hnswIndex) Len() int { return h.count }
