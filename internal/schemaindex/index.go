// Package schemaindex provides nearest-neighbor search over the precomputed
// embeddings of a canonical schema. Indexes are built once per process from
// the full vocabulary and are immutable afterward, which is what makes
// resolution a pure read operation that is safe to parallelize.
package schemaindex

// Match pairs a canonical field name with its cosine similarity score.
type Match struct {
	Field string
	Score float64 // cosine similarity in [-1, 1], higher = more similar
}

// Index searches a fixed vocabulary of canonical-field embeddings.
// Implementations are immutable after construction and safe for concurrent
// use from multiple goroutines.
type Index interface {
	// Search returns the topK most similar fields to query, sorted by
	// descending score. Returns fewer results if the vocabulary is smaller.
	Search(query []float32, topK int) []Match

	// Len returns the number of fields in the index.
	Len() int
}

// DefaultHNSWThreshold is the vocabulary size at which New switches from the
// exhaustive scan to an HNSW graph. Canonical schemas are usually tens of
// fields, so most deployments stay on the brute-force path.
const DefaultHNSWThreshold = 1000

// New builds an index for the given field embeddings, choosing brute-force
// for small vocabularies and HNSW above DefaultHNSWThreshold.
func New(vectors map[string][]float32) Index {
	if len(vectors) > DefaultHNSWThreshold {
		return newHNSW(vectors)
	}
	return NewBruteForce(vectors)
}
