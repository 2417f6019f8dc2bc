//go:build windows

package schemaindex

// The HNSW backend is not built on Windows; large vocabularies fall back to
// the exhaustive scan, which stays correct at the cost of search latency.
func newHNSW(vectors map[string][]float32) Index {
	return NewBruteForce(vectors)
}
