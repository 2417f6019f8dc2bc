package schemaindex

import (
	"sort"

	"github.com/tclarke/fieldloop/internal/vecmath"
)

// BruteForce performs an exhaustive cosine-similarity scan over the
// vocabulary. Exact, allocation-light, and fast for the schema sizes this
// tool sees in practice.
type BruteForce struct {
	fields  []string
	vectors [][]float32
}

// NewBruteForce builds a BruteForce index from field embeddings. The input
// vectors are copied so later mutation by the caller cannot corrupt searches.
func NewBruteForce(vectors map[string][]float32) *BruteForce {
	b := &BruteForce{
		fields:  make([]string, 0, len(vectors)),
		vectors: make([][]float32, 0, len(vectors)),
	}
	for field := range vectors {
		b.fields = append(b.fields, field)
	}
	// Fixed iteration order keeps Search deterministic on tied scores.
	sort.Strings(b.fields)
	for _, field := range b.fields {
		src := vectors[field]
		cp := make([]float32, len(src))
		copy(cp, src)
		b.vectors = append(b.vectors, cp)
	}
	return b
}

// Search returns the topK most similar fields to query, sorted by descending
// score. Ties keep lexicographic field order.
func (b *BruteForce) Search(query []float32, topK int) []Match {
	if len(query) == 0 || topK <= 0 || len(b.fields) == 0 {
		return nil
	}

	results := make([]Match, len(b.fields))
	for i, vec := range b.vectors {
		results[i] = Match{
			Field: b.fields[i],
			Score: vecmath.CosineSimilarity(query, vec),
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if topK > len(results) {
		topK = len(results)
	}
	return results[:topK]
}

// Len returns the number of fields in the index.
func (b *BruteForce) Len() int { return len(b.fields) }
