// Package vecmath provides the vector math shared by the embedding backends
// and the schema index. Every tier of the resolver scores matches with the
// same cosine metric so confidences are comparable across tiers.
package vecmath

import "math"

// CosineSimilarity returns the cosine similarity of a and b in [-1, 1].
// Returns 0 for mismatched lengths or zero-magnitude vectors.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
