package models

// Method identifies which tier produced a resolution.
type Method string

const (
	MethodLearnedExact      Method = "learned_exact"
	MethodLearnedFuzzy      Method = "learned_fuzzy"
	MethodEmbeddingFallback Method = "embedding_fallback"
	MethodNone              Method = "none"
)

// Resolution is the outcome of resolving one raw field name.
// A non-match is not an error: Method is MethodNone, CanonicalField is
// empty, and Confidence carries the best score seen so the caller can
// route the field to human review.
type Resolution struct {
	RawField       string  `json:"raw_field"`
	CanonicalField string  `json:"canonical_field,omitempty"`
	Confidence     float64 `json:"confidence"`
	Method         Method  `json:"method"`
}

// Matched reports whether the resolution produced a canonical field.
func (r Resolution) Matched() bool {
	return r.Method != MethodNone && r.CanonicalField != ""
}
