package models

import "time"

// LearnedMapping is a consensus association from a raw field name to a
// canonical field, derived from the feedback records sharing that raw field.
// It is recomputed from feedback history on demand, never stored on its own,
// so it can never drift out of sync with the log.
type LearnedMapping struct {
	RawField       string `json:"raw_field"`
	CanonicalField string `json:"canonical_field"`

	// AgreementRatio is votes for the winning canonical field divided by
	// the total number of feedback records in the group (rejections count
	// toward the denominator but never vote).
	AgreementRatio float64 `json:"agreement_ratio"`

	// SupportCount is the number of feedback records backing the winner.
	SupportCount int `json:"support_count"`

	// LastSupportedAt is the timestamp of the most recent record backing
	// the winner. Used for deterministic tie-breaking.
	LastSupportedAt time.Time `json:"last_supported_at"`
}
