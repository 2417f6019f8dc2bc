// Package models defines the core record types shared across fieldloop:
// feedback records, learned mappings, and resolution results.
package models

import (
	"fmt"
	"time"
)

// FeedbackType classifies a human judgment on a field-mapping suggestion.
type FeedbackType string

const (
	// FeedbackApproved means the human confirmed the suggested match.
	FeedbackApproved FeedbackType = "approved"

	// FeedbackCorrected means the human supplied the correct canonical field.
	FeedbackCorrected FeedbackType = "corrected"

	// FeedbackRejected means no canonical field applies to the raw field.
	FeedbackRejected FeedbackType = "rejected"
)

// ValidFeedbackType reports whether t is one of the recognized feedback types.
func ValidFeedbackType(t FeedbackType) bool {
	switch t {
	case FeedbackApproved, FeedbackCorrected, FeedbackRejected:
		return true
	}
	return false
}

// FeedbackRecord is one human judgment on one resolution attempt.
// Records are immutable once appended; a correction is a new record,
// never a mutation of an old one.
type FeedbackRecord struct {
	// When this judgment was recorded (UTC).
	Timestamp time.Time `json:"timestamp"`

	// The unresolved incoming field name. Not unique across records.
	RawField string `json:"raw_field"`

	// The canonical field the resolver proposed. Empty if nothing
	// cleared the confidence threshold.
	SuggestedMatch string `json:"suggested_match,omitempty"`

	// The canonical field supplied by the human when the suggestion
	// was wrong. Set iff FeedbackType == FeedbackCorrected.
	HumanCorrection string `json:"human_correction,omitempty"`

	// FeedbackType is one of approved/corrected/rejected.
	FeedbackType FeedbackType `json:"feedback_type"`

	// The resolver's original confidence at suggestion time (0.0-1.0).
	ConfidenceScore float64 `json:"confidence_score"`

	// Provenance metadata.
	SourceName string `json:"source_name,omitempty"`
	SessionID  string `json:"session_id,omitempty"`

	// Derived from FeedbackType; kept in the wire format for fast filtering.
	IsCorrection bool `json:"is_correction"`
}

// Validate checks the record invariants: the feedback type must be recognized,
// CORRECTED records must carry a human correction, and non-CORRECTED records
// must not.
func (r FeedbackRecord) Validate() error {
	if !ValidFeedbackType(r.FeedbackType) {
		return fmt.Errorf("unrecognized feedback_type %q", r.FeedbackType)
	}
	if r.RawField == "" {
		return fmt.Errorf("raw_field is required")
	}
	if r.FeedbackType == FeedbackCorrected && r.HumanCorrection == "" {
		return fmt.Errorf("corrected feedback requires human_correction")
	}
	if r.FeedbackType != FeedbackCorrected && r.HumanCorrection != "" {
		return fmt.Errorf("human_correction only valid for corrected feedback")
	}
	return nil
}

// CanonicalVote returns the canonical field this record endorses, if any.
// APPROVED records endorse the suggested match, CORRECTED records endorse
// the human correction, and REJECTED records endorse nothing.
func (r FeedbackRecord) CanonicalVote() (string, bool) {
	switch r.FeedbackType {
	case FeedbackApproved:
		return r.SuggestedMatch, r.SuggestedMatch != ""
	case FeedbackCorrected:
		return r.HumanCorrection, r.HumanCorrection != ""
	}
	return "", false
}
