// Package feedback provides the durable, append-only record of human
// judgments on field-mapping suggestions. The JSONL file is the source of
// truth; a SQLite-backed store implements the same contract for deployments
// that want SQL over the audit history, and an in-memory store serves tests.
package feedback

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/tclarke/fieldloop/internal/models"
)

// ValidationError indicates a malformed feedback record. Invalid records are
// rejected synchronously at Record time and never persisted.
type ValidationError struct {
	Reason error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid feedback record: %v", e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.Reason }

// RecordRequest carries the caller-supplied fields for one feedback record.
// Timestamp defaults to the current UTC time when zero; IsCorrection is
// always derived from FeedbackType, never taken from the caller.
type RecordRequest struct {
	RawField        string
	SuggestedMatch  string
	HumanCorrection string
	FeedbackType    models.FeedbackType
	ConfidenceScore float64
	SourceName      string
	SessionID       string
	Timestamp       time.Time
}

// Store is the append-only log of feedback records. Records are immutable
// once appended and never deleted: the full audit history is the point.
type Store interface {
	// Record validates, constructs, and persists one feedback record.
	// Returns a *ValidationError for malformed input.
	Record(ctx context.Context, req RecordRequest) (models.FeedbackRecord, error)

	// All returns every record in insertion order.
	All(ctx context.Context) ([]models.FeedbackRecord, error)

	// HistoryFor returns the records for one raw field, ordered by
	// timestamp ascending.
	HistoryFor(ctx context.Context, rawField string) ([]models.FeedbackRecord, error)

	// Statistics summarizes the feedback history.
	Statistics(ctx context.Context) (Statistics, error)

	// Close releases storage resources.
	Close() error
}

// Statistics summarizes a feedback history. All rates are fractions of
// TotalRecords and are 0.0 (never NaN) for an empty store.
type Statistics struct {
	TotalRecords           int     `json:"total_records"`
	UniqueFields           int     `json:"unique_fields"`
	ApprovalRate           float64 `json:"approval_rate"`
	CorrectionRate         float64 `json:"correction_rate"`
	RejectionRate          float64 `json:"rejection_rate"`
	AvgConfidenceApproved  float64 `json:"avg_confidence_approved"`
	AvgConfidenceCorrected float64 `json:"avg_confidence_corrected"`
}

// buildRecord validates a request and materializes the immutable record.
func buildRecord(req RecordRequest) (models.FeedbackRecord, error) {
	ts := req.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	rec := models.FeedbackRecord{
		Timestamp:       ts,
		RawField:        req.RawField,
		SuggestedMatch:  req.SuggestedMatch,
		HumanCorrection: req.HumanCorrection,
		FeedbackType:    req.FeedbackType,
		ConfidenceScore: req.ConfidenceScore,
		SourceName:      req.SourceName,
		SessionID:       req.SessionID,
		IsCorrection:    req.FeedbackType == models.FeedbackCorrected,
	}

	if err := rec.Validate(); err != nil {
		return models.FeedbackRecord{}, &ValidationError{Reason: err}
	}
	return rec, nil
}

// computeStatistics derives Statistics from a record history.
func computeStatistics(records []models.FeedbackRecord) Statistics {
	stats := Statistics{TotalRecords: len(records)}
	if len(records) == 0 {
		return stats
	}

	unique := make(map[string]struct{}, len(records))
	var approved, corrected, rejected int
	var approvedConf, correctedConf float64

	for _, r := range records {
		unique[r.RawField] = struct{}{}
		switch r.FeedbackType {
		case models.FeedbackApproved:
			approved++
			approvedConf += r.ConfidenceScore
		case models.FeedbackCorrected:
			corrected++
			correctedConf += r.ConfidenceScore
		case models.FeedbackRejected:
			rejected++
		}
	}

	total := float64(len(records))
	stats.UniqueFields = len(unique)
	stats.ApprovalRate = float64(approved) / total
	stats.CorrectionRate = float64(corrected) / total
	stats.RejectionRate = float64(rejected) / total
	if approved > 0 {
		stats.AvgConfidenceApproved = approvedConf / float64(approved)
	}
	if corrected > 0 {
		stats.AvgConfidenceCorrected = correctedConf / float64(corrected)
	}
	return stats
}

// historyFor filters records by raw field and sorts by timestamp ascending.
// The sort is stable so records sharing a timestamp keep insertion order.
func historyFor(records []models.FeedbackRecord, rawField string) []models.FeedbackRecord {
	var out []models.FeedbackRecord
	for _, r := range records {
		if r.RawField == rawField {
			out = append(out, r)
		}
	}
	// Insertion order equals chronological order for a single writer, but
	// multi-writer logs can interleave; sort to honor the contract.
	sortByTimestamp(out)
	return out
}

func sortByTimestamp(records []models.FeedbackRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp.Before(records[j].Timestamp)
	})
}
