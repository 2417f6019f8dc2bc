// Package review implements the human-in-the-loop queue: resolutions that
// need a human judgment are parked here, and each verdict becomes a
// feedback record in the store.
package review

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/tclarke/fieldloop/internal/feedback"
	"github.com/tclarke/fieldloop/internal/models"
)

// ErrNotPending indicates there is no pending review for the given raw field.
var ErrNotPending = fmt.Errorf("no pending review for field")

// Pending is one resolution awaiting a human verdict.
type Pending struct {
	RawField        string        `json:"raw_field"`
	SuggestedMatch  string        `json:"suggested_match,omitempty"`
	ConfidenceScore float64       `json:"confidence_score"`
	Method          models.Method `json:"method"`
	SourceName      string        `json:"source_name,omitempty"`
	SubmittedAt     time.Time     `json:"submitted_at"`
}

// Queue holds pending reviews and converts verdicts into feedback records.
// The queue is persisted to a JSONL file rewritten on every change, so a
// review sitting can span process restarts. One Queue per session: every
// verdict it records carries the same session ID.
type Queue struct {
	store     feedback.Store
	path      string
	sessionID string

	mu      sync.Mutex
	pending []Pending
}

// Open loads (or creates) a review queue at path, recording verdicts into
// store. An empty sessionID gets a timestamp-derived one.
func Open(path string, store feedback.Store, sessionID string) (*Queue, error) {
	if sessionID == "" {
		sessionID = fmt.Sprintf("session-%s", time.Now().UTC().Format("20060102-150405"))
	}

	q := &Queue{store: store, path: path, sessionID: sessionID}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return q, nil
		}
		return nil, fmt.Errorf("reading review queue: %w", err)
	}
	for _, line := range splitLines(data) {
		if len(line) == 0 {
			continue
		}
		var p Pending
		if err := json.Unmarshal(line, &p); err != nil {
			continue
		}
		q.pending = append(q.pending, p)
	}
	return q, nil
}

// SessionID returns the session identifier verdicts are recorded under.
func (q *Queue) SessionID() string { return q.sessionID }

// Submit parks a resolution for human review. Duplicate submissions for a
// raw field already in the queue are dropped: one verdict resolves the field.
func (q *Queue) Submit(res models.Resolution, sourceName string) (Pending, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, p := range q.pending {
		if p.RawField == res.RawField {
			return p, nil
		}
	}

	p := Pending{
		RawField:        res.RawField,
		SuggestedMatch:  res.CanonicalField,
		ConfidenceScore: res.Confidence,
		Method:          res.Method,
		SourceName:      sourceName,
		SubmittedAt:     time.Now().UTC(),
	}
	q.pending = append(q.pending, p)
	if err := q.save(); err != nil {
		q.pending = q.pending[:len(q.pending)-1]
		return Pending{}, err
	}
	return p, nil
}

// List returns the pending reviews in submission order.
func (q *Queue) List() []Pending {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Pending, len(q.pending))
	copy(out, q.pending)
	return out
}

// Approve records that the suggestion for rawField was correct.
func (q *Queue) Approve(ctx context.Context, rawField string) (models.FeedbackRecord, error) {
	return q.settle(ctx, rawField, func(p Pending) feedback.RecordRequest {
		return feedback.RecordRequest{
			RawField:        p.RawField,
			SuggestedMatch:  p.SuggestedMatch,
			FeedbackType:    models.FeedbackApproved,
			ConfidenceScore: p.ConfidenceScore,
			SourceName:      p.SourceName,
			SessionID:       q.sessionID,
		}
	})
}

// Correct records the human-supplied canonical field for rawField.
func (q *Queue) Correct(ctx context.Context, rawField, correctField string) (models.FeedbackRecord, error) {
	return q.settle(ctx, rawField, func(p Pending) feedback.RecordRequest {
		return feedback.RecordRequest{
			RawField:        p.RawField,
			SuggestedMatch:  p.SuggestedMatch,
			HumanCorrection: correctField,
			FeedbackType:    models.FeedbackCorrected,
			ConfidenceScore: p.ConfidenceScore,
			SourceName:      p.SourceName,
			SessionID:       q.sessionID,
		}
	})
}

// Reject records that no canonical field applies to rawField.
func (q *Queue) Reject(ctx context.Context, rawField string) (models.FeedbackRecord, error) {
	return q.settle(ctx, rawField, func(p Pending) feedback.RecordRequest {
		return feedback.RecordRequest{
			RawField:        p.RawField,
			SuggestedMatch:  p.SuggestedMatch,
			FeedbackType:    models.FeedbackRejected,
			ConfidenceScore: p.ConfidenceScore,
			SourceName:      p.SourceName,
			SessionID:       q.sessionID,
		}
	})
}

// settle records the verdict first, then removes the pending entry. If the
// removal's save fails the feedback is already durable, which beats losing a
// human judgment to re-review.
func (q *Queue) settle(ctx context.Context, rawField string, build func(Pending) feedback.RecordRequest) (models.FeedbackRecord, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	idx := -1
	for i, p := range q.pending {
		if p.RawField == rawField {
			idx = i
			break
		}
	}
	if idx < 0 {
		return models.FeedbackRecord{}, fmt.Errorf("%w: %s", ErrNotPending, rawField)
	}

	rec, err := q.store.Record(ctx, build(q.pending[idx]))
	if err != nil {
		return models.FeedbackRecord{}, err
	}

	q.pending = append(q.pending[:idx], q.pending[idx+1:]...)
	if err := q.save(); err != nil {
		return rec, fmt.Errorf("feedback recorded but queue save failed: %w", err)
	}
	return rec, nil
}

// save rewrites the queue file. Caller must hold q.mu.
func (q *Queue) save() error {
	if err := os.MkdirAll(filepath.Dir(q.path), 0o755); err != nil {
		return fmt.Errorf("creating queue directory: %w", err)
	}

	var buf []byte
	for _, p := range q.pending {
		line, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("encoding pending review: %w", err)
		}
		buf = append(buf, line...)
		buf = append(buf, '\n')
	}
	if err := os.WriteFile(q.path, buf, 0o644); err != nil {
		return fmt.Errorf("writing review queue: %w", err)
	}
	return nil
}

func splitLines(data []byte) [][]byte {
	var lines [][]byte
	start := 0
	for i, b := range data {
		if b == '\n' {
			lines = append(lines, data[start:i])
			start = i + 1
		}
	}
	if start < len(data) {
		lines = append(lines, data[start:])
	}
	return lines
}
