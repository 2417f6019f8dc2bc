package feedback

import (
	"context"
	"sync"

	"github.com/tclarke/fieldloop/internal/models"
)

// MemoryStore keeps feedback records in memory. It backs tests and
// ephemeral pipeline runs where durability is not needed.
type MemoryStore struct {
	mu      sync.Mutex
	records []models.FeedbackRecord
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Record validates and appends one feedback record.
func (s *MemoryStore) Record(ctx context.Context, req RecordRequest) (models.FeedbackRecord, error) {
	rec, err := buildRecord(req)
	if err != nil {
		return models.FeedbackRecord{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return rec, nil
}

// All returns every record in insertion order.
func (s *MemoryStore) All(ctx context.Context) ([]models.FeedbackRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.FeedbackRecord, len(s.records))
	copy(out, s.records)
	return out, nil
}

// HistoryFor returns the records for rawField, ordered by timestamp ascending.
func (s *MemoryStore) HistoryFor(ctx context.Context, rawField string) ([]models.FeedbackRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return historyFor(s.records, rawField), nil
}

// Statistics summarizes the feedback history.
func (s *MemoryStore) Statistics(ctx context.Context) (Statistics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return computeStatistics(s.records), nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }
