package feedback

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/tclarke/fieldloop/internal/models"
)

// JSONLStore persists feedback records to an append-only JSONL file, one
// self-contained JSON object per line. Each Record call is a single
// open-append-close write, so interleaved writers from separate processes
// never corrupt or truncate each other's entries. Existing records are
// loaded into memory at open; reads are served from the cache.
type JSONLStore struct {
	path string

	mu      sync.Mutex
	records []models.FeedbackRecord
}

// OpenJSONL opens (creating if needed) a JSONL feedback store at path.
// Lines that fail to parse are skipped rather than failing the open, so a
// log written by a newer version with unknown record shapes stays readable.
func OpenJSONL(path string) (*JSONLStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating feedback directory: %w", err)
	}

	s := &JSONLStore{path: path}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *JSONLStore) load() error {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("opening feedback log: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec models.FeedbackRecord
		// Unknown JSON fields are ignored for forward compatibility.
		if err := json.Unmarshal(line, &rec); err != nil {
			continue
		}
		s.records = append(s.records, rec)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading feedback log: %w", err)
	}
	return nil
}

// Record validates and appends one feedback record.
func (s *JSONLStore) Record(ctx context.Context, req RecordRequest) (models.FeedbackRecord, error) {
	rec, err := buildRecord(req)
	if err != nil {
		return models.FeedbackRecord{}, err
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return models.FeedbackRecord{}, fmt.Errorf("encoding feedback record: %w", err)
	}
	data = append(data, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return models.FeedbackRecord{}, fmt.Errorf("opening feedback log: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return models.FeedbackRecord{}, fmt.Errorf("appending feedback record: %w", err)
	}
	if err := f.Close(); err != nil {
		return models.FeedbackRecord{}, fmt.Errorf("closing feedback log: %w", err)
	}

	s.records = append(s.records, rec)
	return rec, nil
}

// All returns every record in insertion (append) order.
func (s *JSONLStore) All(ctx context.Context) ([]models.FeedbackRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.FeedbackRecord, len(s.records))
	copy(out, s.records)
	return out, nil
}

// HistoryFor returns the records for rawField, ordered by timestamp ascending.
func (s *JSONLStore) HistoryFor(ctx context.Context, rawField string) ([]models.FeedbackRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return historyFor(s.records, rawField), nil
}

// Statistics summarizes the feedback history.
func (s *JSONLStore) Statistics(ctx context.Context) (Statistics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return computeStatistics(s.records), nil
}

// Len returns the number of records currently loaded.
func (s *JSONLStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Path returns the backing file path.
func (s *JSONLStore) Path() string { return s.path }

// Close is a no-op: the file handle is not held between appends.
func (s *JSONLStore) Close() error { return nil }
