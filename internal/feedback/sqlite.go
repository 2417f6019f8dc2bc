package feedback

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tclarke/fieldloop/internal/models"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists feedback records in a SQLite database via the pure-Go
// modernc.org/sqlite driver. It implements the same append-only contract as
// JSONLStore; the rowid preserves insertion order and rows are never updated
// or deleted.
type SQLiteStore struct {
	db *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS feedback (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp        TEXT    NOT NULL,
	raw_field        TEXT    NOT NULL,
	suggested_match  TEXT    NOT NULL DEFAULT '',
	human_correction TEXT    NOT NULL DEFAULT '',
	feedback_type    TEXT    NOT NULL,
	confidence_score REAL    NOT NULL,
	source_name      TEXT    NOT NULL DEFAULT '',
	session_id       TEXT    NOT NULL DEFAULT '',
	is_correction    INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_feedback_raw_field ON feedback(raw_field);
`

// OpenSQLite opens (creating if needed) a SQLite feedback store at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating feedback directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening feedback database: %w", err)
	}

	// Serialized access keeps concurrent Record calls safe with this driver.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing feedback schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Record validates and inserts one feedback record.
func (s *SQLiteStore) Record(ctx context.Context, req RecordRequest) (models.FeedbackRecord, error) {
	rec, err := buildRecord(req)
	if err != nil {
		return models.FeedbackRecord{}, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO feedback
			(timestamp, raw_field, suggested_match, human_correction,
			 feedback_type, confidence_score, source_name, session_id, is_correction)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Timestamp.Format(time.RFC3339Nano),
		rec.RawField,
		rec.SuggestedMatch,
		rec.HumanCorrection,
		string(rec.FeedbackType),
		rec.ConfidenceScore,
		rec.SourceName,
		rec.SessionID,
		boolToInt(rec.IsCorrection),
	)
	if err != nil {
		return models.FeedbackRecord{}, fmt.Errorf("inserting feedback record: %w", err)
	}
	return rec, nil
}

// All returns every record in insertion order.
func (s *SQLiteStore) All(ctx context.Context) ([]models.FeedbackRecord, error) {
	return s.query(ctx, `SELECT timestamp, raw_field, suggested_match, human_correction,
		feedback_type, confidence_score, source_name, session_id, is_correction
		FROM feedback ORDER BY id`)
}

// HistoryFor returns the records for rawField, ordered by timestamp ascending.
func (s *SQLiteStore) HistoryFor(ctx context.Context, rawField string) ([]models.FeedbackRecord, error) {
	return s.query(ctx, `SELECT timestamp, raw_field, suggested_match, human_correction,
		feedback_type, confidence_score, source_name, session_id, is_correction
		FROM feedback WHERE raw_field = ? ORDER BY timestamp, id`, rawField)
}

// Statistics summarizes the feedback history.
func (s *SQLiteStore) Statistics(ctx context.Context) (Statistics, error) {
	records, err := s.All(ctx)
	if err != nil {
		return Statistics{}, err
	}
	return computeStatistics(records), nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) query(ctx context.Context, q string, args ...any) ([]models.FeedbackRecord, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying feedback: %w", err)
	}
	defer rows.Close()

	var out []models.FeedbackRecord
	for rows.Next() {
		var (
			rec          models.FeedbackRecord
			ts           string
			feedbackType string
			isCorrection int
		)
		if err := rows.Scan(&ts, &rec.RawField, &rec.SuggestedMatch, &rec.HumanCorrection,
			&feedbackType, &rec.ConfidenceScore, &rec.SourceName, &rec.SessionID, &isCorrection); err != nil {
			return nil, fmt.Errorf("scanning feedback row: %w", err)
		}
		parsed, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("parsing feedback timestamp %q: %w", ts, err)
		}
		rec.Timestamp = parsed
		rec.FeedbackType = models.FeedbackType(feedbackType)
		rec.IsCorrection = isCorrection != 0
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating feedback rows: %w", err)
	}
	return out, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
