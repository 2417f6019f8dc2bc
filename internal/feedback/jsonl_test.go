package feedback

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/tclarke/fieldloop/internal/models"
)

func TestJSONLRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feedback.jsonl")
	ctx := context.Background()

	s, err := OpenJSONL(path)
	if err != nil {
		t.Fatalf("OpenJSONL failed: %v", err)
	}

	mustRecord(t, s, RecordRequest{
		RawField:        "hr_watch_01",
		SuggestedMatch:  "Heart Rate (bpm)",
		FeedbackType:    models.FeedbackApproved,
		ConfidenceScore: 0.78,
		SourceName:      "wearable_feed",
	})
	mustRecord(t, s, RecordRequest{
		RawField:        "temp_deg_c",
		SuggestedMatch:  "Engine Temperature (°C)",
		HumanCorrection: "Brake Temperature (Celsius)",
		FeedbackType:    models.FeedbackCorrected,
		ConfidenceScore: 0.45,
	})
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// Reopen and verify the records survived.
	s2, err := OpenJSONL(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s2.Close()

	all, err := s2.All(ctx)
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("got %d records after reopen, want 2", len(all))
	}
	if all[0].RawField != "hr_watch_01" || all[1].RawField != "temp_deg_c" {
		t.Errorf("append order not preserved: %q, %q", all[0].RawField, all[1].RawField)
	}
	if all[1].HumanCorrection != "Brake Temperature (Celsius)" {
		t.Errorf("HumanCorrection = %q, want Brake Temperature (Celsius)", all[1].HumanCorrection)
	}
}

func TestJSONLAppendAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feedback.jsonl")

	for i := 0; i < 3; i++ {
		s, err := OpenJSONL(path)
		if err != nil {
			t.Fatalf("open %d failed: %v", i, err)
		}
		mustRecord(t, s, RecordRequest{
			RawField:     "hr_watch_01",
			FeedbackType: models.FeedbackRejected,
		})
		s.Close()
	}

	s, err := OpenJSONL(path)
	if err != nil {
		t.Fatalf("final open failed: %v", err)
	}
	defer s.Close()
	if s.Len() != 3 {
		t.Errorf("Len() = %d, want 3", s.Len())
	}
}

func TestJSONLSkipsUnparseableLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feedback.jsonl")

	content := `{"raw_field":"hr_watch_01","feedback_type":"approved","suggested_match":"Heart Rate (bpm)","timestamp":"2026-05-01T12:00:00Z"}
this line is not JSON
{"raw_field":"temp_deg_c","feedback_type":"rejected","timestamp":"2026-05-01T13:00:00Z"}
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture failed: %v", err)
	}

	s, err := OpenJSONL(path)
	if err != nil {
		t.Fatalf("OpenJSONL failed: %v", err)
	}
	defer s.Close()

	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2 (garbage line skipped)", s.Len())
	}
}

func TestJSONLForwardCompatibleFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feedback.jsonl")

	// A record written by a future version with extra fields still loads.
	content := `{"raw_field":"hr_watch_01","feedback_type":"approved","suggested_match":"Heart Rate (bpm)","reviewer_notes":"looks right","schema_rev":4}
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture failed: %v", err)
	}

	s, err := OpenJSONL(path)
	if err != nil {
		t.Fatalf("OpenJSONL failed: %v", err)
	}
	defer s.Close()

	all, err := s.All(context.Background())
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	if len(all) != 1 || all[0].SuggestedMatch != "Heart Rate (bpm)" {
		t.Errorf("unexpected records: %+v", all)
	}
}

func TestJSONLCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state", "feedback.jsonl")

	s, err := OpenJSONL(path)
	if err != nil {
		t.Fatalf("OpenJSONL failed: %v", err)
	}
	defer s.Close()

	mustRecord(t, s, RecordRequest{
		RawField:     "hr_watch_01",
		FeedbackType: models.FeedbackRejected,
	})
	if _, err := os.Stat(path); err != nil {
		t.Errorf("log file not created: %v", err)
	}
}
