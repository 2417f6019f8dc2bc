package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestValidFeedbackType(t *testing.T) {
	tests := []struct {
		ft   FeedbackType
		want bool
	}{
		{FeedbackApproved, true},
		{FeedbackCorrected, true},
		{FeedbackRejected, true},
		{"", false},
		{"APPROVED", false},
		{"maybe", false},
	}

	for _, tt := range tests {
		if got := ValidFeedbackType(tt.ft); got != tt.want {
			t.Errorf("ValidFeedbackType(%q) = %v, want %v", tt.ft, got, tt.want)
		}
	}
}

func TestFeedbackRecordValidate(t *testing.T) {
	tests := []struct {
		name    string
		rec     FeedbackRecord
		wantErr bool
	}{
		{
			name: "valid approved",
			rec: FeedbackRecord{
				RawField:       "hr_watch_01",
				SuggestedMatch: "Heart Rate (bpm)",
				FeedbackType:   FeedbackApproved,
			},
		},
		{
			name: "valid corrected",
			rec: FeedbackRecord{
				RawField:        "temp_deg_c",
				SuggestedMatch:  "Engine Temperature (°C)",
				HumanCorrection: "Brake Temperature (Celsius)",
				FeedbackType:    FeedbackCorrected,
			},
		},
		{
			name: "valid rejected with no suggestion",
			rec: FeedbackRecord{
				RawField:     "mystery_col_7",
				FeedbackType: FeedbackRejected,
			},
		},
		{
			name: "unknown feedback type",
			rec: FeedbackRecord{
				RawField:     "hr",
				FeedbackType: "shrug",
			},
			wantErr: true,
		},
		{
			name: "missing raw field",
			rec: FeedbackRecord{
				FeedbackType: FeedbackApproved,
			},
			wantErr: true,
		},
		{
			name: "corrected without correction",
			rec: FeedbackRecord{
				RawField:     "temp_deg_c",
				FeedbackType: FeedbackCorrected,
			},
			wantErr: true,
		},
		{
			name: "approved carrying a correction",
			rec: FeedbackRecord{
				RawField:        "temp_deg_c",
				HumanCorrection: "Brake Temperature (Celsius)",
				FeedbackType:    FeedbackApproved,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rec.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCanonicalVote(t *testing.T) {
	tests := []struct {
		name     string
		rec      FeedbackRecord
		want     string
		wantVote bool
	}{
		{
			name: "approved votes for the suggestion",
			rec: FeedbackRecord{
				SuggestedMatch: "Heart Rate (bpm)",
				FeedbackType:   FeedbackApproved,
			},
			want:     "Heart Rate (bpm)",
			wantVote: true,
		},
		{
			name: "corrected votes for the correction",
			rec: FeedbackRecord{
				SuggestedMatch:  "Engine Temperature (°C)",
				HumanCorrection: "Brake Temperature (Celsius)",
				FeedbackType:    FeedbackCorrected,
			},
			want:     "Brake Temperature (Celsius)",
			wantVote: true,
		},
		{
			name: "rejected never votes",
			rec: FeedbackRecord{
				SuggestedMatch: "Speed (km/h)",
				FeedbackType:   FeedbackRejected,
			},
			wantVote: false,
		},
		{
			name: "approved with empty suggestion has no vote",
			rec: FeedbackRecord{
				FeedbackType: FeedbackApproved,
			},
			wantVote: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.rec.CanonicalVote()
			if ok != tt.wantVote {
				t.Fatalf("CanonicalVote() ok = %v, want %v", ok, tt.wantVote)
			}
			if ok && got != tt.want {
				t.Errorf("CanonicalVote() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFeedbackRecordJSONRoundTrip(t *testing.T) {
	rec := FeedbackRecord{
		Timestamp:       time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
		RawField:        "temp_deg_c",
		SuggestedMatch:  "Engine Temperature (°C)",
		HumanCorrection: "Brake Temperature (Celsius)",
		FeedbackType:    FeedbackCorrected,
		ConfidenceScore: 0.45,
		SourceName:      "vehicle_can_bus",
		SessionID:       "session-20260314-092653",
		IsCorrection:    true,
	}

	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var got FeedbackRecord
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if !got.Timestamp.Equal(rec.Timestamp) {
		t.Errorf("Timestamp = %v, want %v", got.Timestamp, rec.Timestamp)
	}
	got.Timestamp = rec.Timestamp
	if got != rec {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, rec)
	}
}
