package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/tclarke/fieldloop/internal/config"
)

func initProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	dir := config.Dir(root)
	if err := config.Save(dir, config.Default()); err != nil {
		t.Fatalf("saving config: %v", err)
	}
	schema := []string{
		"Heart Rate (bpm)",
		"Engine Temperature (°C)",
		"Speed (km/h)",
	}
	if err := config.SaveSchema(dir, schema); err != nil {
		t.Fatalf("saving schema: %v", err)
	}
	return root
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	server, err := NewServer(&Config{
		Name:    "test-server",
		Version: "v0.0.1",
		Root:    initProject(t),
	})
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	t.Cleanup(func() { server.Close() })
	return server
}

func TestNewServer(t *testing.T) {
	server := newTestServer(t)

	if server.server == nil {
		t.Error("Server.server is nil")
	}
	if server.app == nil {
		t.Error("Server.app is nil")
	}
}

func TestNewServerRequiresInitializedProject(t *testing.T) {
	_, err := NewServer(&Config{
		Name:    "test-server",
		Version: "v0.0.1",
		Root:    t.TempDir(), // no .fieldloop directory
	})
	if err == nil {
		t.Error("expected error for uninitialized project root")
	}
}

func TestClose(t *testing.T) {
	server, err := NewServer(&Config{
		Name:    "test-server",
		Version: "v0.0.1",
		Root:    initProject(t),
	})
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}

	if err := server.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	// Multiple closes must be safe.
	if err := server.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestHandleResolve(t *testing.T) {
	server := newTestServer(t)
	ctx := context.Background()

	result, _, err := server.handleResolve(ctx, nil, resolveArgs{Field: "heart rate bpm"})
	if err != nil {
		t.Fatalf("handleResolve failed: %v", err)
	}
	if len(result.Content) == 0 {
		t.Fatal("empty tool result")
	}

	// The resolve tool requires a field name.
	if _, _, err := server.handleResolve(ctx, nil, resolveArgs{}); err == nil {
		t.Error("expected error for empty field")
	}
}

func TestHandleRecordAndStats(t *testing.T) {
	server := newTestServer(t)
	ctx := context.Background()

	_, _, err := server.handleRecord(ctx, nil, recordArgs{
		RawField:        "hr_watch_01",
		SuggestedMatch:  "Heart Rate (bpm)",
		FeedbackType:    "approved",
		ConfidenceScore: 0.78,
	})
	if err != nil {
		t.Fatalf("handleRecord failed: %v", err)
	}

	// Malformed judgments are rejected.
	_, _, err = server.handleRecord(ctx, nil, recordArgs{
		RawField:     "temp_deg_c",
		FeedbackType: "corrected", // missing human_correction
	})
	if err == nil {
		t.Error("expected validation error")
	}

	result, raw, err := server.handleStats(ctx, nil, statsArgs{})
	if err != nil {
		t.Fatalf("handleStats failed: %v", err)
	}
	if len(result.Content) == 0 {
		t.Fatal("empty stats result")
	}

	data, err := json.Marshal(raw)
	if err != nil {
		t.Fatalf("stats payload not marshalable: %v", err)
	}
	var stats struct {
		TotalRecords int `json:"total_records"`
	}
	if err := json.Unmarshal(data, &stats); err != nil {
		t.Fatalf("stats payload shape: %v", err)
	}
	if stats.TotalRecords != 1 {
		t.Errorf("total_records = %d, want 1", stats.TotalRecords)
	}
}
