package app

import (
	"context"
	"testing"

	"github.com/tclarke/fieldloop/internal/config"
	"github.com/tclarke/fieldloop/internal/embed"
	"github.com/tclarke/fieldloop/internal/feedback"
	"github.com/tclarke/fieldloop/internal/models"
)

func initProject(t *testing.T, cfg config.Config) string {
	t.Helper()
	root := t.TempDir()
	dir := config.Dir(root)
	if err := config.Save(dir, cfg); err != nil {
		t.Fatalf("saving config: %v", err)
	}
	if err := config.SaveSchema(dir, []string{
		"Heart Rate (bpm)",
		"Engine Temperature (°C)",
		"Speed (km/h)",
	}); err != nil {
		t.Fatalf("saving schema: %v", err)
	}
	return root
}

func TestOpenRequiresInit(t *testing.T) {
	if _, err := Open(t.TempDir()); err == nil {
		t.Error("expected error for uninitialized root")
	}
}

func TestOpenDefaultsToJSONL(t *testing.T) {
	a, err := Open(initProject(t, config.Default()))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer a.Close()

	if _, ok := a.Store.(*feedback.JSONLStore); !ok {
		t.Errorf("Store is %T, want *feedback.JSONLStore", a.Store)
	}
}

func TestOpenSQLiteBackend(t *testing.T) {
	cfg := config.Default()
	cfg.Store = config.StoreSQLite

	a, err := Open(initProject(t, cfg))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer a.Close()

	if _, ok := a.Store.(*feedback.SQLiteStore); !ok {
		t.Errorf("Store is %T, want *feedback.SQLiteStore", a.Store)
	}
}

func TestEmbedderDefaultsToLexical(t *testing.T) {
	a, err := Open(initProject(t, config.Default()))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer a.Close()

	if _, ok := a.Embedder().(*embed.LexicalEmbedder); !ok {
		t.Errorf("Embedder is %T, want *embed.LexicalEmbedder", a.Embedder())
	}
	// Repeated calls reuse the same backend.
	if a.Embedder() != a.Embedder() {
		t.Error("Embedder() not cached")
	}
}

func TestNewResolverLearnsFromFeedback(t *testing.T) {
	a, err := Open(initProject(t, config.Default()))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer a.Close()
	ctx := context.Background()

	// A corrected record teaches the resolver an exact mapping.
	if _, err := a.Store.Record(ctx, feedback.RecordRequest{
		RawField:        "temp_deg_c",
		SuggestedMatch:  "Engine Temperature (°C)",
		HumanCorrection: "Speed (km/h)",
		FeedbackType:    models.FeedbackCorrected,
		ConfidenceScore: 0.45,
	}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	r, err := a.NewResolver(ctx)
	if err != nil {
		t.Fatalf("NewResolver failed: %v", err)
	}

	res, err := r.Resolve(ctx, "temp_deg_c")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.Method != models.MethodLearnedExact {
		t.Errorf("Method = %q, want %q", res.Method, models.MethodLearnedExact)
	}
	if res.CanonicalField != "Speed (km/h)" {
		t.Errorf("CanonicalField = %q, want the learned Speed (km/h)", res.CanonicalField)
	}
}

func TestConsensusOptionsFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Thresholds.Agreement = 0.9
	cfg.Thresholds.MinSupport = 3

	a, err := Open(initProject(t, cfg))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer a.Close()

	opts := a.ConsensusOptions()
	if opts.MinAgreement != 0.9 || opts.MinSupport != 3 {
		t.Errorf("ConsensusOptions() = %+v, want 0.9 and 3", opts)
	}
}
