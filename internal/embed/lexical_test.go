package embed

import (
	"context"
	"testing"

	"github.com/tclarke/fieldloop/internal/vecmath"
)

func TestLexicalEmbedderDeterministic(t *testing.T) {
	e := NewLexicalEmbedder(0)
	ctx := context.Background()

	a, err := e.Embed(ctx, "hr_watch_01")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	b, err := e.Embed(ctx, "hr_watch_01")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}

	if len(a) != DefaultLexicalDims {
		t.Errorf("vector length = %d, want %d", len(a), DefaultLexicalDims)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("embedding not deterministic at dim %d: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestLexicalEmbedderNormalization(t *testing.T) {
	// Case and punctuation differences collapse to the same trigrams.
	e := NewLexicalEmbedder(0)
	ctx := context.Background()

	tests := []struct {
		a, b string
	}{
		{"Heart_Rate(bpm)", "heart rate bpm"},
		{"SPEED-KM-H", "speed km h"},
		{"throttle%position", "Throttle Position"},
	}

	for _, tt := range tests {
		va, err := e.Embed(ctx, tt.a)
		if err != nil {
			t.Fatalf("Embed(%q) failed: %v", tt.a, err)
		}
		vb, err := e.Embed(ctx, tt.b)
		if err != nil {
			t.Fatalf("Embed(%q) failed: %v", tt.b, err)
		}
		if sim := vecmath.CosineSimilarity(va, vb); sim < 0.999 {
			t.Errorf("similarity(%q, %q) = %v, want ~1.0", tt.a, tt.b, sim)
		}
	}
}

func TestLexicalEmbedderRanksSurfaceForms(t *testing.T) {
	e := NewLexicalEmbedder(0)
	ctx := context.Background()

	query, err := e.Embed(ctx, "hr_watch_02")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	near, err := e.Embed(ctx, "hr_watch_01")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	far, err := e.Embed(ctx, "Engine Temperature (°C)")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}

	simNear := vecmath.CosineSimilarity(query, near)
	simFar := vecmath.CosineSimilarity(query, far)
	if simNear <= simFar {
		t.Errorf("expected hr_watch_01 (%v) to outscore Engine Temperature (%v)", simNear, simFar)
	}
}

func TestLexicalEmbedderEmptyInput(t *testing.T) {
	e := NewLexicalEmbedder(16)
	vec, err := e.Embed(context.Background(), "")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if len(vec) != 16 {
		t.Fatalf("vector length = %d, want 16", len(vec))
	}
	for i, v := range vec {
		if v != 0 {
			t.Errorf("dim %d = %v, want 0 for empty input", i, v)
		}
	}
}

func TestLexicalEmbedderCancelledContext(t *testing.T) {
	e := NewLexicalEmbedder(0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := e.Embed(ctx, "hr"); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestNormalizeField(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Heart Rate (bpm)", "heart rate bpm"},
		{"hr_watch_01", "hr watch 01"},
		{"__leading__and__trailing__", "leading and trailing"},
		{"", ""},
		{"(!!)", ""},
	}

	for _, tt := range tests {
		if got := normalizeField(tt.in); got != tt.want {
			t.Errorf("normalizeField(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEmbedAll(t *testing.T) {
	e := NewLexicalEmbedder(32)
	vecs, err := EmbedAll(context.Background(), e, []string{"a field", "another field"})
	if err != nil {
		t.Fatalf("EmbedAll failed: %v", err)
	}
	if len(vecs) != 2 {
		t.Fatalf("got %d vectors, want 2", len(vecs))
	}
	for i, v := range vecs {
		if len(v) != 32 {
			t.Errorf("vector %d length = %d, want 32", i, len(v))
		}
	}
}
