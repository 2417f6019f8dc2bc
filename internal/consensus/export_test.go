package consensus

import (
	"path/filepath"
	"testing"
)

func TestWriteReadMappings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mappings.json")

	want := map[string]string{
		"temp_deg_c":  "Brake Temperature (Celsius)",
		"hr_watch_01": "Heart Rate (bpm)",
	}
	if err := WriteMappings(path, want); err != nil {
		t.Fatalf("WriteMappings failed: %v", err)
	}

	got, err := ReadMappings(path)
	if err != nil {
		t.Fatalf("ReadMappings failed: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for raw, canonical := range want {
		if got[raw] != canonical {
			t.Errorf("got[%q] = %q, want %q", raw, got[raw], canonical)
		}
	}
}

func TestReadMappingsMissingFile(t *testing.T) {
	got, err := ReadMappings(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("ReadMappings failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %v, want empty table", got)
	}
}

func TestWriteMappingsNilTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mappings.json")
	if err := WriteMappings(path, nil); err != nil {
		t.Fatalf("WriteMappings failed: %v", err)
	}
	got, err := ReadMappings(path)
	if err != nil {
		t.Fatalf("ReadMappings failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %v, want empty table", got)
	}
}
