// Package config defines the on-disk layout and settings of a fieldloop
// project. State lives in a .fieldloop directory at the project root;
// storage locations and thresholds are explicit configuration, not constants
// baked into the components, so tests can point everything at temp dirs.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DirName is the per-project state directory.
const DirName = ".fieldloop"

// File names inside the state directory.
const (
	configFile   = "config.yaml"
	schemaFile   = "schema.yaml"
	feedbackFile = "feedback.jsonl"
	databaseFile = "feedback.db"
	queueFile    = "pending.jsonl"
	mappingsFile = "mappings.json"
	planFile     = "retraining_plan.json"
)

// Storage backends for the feedback log.
const (
	StoreJSONL  = "jsonl"
	StoreSQLite = "sqlite"
)

// Thresholds groups the resolver and consensus tuning knobs.
type Thresholds struct {
	// Confidence is the embedding-fallback floor (default 0.45).
	Confidence float64 `yaml:"confidence"`

	// Fuzzy is the learned-fuzzy tier floor (default 0.7).
	Fuzzy float64 `yaml:"fuzzy"`

	// Agreement is the consensus ratio for learned mappings (default 0.8).
	Agreement float64 `yaml:"agreement"`

	// MinSupport is the minimum vote count behind a learned mapping
	// (default 1; single-sample consensus is allowed by design).
	MinSupport int `yaml:"min_support"`
}

// Retraining groups the analyzer knobs.
type Retraining struct {
	// MinRecords is the operational floor for statistical analysis
	// (default 5).
	MinRecords int `yaml:"min_records"`

	// CoverageFloor is the minimum coverage a recommended threshold must
	// retain (default 0.5).
	CoverageFloor float64 `yaml:"coverage_floor"`
}

// Embedding selects and configures the embedding backend.
type Embedding struct {
	// ModelPath points at a GGUF embedding model. Only used by binaries
	// built with the llamacpp tag; empty means the lexical backend.
	ModelPath string `yaml:"model_path,omitempty"`
}

// Config is the persisted project configuration.
type Config struct {
	Version    string     `yaml:"version"`
	Store      string     `yaml:"store"`
	Thresholds Thresholds `yaml:"thresholds"`
	Retraining Retraining `yaml:"retraining"`
	Embedding  Embedding  `yaml:"embedding"`
}

// Default returns the configuration written by `fieldloop init`.
func Default() Config {
	return Config{
		Version: "1",
		Store:   StoreJSONL,
		Thresholds: Thresholds{
			Confidence: 0.45,
			Fuzzy:      0.7,
			Agreement:  0.8,
			MinSupport: 1,
		},
		Retraining: Retraining{
			MinRecords:    5,
			CoverageFloor: 0.5,
		},
	}
}

// Dir returns the state directory for a project root.
func Dir(root string) string {
	return filepath.Join(root, DirName)
}

// Path helpers for the files inside a state directory.
func ConfigPath(dir string) string   { return filepath.Join(dir, configFile) }
func SchemaPath(dir string) string   { return filepath.Join(dir, schemaFile) }
func FeedbackPath(dir string) string { return filepath.Join(dir, feedbackFile) }
func DatabasePath(dir string) string { return filepath.Join(dir, databaseFile) }
func QueuePath(dir string) string    { return filepath.Join(dir, queueFile) }
func MappingsPath(dir string) string { return filepath.Join(dir, mappingsFile) }
func PlanPath(dir string) string     { return filepath.Join(dir, planFile) }

// Load reads the configuration from dir, filling defaults for absent fields.
func Load(dir string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(ConfigPath(dir))
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.Store == "" {
		cfg.Store = StoreJSONL
	}
	if cfg.Store != StoreJSONL && cfg.Store != StoreSQLite {
		return Config{}, fmt.Errorf("unknown store backend %q (want %q or %q)", cfg.Store, StoreJSONL, StoreSQLite)
	}
	return cfg, nil
}

// Save writes the configuration to dir.
func Save(dir string, cfg Config) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(ConfigPath(dir), data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// schemaDoc is the YAML shape of schema.yaml: an ordered list of canonical
// field names under a single key.
type schemaDoc struct {
	Fields []string `yaml:"fields"`
}

// LoadSchema reads the canonical schema from dir. The order of fields is
// preserved; fieldloop treats the vocabulary itself as opaque.
func LoadSchema(dir string) ([]string, error) {
	data, err := os.ReadFile(SchemaPath(dir))
	if err != nil {
		return nil, fmt.Errorf("reading schema: %w", err)
	}
	var doc schemaDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing schema: %w", err)
	}
	if len(doc.Fields) == 0 {
		return nil, fmt.Errorf("schema %s defines no fields", SchemaPath(dir))
	}
	return doc.Fields, nil
}

// SaveSchema writes the canonical schema to dir.
func SaveSchema(dir string, fields []string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}
	data, err := yaml.Marshal(schemaDoc{Fields: fields})
	if err != nil {
		return fmt.Errorf("encoding schema: %w", err)
	}
	if err := os.WriteFile(SchemaPath(dir), data, 0o644); err != nil {
		return fmt.Errorf("writing schema: %w", err)
	}
	return nil
}
