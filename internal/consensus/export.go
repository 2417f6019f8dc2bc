package consensus

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// WriteMappings exports a raw→canonical table as a flat JSON object. This is
// the startup input for the resolver's learned-mapping tier, so the format
// stays a plain key-value document with no envelope.
func WriteMappings(path string, table map[string]string) error {
	if table == nil {
		table = map[string]string{}
	}
	data, err := json.MarshalIndent(table, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding learned mappings: %w", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating export directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing learned mappings: %w", err)
	}
	return nil
}

// ReadMappings loads a raw→canonical table previously written by
// WriteMappings (or any flat JSON object of strings).
func ReadMappings(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading learned mappings: %w", err)
	}

	table := make(map[string]string)
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("parsing learned mappings: %w", err)
	}
	return table, nil
}
