package datastore

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed schemas/snapshot-v1.schema.json
var snapshotSchema []byte

// Snapshot is a parsed recipe environment saved to disk: variable values and
// the history of the variables an edit may touch.
type Snapshot struct {
	Recipe    string                    `json:"recipe,omitempty"`
	Variables map[string]string         `json:"variables,omitempty"`
	History   map[string][]HistoryEvent `json:"history,omitempty"`
}

// Store returns a fresh variable store seeded from the snapshot.
func (s *Snapshot) Store() Store {
	return NewMapStore(s.Variables)
}

// HistoryService returns the snapshot's history as a HistoryService.
func (s *Snapshot) HistoryService() HistoryService {
	return StaticHistory(s.History)
}

// LoadSnapshot reads a snapshot from path. The format follows the extension:
// .yaml, .yml and .json are decoded as YAML, .toml as TOML.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- snapshot path chosen by the caller
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", path, err)
	}
	var format string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		format = "toml"
	case ".yaml", ".yml", ".json":
		format = "yaml"
	default:
		return nil, fmt.Errorf("%w: %s: unknown snapshot format", ErrInvalidSnapshot, path)
	}
	snap, err := ParseSnapshot(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return snap, nil
}

// ParseSnapshot decodes and validates snapshot data. format is "yaml" (which
// also accepts JSON) or "toml".
func ParseSnapshot(data []byte, format string) (*Snapshot, error) {
	var doc any
	switch format {
	case "toml":
		if err := toml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
		}
	case "yaml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
		}
	default:
		return nil, fmt.Errorf("%w: unknown format %q", ErrInvalidSnapshot, format)
	}
	if doc == nil {
		doc = map[string]any{}
	}

	docJSON, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}
	if err := validateSnapshot(docJSON); err != nil {
		return nil, err
	}

	var snap Snapshot
	if err := json.Unmarshal(docJSON, &snap); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}
	if snap.Variables == nil {
		snap.Variables = map[string]string{}
	}
	return &snap, nil
}

func validateSnapshot(docJSON []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(snapshotSchema),
		gojsonschema.NewBytesLoader(docJSON),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, verr := range result.Errors() {
		field := verr.Field()
		if field == "" {
			field = "root"
		}
		msgs = append(msgs, field+": "+verr.Description())
	}
	return fmt.Errorf("%w: %s", ErrInvalidSnapshot, strings.Join(msgs, "; "))
}
