package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed schemas/recipeneat-config-v1.0.0.json
var configSchemaV1 []byte

// CurrentSchemaVersion is the schema version config files are validated
// against when they do not name one.
const CurrentSchemaVersion = "1.0.0"

// SchemaVersion represents a configuration schema version
type SchemaVersion struct {
	Major int
	Minor int
	Patch int
}

// String returns the string representation of the version
func (v SchemaVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// ParseSchemaVersion parses a version string into SchemaVersion
func ParseSchemaVersion(version string) (SchemaVersion, error) {
	version = strings.TrimPrefix(version, "v")
	parts := strings.Split(version, ".")
	if len(parts) != 3 {
		return SchemaVersion{}, fmt.Errorf("invalid version format: %s", version)
	}

	var v SchemaVersion
	_, err := fmt.Sscanf(version, "%d.%d.%d", &v.Major, &v.Minor, &v.Patch)
	if err != nil {
		return SchemaVersion{}, fmt.Errorf("failed to parse version: %v", err)
	}

	return v, nil
}

// ValidateConfig validates YAML or JSON configuration against the schema of
// the given version. An empty document is valid.
func ValidateConfig(configData []byte, schemaVersion string) error {
	schemaLoader, err := getSchemaLoader(schemaVersion)
	if err != nil {
		return fmt.Errorf("failed to load schema for version %s: %v", schemaVersion, err)
	}

	doc, err := decodeDocument(configData)
	if err != nil {
		return err
	}
	if doc == nil {
		return nil
	}

	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("schema validation error: %v", err)
	}

	if !result.Valid() {
		var errors []string
		for _, desc := range result.Errors() {
			errors = append(errors, desc.String())
		}
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(errors, "\n"))
	}

	return nil
}

// getSchemaLoader returns the appropriate schema loader for the given version
func getSchemaLoader(version string) (gojsonschema.JSONLoader, error) {
	v, err := ParseSchemaVersion(version)
	if err != nil {
		return nil, err
	}
	switch v {
	case SchemaVersion{1, 0, 0}:
		return gojsonschema.NewBytesLoader(configSchemaV1), nil
	default:
		return nil, fmt.Errorf("unsupported schema version: %s", version)
	}
}

// DetectSchemaVersion reads the version from the document's $schema field,
// defaulting to CurrentSchemaVersion.
func DetectSchemaVersion(configData []byte) (string, error) {
	doc, err := decodeDocument(configData)
	if err != nil {
		return "", err
	}
	m, _ := doc.(map[string]interface{})
	schema, ok := m["$schema"]
	if !ok {
		return CurrentSchemaVersion, nil
	}
	schemaStr, ok := schema.(string)
	if !ok {
		return "", fmt.Errorf("$schema must be a string")
	}
	idx := strings.LastIndex(schemaStr, "/v")
	if idx < 0 {
		return CurrentSchemaVersion, nil
	}
	v, err := ParseSchemaVersion(schemaStr[idx+1:])
	if err != nil {
		return "", fmt.Errorf("invalid $schema %q: %v", schemaStr, err)
	}
	return v.String(), nil
}

// decodeDocument parses YAML (a superset of JSON) into plain values that
// gojsonschema understands.
func decodeDocument(data []byte) (interface{}, error) {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse config: %v", err)
	}
	if doc == nil {
		return nil, nil
	}
	// Round-trip through JSON so integers and nested maps have JSON types.
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %v", err)
	}
	var out interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to parse config: %v", err)
	}
	return out, nil
}
