package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"go.yaml.in/yaml/v3"
)

// DetectFormat picks the encoding from the file extension. Unknown
// extensions are read as YAML, which also accepts JSON.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".toml":
		return FormatTOML
	default:
		return FormatYAML
	}
}

// ParseFile reads, validates and decodes the manifest at path.
func ParseFile(path string) (*Manifest, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	m, err := Parse(data, DetectFormat(path))
	if err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	m.Path = path
	return m, nil
}

// Parse validates data against the manifest schema and decodes the entries.
// A shape violation is reported as an error wrapping ErrShape.
func Parse(data []byte, format Format) (*Manifest, error) {
	raw, err := decodeRaw(data, format)
	if err != nil {
		return nil, err
	}

	result, err := validateRaw(raw)
	if err != nil {
		return nil, err
	}
	if !result.Valid {
		if result.Hint != "" {
			return nil, fmt.Errorf("%w: %s (%s)", ErrShape, result.Summary(), result.Hint)
		}
		return nil, fmt.Errorf("%w: %s", ErrShape, result.Summary())
	}

	// Round-trip the validated instance through JSON so every format lands
	// on the same struct tags.
	jsonData, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("converting to JSON: %w", err)
	}
	var entries []Entry
	if err := json.Unmarshal(jsonData, &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrShape, err)
	}

	return &Manifest{Format: format, Entries: entries}, nil
}

// decodeRaw decodes data into generic JSON-compatible values.
func decodeRaw(data []byte, format Format) (interface{}, error) {
	switch format {
	case FormatJSON:
		var raw interface{}
		dec := json.NewDecoder(bytes.NewReader(data))
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("%w: parsing JSON: %v", ErrShape, err)
		}
		return raw, nil
	case FormatTOML:
		var table map[string]interface{}
		if _, err := toml.Decode(string(data), &table); err != nil {
			return nil, fmt.Errorf("%w: parsing TOML: %v", ErrShape, err)
		}
		list, ok := table[tomlTable]
		if !ok {
			return nil, fmt.Errorf("%w: no [[%s]] tables", ErrShape, tomlTable)
		}
		return normalize(list), nil
	default:
		var raw interface{}
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("%w: parsing YAML: %v", ErrShape, err)
		}
		return normalize(raw), nil
	}
}

// readFile reads the contents of a file at the given path.
func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", path, err)
	}
	return data, nil
}
