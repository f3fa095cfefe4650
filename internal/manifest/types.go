package manifest

import (
	"encoding/json"
	"errors"
)

// ErrShape is returned when a manifest is not a sequence of entry objects.
var ErrShape = errors.New("malformed manifest")

// Format identifies a manifest encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// Entry is one configured artifact. Fields are not validated here.
type Entry struct {
	Identity string            `json:"identity" yaml:"identity" toml:"identity"`
	Source   string            `json:"source" yaml:"source" toml:"source"`
	Headers  map[string]string `json:"headers,omitempty" yaml:"headers,omitempty" toml:"headers,omitempty"`
}

// UnmarshalJSON also accepts the name/url keys of Script-Hub style lists;
// identity and source win when both are present.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var raw struct {
		Identity string            `json:"identity"`
		Name     string            `json:"name"`
		Source   string            `json:"source"`
		URL      string            `json:"url"`
		Headers  map[string]string `json:"headers"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	e.Identity = raw.Identity
	if e.Identity == "" {
		e.Identity = raw.Name
	}
	e.Source = raw.Source
	if e.Source == "" {
		e.Source = raw.URL
	}
	e.Headers = raw.Headers
	return nil
}

// Manifest is the decoded artifact list in file order.
type Manifest struct {
	Path    string
	Format  Format
	Entries []Entry
}

// tomlTable is the array-of-tables key used by TOML manifests, which cannot
// have a bare array at the top level.
const tomlTable = "artifact"
