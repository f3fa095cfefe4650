// Package branding provides compile-time identity values for the CLI.
//
// Forks edit branding.yaml in this directory; Go's //go:embed bakes it into
// the binary so the command name, env prefix and user agent follow along.
package branding

import (
	_ "embed"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"
)

//go:embed branding.yaml
var rawBranding []byte

var (
	once     sync.Once
	defaults brand
)

type brand struct {
	CLIName      string `yaml:"cli_name"`
	DisplayName  string `yaml:"display_name"`
	Description  string `yaml:"description"`
	EnvPrefix    string `yaml:"env_prefix"`
	UserAgent    string `yaml:"user_agent"`
	SettingsName string `yaml:"settings_name"`
	LogTag       string `yaml:"log_tag"`
}

func load() {
	once.Do(func() {
		// Hard defaults in case the embedded file is missing or empty.
		defaults = brand{
			CLIName:      "scriptmirror",
			DisplayName:  "ScriptMirror",
			Description:  "Mirror remote scripts into a git repository",
			EnvPrefix:    "SCRIPTMIRROR",
			UserAgent:    "scriptmirror",
			SettingsName: "scriptmirror",
			LogTag:       "GIST-BACKUP",
		}
		_ = yaml.Unmarshal(rawBranding, &defaults)
	})
}

// CLIName returns the root command name (e.g., "scriptmirror").
func CLIName() string { load(); return defaults.CLIName }

// DisplayName returns the human-readable product name.
func DisplayName() string { load(); return defaults.DisplayName }

// Description returns the short product description.
func Description() string { load(); return defaults.Description }

// EnvPrefix returns the environment variable prefix (e.g., "SCRIPTMIRROR").
func EnvPrefix() string { load(); return defaults.EnvPrefix }

// UserAgent returns the User-Agent sent with every fetch.
func UserAgent() string { load(); return defaults.UserAgent }

// SettingsName returns the settings file base name, without extension.
func SettingsName() string { load(); return defaults.SettingsName }

// LogTag returns the component tag attached to every log line.
func LogTag() string { load(); return defaults.LogTag }

// EnvVar returns a fully qualified env var name, e.g., EnvVar("clean_mode") → "SCRIPTMIRROR_CLEAN_MODE".
func EnvVar(suffix string) string {
	load()
	return defaults.EnvPrefix + "_" + strings.ToUpper(suffix)
}
