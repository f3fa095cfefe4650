package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/scriptmirror/scriptmirror/internal/branding"
	"github.com/scriptmirror/scriptmirror/internal/desired"
)

// ErrConfig marks configuration problems that abort a run before any
// artifact is processed.
var ErrConfig = errors.New("configuration error")

// Defaults.
const (
	DefaultManifest     = "script-hub-list.json"
	DefaultOutputRoot   = "SCRIPTS-BACKUP"
	DefaultFetchTimeout = 10 * time.Second
	DefaultLang         = "en-us"
)

// DefaultVariants writes one .js file per entry under scripts/.
var DefaultVariants = []desired.Variant{{Tag: "scripts", Suffix: ".js"}}

// DefaultServiceExcludes are the source extensions skipped in service mode
// when exclude_extensions is not configured. Conversion services only
// understand script and rule files.
var DefaultServiceExcludes = []string{".md", ".txt", ".conf", ".ini", ".yaml", ".yml"}

// Settings is the typed view of the merged configuration.
type Settings struct {
	Manifest          string            `mapstructure:"manifest"`
	OutputRoot        string            `mapstructure:"output_root"`
	CleanMode         bool              `mapstructure:"clean_mode"`
	BaseURL           string            `mapstructure:"base_url"`
	ServiceAddress    string            `mapstructure:"service_address"`
	FetchTimeout      time.Duration     `mapstructure:"fetch_timeout"`
	Variants          []desired.Variant `mapstructure:"-"`
	ExcludeExtensions []string          `mapstructure:"exclude_extensions"`
	Requires          string            `mapstructure:"requires"`
	Git               GitSettings       `mapstructure:"git"`
	Notify            NotifySettings    `mapstructure:"notify"`
}

// GitSettings controls how the ledger is committed.
type GitSettings struct {
	Enabled     bool   `mapstructure:"enabled"`
	Push        bool   `mapstructure:"push"`
	Dir         string `mapstructure:"dir"`
	Remote      string `mapstructure:"remote"`
	Branch      string `mapstructure:"branch"`
	AuthorName  string `mapstructure:"author_name"`
	AuthorEmail string `mapstructure:"author_email"`
}

// NotifySettings configures the post-run notification channels. A channel
// is enabled when its credentials are set.
type NotifySettings struct {
	Force          bool   `mapstructure:"force"`
	Lang           string `mapstructure:"lang"`
	BarkURL        string `mapstructure:"bark_url"`
	ServerChanKey  string `mapstructure:"serverchan_key"`
	WeChatWebhook  string `mapstructure:"wechat_webhook"`
	TelegramToken  string `mapstructure:"telegram_token"`
	TelegramChatID string `mapstructure:"telegram_chat"`
}

// legacyEnv maps keys to their legacy unprefixed variables.
var legacyEnv = map[string]string{
	"clean_mode":            "CLEAN_MODE",
	"base_url":              "GITHUB_RAW_BASE",
	"service_address":       "SCRIPT_HUB_API_BASE",
	"notify.force":          "FORCE_NOTIFY",
	"notify.lang":           "NOTIFY_LANG",
	"notify.bark_url":       "BARK_PUSH_URL",
	"notify.serverchan_key": "SERVERCHAN_SEND_KEY",
	"notify.wechat_webhook": "WECHAT_WEBHOOK_URL",
	"notify.telegram_token": "TG_BOT_TOKEN",
	"notify.telegram_chat":  "TG_USER_ID",
}

// New returns a viper instance with defaults and environment bindings in
// place but no settings file read yet.
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(branding.EnvPrefix())
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, legacy := range legacyEnv {
		_ = v.BindEnv(key, branding.EnvVar(strings.ReplaceAll(key, ".", "_")), legacy)
	}
	// No default, so Load can tell "unset" from an explicit empty list.
	_ = v.BindEnv("exclude_extensions", branding.EnvVar("EXCLUDE_EXTENSIONS"))
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("manifest", DefaultManifest)
	v.SetDefault("output_root", DefaultOutputRoot)
	v.SetDefault("clean_mode", false)
	v.SetDefault("base_url", "")
	v.SetDefault("service_address", "")
	v.SetDefault("fetch_timeout", DefaultFetchTimeout)
	v.SetDefault("variants", variantMaps(DefaultVariants))
	v.SetDefault("requires", "")

	v.SetDefault("git.enabled", true)
	v.SetDefault("git.push", true)
	v.SetDefault("git.dir", ".")
	v.SetDefault("git.remote", "")
	v.SetDefault("git.branch", "")
	v.SetDefault("git.author_name", "")
	v.SetDefault("git.author_email", "")

	v.SetDefault("notify.force", false)
	v.SetDefault("notify.lang", DefaultLang)
	v.SetDefault("notify.bark_url", "")
	v.SetDefault("notify.serverchan_key", "")
	v.SetDefault("notify.wechat_webhook", "")
	v.SetDefault("notify.telegram_token", "")
	v.SetDefault("notify.telegram_chat", "")
}

// ReadFile reads the settings file into v. An explicit path must exist;
// without one, <settings-name>.{yaml,json,toml,...} is looked up in the
// working directory and silently skipped when absent.
func ReadFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("%w: reading settings %s: %v", ErrConfig, path, err)
		}
		return nil
	}

	v.SetConfigName(branding.SettingsName())
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("%w: reading settings: %v", ErrConfig, err)
	}
	return nil
}

// BindFlags lets command-line flags override settings keys. Only flags the
// user actually set take effect.
func BindFlags(v *viper.Viper, flags *pflag.FlagSet, keys map[string]string) error {
	for flag, key := range keys {
		f := flags.Lookup(flag)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("binding flag --%s: %w", flag, err)
		}
	}
	return nil
}

// Load decodes v into Settings.
func Load(v *viper.Viper) (*Settings, error) {
	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("%w: decoding settings: %v", ErrConfig, err)
	}
	variants, err := parseVariants(v.Get("variants"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	s.Variants = variants
	if !v.IsSet("exclude_extensions") && s.ServiceAddress != "" {
		s.ExcludeExtensions = append([]string(nil), DefaultServiceExcludes...)
	}
	return &s, nil
}

// parseVariants accepts an ordered list of {tag, suffix} items or, from the
// environment, a "tag=suffix,tag=suffix" string. Tags keep their case and
// order: they name output directories and conversion targets.
func parseVariants(raw interface{}) ([]desired.Variant, error) {
	var out []desired.Variant
	switch val := raw.(type) {
	case nil:
	case string:
		for _, pair := range strings.Split(val, ",") {
			pair = strings.TrimSpace(pair)
			if pair == "" {
				continue
			}
			tag, suffix, ok := strings.Cut(pair, "=")
			if !ok {
				return nil, fmt.Errorf("variant %q is not tag=suffix", pair)
			}
			out = append(out, desired.Variant{Tag: strings.TrimSpace(tag), Suffix: strings.TrimSpace(suffix)})
		}
	case map[string]interface{}:
		return nil, errors.New("variants must be a list of {tag, suffix} items, not a mapping")
	default:
		var items []struct {
			Tag    string `mapstructure:"tag"`
			Suffix string `mapstructure:"suffix"`
		}
		if err := mapstructure.Decode(raw, &items); err != nil {
			return nil, fmt.Errorf("decoding variants: %w", err)
		}
		for _, it := range items {
			out = append(out, desired.Variant{Tag: it.Tag, Suffix: it.Suffix})
		}
	}
	return out, nil
}

func variantMaps(vs []desired.Variant) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(vs))
	for _, v := range vs {
		out = append(out, map[string]interface{}{"tag": v.Tag, "suffix": v.Suffix})
	}
	return out
}

// VariantList returns the configured variants in configured order.
func (s *Settings) VariantList() []desired.Variant {
	return append([]desired.Variant(nil), s.Variants...)
}

// BuildOptions returns the desired-state builder options for these settings.
func (s *Settings) BuildOptions() desired.Options {
	return desired.Options{
		OutputRoot:        s.OutputRoot,
		Variants:          s.VariantList(),
		BaseURL:           s.BaseURL,
		ServiceAddress:    s.ServiceAddress,
		ExcludeExtensions: s.ExcludeExtensions,
	}
}

// Validate reports settings that make a run impossible. version is the
// running binary's version, checked against Requires.
func (s *Settings) Validate(version string) error {
	var errs []error
	if s.Manifest == "" {
		errs = append(errs, errors.New("manifest path is empty"))
	}
	if s.OutputRoot == "" {
		errs = append(errs, errors.New("output_root is empty"))
	}
	if s.FetchTimeout <= 0 {
		errs = append(errs, fmt.Errorf("fetch_timeout must be positive, got %s", s.FetchTimeout))
	}
	if len(s.Variants) == 0 {
		errs = append(errs, errors.New("at least one variant is required"))
	}
	seen := make(map[string]bool, len(s.Variants))
	for _, v := range s.Variants {
		if v.Tag == "" || strings.HasPrefix(v.Tag, ".") || strings.ContainsAny(v.Tag, `/\`) {
			errs = append(errs, fmt.Errorf("invalid variant tag %q", v.Tag))
		}
		if seen[v.Tag] {
			errs = append(errs, fmt.Errorf("duplicate variant tag %q", v.Tag))
		}
		seen[v.Tag] = true
	}
	if err := CheckRequires(s.Requires, version); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrConfig, errors.Join(errs...))
	}
	return nil
}

// Set writes key=value into the settings file at path, creating it when
// missing. Only the file's own keys are written back, not defaults.
func Set(path, key, value string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating settings directory: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading settings %s: %w", path, err)
		}
	}

	v.Set(key, value)
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing settings %s: %w", path, err)
	}
	return nil
}

// FilePath returns the default settings file path in the working directory.
func FilePath() string {
	return branding.SettingsName() + ".yaml"
}
