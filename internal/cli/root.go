package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/scriptmirror/scriptmirror/internal/branding"
	"github.com/scriptmirror/scriptmirror/internal/config"
	"github.com/scriptmirror/scriptmirror/internal/logging"
)

var (
	buildVersion = "dev"
	buildCommit  = "unknown"
	buildDate    = "unknown"
)

// settingsFile is the --config flag shared by every command.
var settingsFile string

// settingsFlags maps command flags onto settings keys. Commands that lack a
// flag simply do not override that key.
var settingsFlags = map[string]string{
	"manifest": "manifest",
	"output":   "output_root",
	"clean":    "clean_mode",
}

var rootCmd = &cobra.Command{
	Use:   branding.CLIName(),
	Short: branding.Description(),
	Long: branding.DisplayName() + ` mirrors remote scripts and text artifacts listed in a manifest into a
local directory, committing every change to git and optionally notifying you of the result.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&settingsFile, "config", "", "Settings file (default ./"+config.FilePath()+")")
}

// Execute runs the root command with build info injected via ldflags.
func Execute(version, commit, date string) error {
	buildVersion = version
	buildCommit = commit
	buildDate = date

	logger := logging.ConfigureRuntime()
	if err := rootCmd.Execute(); err != nil {
		logger.Error().Err(err).Msg(rootCmd.Name() + " failed")
		return err
	}
	return nil
}

// loadSettings merges defaults, environment, the settings file and the
// command's flags.
func loadSettings(cmd *cobra.Command) (*config.Settings, *viper.Viper, error) {
	v := config.New()
	if err := config.ReadFile(v, settingsFile); err != nil {
		return nil, nil, err
	}
	if err := config.BindFlags(v, cmd.Flags(), settingsFlags); err != nil {
		return nil, nil, err
	}
	s, err := config.Load(v)
	if err != nil {
		return nil, nil, err
	}
	return s, v, nil
}

// logger returns the process logger configured by Execute, or the runtime
// profile when a command runs outside Execute.
func logger() zerolog.Logger {
	return logging.ConfigureRuntime()
}
