package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scriptmirror/scriptmirror/internal/config"
	"github.com/scriptmirror/scriptmirror/internal/manifest"
)

func init() {
	rootCmd.AddCommand(validateCmd)
}

var validateCmd = &cobra.Command{
	Use:   "validate [manifest]",
	Short: "Check a manifest against the manifest schema",
	Long: `Validate a manifest file (JSON, YAML or TOML) against the embedded schema.
Without an argument the manifest from the settings is checked.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ""
		if len(args) == 1 {
			path = args[0]
		} else {
			s, _, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			path = s.Manifest
		}

		result, err := manifest.ValidateFile(path)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if result.Valid {
			fmt.Fprintf(out, "%s is valid\n", path)
			return nil
		}
		fmt.Fprintf(out, "%s has %d issue(s):\n", path, len(result.Issues))
		for _, issue := range result.Issues {
			loc := issue.Path
			if loc == "" {
				loc = "/"
			}
			fmt.Fprintf(out, "  %s: %s\n", loc, issue.Message)
		}
		if result.Hint != "" {
			fmt.Fprintf(out, "Hint: %s\n", result.Hint)
		}
		return fmt.Errorf("%w: %s: invalid manifest", config.ErrConfig, path)
	},
}
