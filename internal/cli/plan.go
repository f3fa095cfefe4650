package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/scriptmirror/scriptmirror/internal/config"
	"github.com/scriptmirror/scriptmirror/internal/desired"
	"github.com/scriptmirror/scriptmirror/internal/manifest"
)

func init() {
	planCmd.Flags().String("manifest", "", "Manifest file listing the artifacts to mirror")
	planCmd.Flags().String("output", "", "Output root directory")
	rootCmd.AddCommand(planCmd)
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show the files a sync would produce",
	Long: `Build the desired set from the manifest and settings and print every output
path with its variant and fetch URL. Nothing is fetched or written.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, _, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		if err := s.Validate(buildVersion); err != nil {
			return err
		}
		m, err := manifest.ParseFile(s.Manifest)
		if err != nil {
			return fmt.Errorf("%w: %w", config.ErrConfig, err)
		}
		plan, err := desired.Build(m.Entries, s.BuildOptions())
		if err != nil {
			return fmt.Errorf("%w: %w", config.ErrConfig, err)
		}
		return printPlan(cmd, plan)
	},
}

func printPlan(cmd *cobra.Command, plan *desired.Plan) error {
	out := cmd.OutOrStdout()
	if plan.Set.Len() == 0 {
		fmt.Fprintln(out, "No targets.")
	} else {
		w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "VARIANT\tPATH\tURL")
		for _, t := range plan.Set.Targets() {
			fmt.Fprintf(w, "%s\t%s\t%s\n", t.Variant, t.Path, t.Descriptor.URL)
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	if len(plan.Skipped) > 0 {
		fmt.Fprintf(out, "\nSkipped %d entries:\n", len(plan.Skipped))
		for _, s := range plan.Skipped {
			name := s.Identity
			if name == "" {
				name = "-"
			}
			fmt.Fprintf(out, "  #%d %s: %s\n", s.Index, name, s.Reason)
		}
	}
	return nil
}
