package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/scriptmirror/scriptmirror/internal/watch"
)

var (
	syncNoCommit bool
	syncNoPush   bool
	syncWatch    bool
	syncInterval time.Duration
)

func init() {
	syncCmd.Flags().String("manifest", "", "Manifest file listing the artifacts to mirror")
	syncCmd.Flags().String("output", "", "Output root directory")
	syncCmd.Flags().Bool("clean", false, "Delete files under the output root that are not produced by this run")
	syncCmd.Flags().BoolVar(&syncNoCommit, "no-commit", false, "Log the git operations instead of running them")
	syncCmd.Flags().BoolVar(&syncNoPush, "no-push", false, "Commit changes but do not push")
	syncCmd.Flags().BoolVar(&syncWatch, "watch", false, "Re-run when the manifest or settings file changes")
	syncCmd.Flags().DurationVar(&syncInterval, "interval", 0, "Re-run every interval (e.g. 30m)")
	rootCmd.AddCommand(syncCmd)
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Mirror every manifest artifact into the output root",
	Long: `Fetch every artifact listed in the manifest, write new and changed files under
the output root, commit each change to git and push once at the end.

With --interval or --watch the cycle repeats until interrupted. Cycles never
overlap; an interrupt stops the loop after the current cycle completes.`,
	Args: cobra.NoArgs,
	RunE: runSync,
}

func runSync(cmd *cobra.Command, args []string) error {
	log := logger()

	// Settings are loaded up front so configuration errors fail fast and so
	// the watch list is known.
	_, v, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loop := &watch.Loop{Interval: syncInterval, Logger: log}
	if syncWatch {
		loop.Files = append(loop.Files, v.GetString("manifest"))
		if used := v.ConfigFileUsed(); used != "" {
			loop.Files = append(loop.Files, used)
		}
	}

	return loop.Run(ctx, func(ctx context.Context) error {
		s, _, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		if syncNoPush {
			s.Git.Push = false
		}
		c := &cycle{
			settings: s,
			noCommit: syncNoCommit,
			logger:   log,
			out:      cmd.OutOrStdout(),
		}
		// A cycle always runs to completion; the interrupt is honoured by
		// the loop once it returns.
		_, err = c.run(context.WithoutCancel(ctx))
		return err
	})
}
