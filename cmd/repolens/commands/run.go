package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/repolens/repolens/cmd/repolens/internal/clierr"
	"github.com/repolens/repolens/internal/classify"
	"github.com/repolens/repolens/internal/config"
	"github.com/repolens/repolens/internal/history"
	"github.com/repolens/repolens/internal/snapshot"
)

func newRunCmd() *cobra.Command {
	var (
		configPath string
		dryRun     bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the snapshot batch over all configured repositories",
		Long: `Walks each configured repository backward in monthly steps, exports the
tree of the last commit before each cutoff, and invokes the classifier on it.
Individual repository or window failures are logged and skipped; the run
itself always completes.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return clierr.Wrap(2, "loading configuration", err)
			}
			if err := cfg.Validate(); err != nil {
				return clierr.Wrap(2, "invalid configuration", err)
			}

			o := snapshot.New(cfg, history.NewGitSource(), classify.NewExecClassifier(cfg.Classifier.Command), newLogger(cmd))
			o.DryRun = dryRun

			summary, err := o.Run(cmd.Context(), time.Now().UTC())
			if err != nil {
				return clierr.Wrap(1, "run aborted", err)
			}

			// Unit failures are in the summary; the process still exits 0.
			snapshot.Render(cmd.OutOrStdout(), summary)
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to repolens.yaml (default: search standard locations)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "resolve commits but do not export or classify")

	return cmd
}
