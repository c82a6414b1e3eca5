package commands

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/repolens/repolens/cmd/repolens/internal/clierr"
	"github.com/repolens/repolens/internal/config"
	"github.com/repolens/repolens/internal/snapshot"
)

func newReportCmd() *cobra.Command {
	var (
		configPath string
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize completed windows under the output root",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return clierr.Wrap(2, "loading configuration", err)
			}

			rows, err := snapshot.NewLayout(cfg.OutputRoot).Scan(cfg.Classifier.Marker)
			if err != nil {
				return clierr.Wrap(1, "scanning output root", err)
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(rows)
			}
			snapshot.RenderReport(cmd.OutOrStdout(), rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to repolens.yaml (default: search standard locations)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit the report as JSON")

	return cmd
}
