package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/repolens/repolens/cmd/repolens/internal/clierr"
	"github.com/repolens/repolens/internal/window"
)

func newWindowsCmd() *cobra.Command {
	var (
		horizon int
		step    int
		at      string
	)

	cmd := &cobra.Command{
		Use:   "windows",
		Short: "Print the time windows a run would enumerate",
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now().UTC()
			if at != "" {
				parsed, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return clierr.Wrap(2, "parsing --at", err)
				}
				now = parsed.UTC()
			}

			windows, err := window.Enumerate(now, horizon, step)
			if err != nil {
				return clierr.Wrap(2, "enumerating windows", err)
			}

			out := cmd.OutOrStdout()
			for _, w := range windows {
				fmt.Fprintf(out, "%-3d %s  cutoff %s\n", w.Offset, w.Label, w.Cutoff.Format(time.RFC3339))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&horizon, "horizon", 48, "lookback horizon in months (inclusive)")
	cmd.Flags().IntVar(&step, "step", 3, "step size in months")
	cmd.Flags().StringVar(&at, "at", "", "RFC3339 instant to use as now (default: current time)")

	return cmd
}
