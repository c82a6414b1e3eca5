// Package commands wires the repolens CLI.
package commands

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewRootCmd constructs the repolens root Cobra command.
func NewRootCmd() *cobra.Command {
	version := os.Getenv("REPOLENS_VERSION")
	if version == "" {
		version = "0.0.0-dev"
	}

	cmd := &cobra.Command{
		Use:           "repolens",
		Short:         "repolens - monthly snapshots of repository history, classified",
		Long:          "repolens walks a repository's history backward in monthly steps,\nexports each sampled commit's tree, and runs an external file classifier on it.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "enable verbose output")

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number of repolens",
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "repolens version %s\n", version)
		},
	})

	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newWindowsCmd())
	cmd.AddCommand(newReportCmd())

	return cmd
}

// newLogger builds the run logger, honoring the root --verbose flag.
func newLogger(cmd *cobra.Command) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(cmd.ErrOrStderr())
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	return log
}
