package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

// NewRootCommand builds the schulze command tree. Log output goes to
// logOut; command output goes to the command's configured stdout.
func NewRootCommand(logOut io.Writer) *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:          appName,
		Short:        "Rank candidates with the Schulze method",
		Long:         `schulze evaluates ranked-ballot elections with the Schulze method and reports the candidates as tiers, from the strongest group of tied winners down.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := log.InfoLevel
			if verbose {
				level = log.DebugLevel
			}
			cmd.SetContext(withLogger(cmd.Context(), newLogger(logOut, level)))
		},
	}

	root.SetVersionTemplate(fmt.Sprintf("%s %s\ncommit: %s\nbuilt: %s\n", appName, version, commit, date))
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(newEvaluateCmd())
	root.AddCommand(newServeCmd())

	return root
}

// Execute runs the CLI with ctx, logging to logOut.
func Execute(ctx context.Context, logOut io.Writer) error {
	return NewRootCommand(logOut).ExecuteContext(ctx)
}
