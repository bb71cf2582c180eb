// Package cli implements the stockctl command tree.
package cli

import (
	"github.com/okian/stockroom/pkg/logger"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
}

// NewRootCommand creates the root command for stockctl.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "stockctl",
		Short: "Stockroom inventory tools",
		Long:  "Interactive console and load generator for the stockroom inventory service.",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if !logger.Initialized() {
				if err := logger.InitWithWriter(cmd.ErrOrStderr()); err != nil {
					return err
				}
			}
			if opts.Verbose {
				return logger.SetLevelString("debug")
			}
			return logger.SetLevelString("warn")
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(NewConsoleCommand(opts))
	cmd.AddCommand(NewLoadCommand(opts))

	return cmd
}
