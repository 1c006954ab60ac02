// Package cli contains the mapperscan command definitions.
package cli

import (
	"log/slog"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	verbose bool
	dir     string
}

// NewRootCmd creates and returns the root command for the CLI.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "mapperscan",
		Short:         "Generate mapper type catalogs and validate mapping documents",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log package loading")
	rootCmd.PersistentFlags().StringVarP(&opts.dir, "dir", "C", "", "Directory package patterns are resolved in")

	rootCmd.AddCommand(newCatalogCmd(opts))
	rootCmd.AddCommand(newValidateCmd(opts))

	return rootCmd
}

func (o *rootOptions) logger(cmd *cobra.Command) *slog.Logger {
	if !o.verbose {
		return slog.New(slog.DiscardHandler)
	}

	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelDebug}))
}
