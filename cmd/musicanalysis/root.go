package main

import (
	"github.com/spf13/cobra"
)

type rootOptions struct {
	logLevel  string
	logFormat string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "musicanalysis",
		Short:        "Audio upload analysis service",
		Long:         `Reads container metadata and tags from audio files and returns a formatted summary with placeholder notes.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "log format (text or json)")

	cmd.AddCommand(newServeCmd(opts), newAnalyzeCmd(opts))
	return cmd
}
