package main

import (
	"github.com/spf13/cobra"

	"wavsh/internal/session"
)

func newRootCommand() *cobra.Command {
	return newRootCommandWithOptions(session.Options{})
}

// newRootCommandWithOptions builds the command tree with session
// collaborators overridden, which is how tests inject fake executors.
func newRootCommandWithOptions(opts session.Options) *cobra.Command {
	var configFlag string
	var dirFlag string
	var verbose bool

	ctx := newCommandContext(&configFlag, &dirFlag, &verbose, opts)

	rootCmd := &cobra.Command{
		Use:           "wavsh",
		Short:         "Undoable shell around a working audio file",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShell(cmd, ctx)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVarP(&dirFlag, "dir", "C", "", "Working directory (overrides work.dir)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Mirror debug logs to stderr")

	rootCmd.AddCommand(newShellCommand(ctx))
	for _, cmd := range newHistoryCommands(ctx) {
		rootCmd.AddCommand(cmd)
	}
	rootCmd.AddCommand(newCheckCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}
