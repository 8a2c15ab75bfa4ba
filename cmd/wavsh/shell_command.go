package main

import (
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"wavsh/internal/session"
	"wavsh/internal/shell"
)

func newShellCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Start the interactive shell (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShell(cmd, ctx)
		},
	}
}

func runShell(cmd *cobra.Command, ctx *commandContext) error {
	// Interrupts belong to the wrapped command in the foreground. Handled
	// signals revert to their default in exec'd children.
	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	defer signal.Stop(interrupts)

	// Piped input is read ahead by the loop, so children only share a
	// terminal.
	in := cmd.InOrStdin()
	var childIn io.Reader
	if shell.IsTerminal(in) {
		childIn = in
	}

	return ctx.withSessionInput(cmd, childIn, func(sess *session.Session) error {
		out := cmd.OutOrStdout()
		cfg := sess.Config()
		sh := shell.New(sess, shell.Options{
			In:          in,
			Out:         out,
			Err:         cmd.ErrOrStderr(),
			Sentinel:    cfg.Shell.Sentinel,
			Prompt:      cfg.Shell.Prompt,
			Interactive: shell.IsTerminal(in),
			Color:       shell.IsTerminal(out),
			Logger:      ctx.logger,
		})
		if warn := sess.LoadWarning(); warn != nil {
			sh.Report(warn)
		}
		return sh.Loop(cmd.Context())
	})
}
