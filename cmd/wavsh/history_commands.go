package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/alessio/shellescape"
	"github.com/spf13/cobra"

	"wavsh/internal/history"
	"wavsh/internal/runner"
	"wavsh/internal/session"
	"wavsh/internal/shell"
	"wavsh/internal/textutil"
)

func newHistoryCommands(ctx *commandContext) []*cobra.Command {
	return []*cobra.Command{
		newRunCommand(ctx),
		newStepCommand(ctx, "undo", "Revert the working artifact to its previous version", (*session.Session).Undo),
		newStepCommand(ctx, "redo", "Reapply the most recently undone change", (*session.Session).Redo),
		newSaveCommand(ctx),
		newHistoryCommand(ctx),
		newLogCommand(ctx),
		newPruneCommand(ctx),
	}
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var noBackup bool
	cmd := &cobra.Command{
		Use:   "run -- <command line | argv...>",
		Short: "Run one command line and fold its output into the artifact",
		Long: "Run one command and fold its output into the artifact.\n\n" +
			"A single argument is a complete shell command line and is forwarded verbatim.\n" +
			"Several arguments are an argument vector: each is shell-quoted, so\n" +
			"`wavsh run -- sox current.wav \"out 1.wav\"` keeps \"out 1.wav\" as one argument.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			line := commandLine(args)
			return ctx.withSessionInput(cmd, cmd.InOrStdin(), func(sess *session.Session) error {
				out, err := runLine(cmd, sess, line, !noBackup)
				printOutcome(cmd.OutOrStdout(), out, sess.Config().Work.Artifact)
				if shell.Classify(err) == shell.SeverityWarning {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
					return nil
				}
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&noBackup, "no-backup", false, "Skip the undo snapshot for this run")
	return cmd
}

// commandLine turns CLI arguments into the line handed to the shell.
func commandLine(args []string) string {
	if len(args) == 1 {
		return args[0]
	}
	return shellescape.QuoteCommand(args)
}

func runLine(cmd *cobra.Command, sess *session.Session, line string, backup bool) (runner.Outcome, error) {
	if backup {
		return sess.Run(cmd.Context(), line)
	}
	return sess.RunWithoutBackup(cmd.Context(), line)
}

func printOutcome(w io.Writer, out runner.Outcome, artifact string) {
	if !out.Detected {
		if out.ExitCode != 0 {
			fmt.Fprintf(w, "command exited %d\n", out.ExitCode)
		}
		if out.ArtifactChanged {
			fmt.Fprintf(w, "%s was modified in place; wavsh undo restores the previous version\n", artifact)
		}
		return
	}
	msg := fmt.Sprintf("%s -> %s", out.Candidate.Name, artifact)
	if out.ExitCode != 0 {
		msg += fmt.Sprintf(" (exit %d)", out.ExitCode)
	}
	if out.RedoCleared > 0 {
		msg += fmt.Sprintf("; redo cleared (%d)", out.RedoCleared)
	}
	fmt.Fprintln(w, msg)
}

type stepFunc func(*session.Session, context.Context) (history.Result, error)

func newStepCommand(ctx *commandContext, name, short string, step stepFunc) *cobra.Command {
	return &cobra.Command{
		Use:   name,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, func(sess *session.Session) error {
				res, err := step(sess, cmd.Context())
				if !res.Restored.IsZero() && shell.Classify(err) != shell.SeverityError {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: restored %s\n", name, res.Restored.Name())
				}
				return err
			})
		},
	}
}

func newSaveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "save <file>",
		Short: "Copy the working artifact to file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, func(sess *session.Session) error {
				target, err := sess.Save(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "saved %s\n", target)
				return nil
			})
		},
	}
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Show the undo and redo stacks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, func(sess *session.Session) error {
				out := cmd.OutOrStdout()
				if warn := sess.LoadWarning(); warn != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", warn)
				}
				table := shell.RenderHistory(sess.Stacks())
				if table == "" {
					fmt.Fprintln(out, "history is empty")
					return nil
				}
				fmt.Fprintln(out, table)
				return nil
			})
		},
	}
}

func newLogCommand(ctx *commandContext) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show recent journal entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				return fmt.Errorf("--limit must be positive, got %d", limit)
			}
			return ctx.withSession(cmd, func(sess *session.Session) error {
				records, err := sess.Recent(cmd.Context(), limit)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(records) == 0 {
					fmt.Fprintln(out, "journal is empty")
					return nil
				}
				fmt.Fprintln(out, shell.RenderJournal(records))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of entries to show")
	return cmd
}

func newPruneCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Delete backup files no stack references",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, func(sess *session.Session) error {
				removed, err := sess.Prune(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, name := range removed {
					fmt.Fprintf(out, "removed %s\n", filepath.Base(name))
				}
				fmt.Fprintf(out, "%s pruned\n", textutil.Plural(len(removed), "entry file"))
				return nil
			})
		},
	}
}
