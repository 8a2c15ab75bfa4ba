package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"wavsh/internal/backup"
	"wavsh/internal/history"
	"wavsh/internal/journal"
	"wavsh/internal/logging"
	"wavsh/internal/runner"
	"wavsh/internal/session"
)

// Backend is the session surface the loop drives.
type Backend interface {
	Run(ctx context.Context, line string) (runner.Outcome, error)
	Undo(ctx context.Context) (history.Result, error)
	Redo(ctx context.Context) (history.Result, error)
	Save(ctx context.Context, name string) (string, error)
	Play(ctx context.Context) error
	Prune(ctx context.Context) ([]string, error)
	Recent(ctx context.Context, n int) ([]journal.Record, error)
	Status() session.Status
	Stacks() backup.Stacks
	Persist() error
}

// Options configures the loop's streams and presentation.
type Options struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
	// Sentinel introduces internal commands. Defaults to ":".
	Sentinel string
	Prompt   string
	// Interactive enables the prompt and the start-up banner.
	Interactive bool
	// Color enables ANSI colour on warning and error prefixes.
	Color  bool
	Logger *slog.Logger
}

// Shell reads lines and dispatches them.
type Shell struct {
	backend     Backend
	in          io.Reader
	out         io.Writer
	sentinel    string
	prompt      string
	interactive bool
	rep         *reporter
	logger      *slog.Logger
}

// New constructs a Shell over backend.
func New(backend Backend, opts Options) *Shell {
	in := opts.In
	if in == nil {
		in = os.Stdin
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	errOut := opts.Err
	if errOut == nil {
		errOut = os.Stderr
	}
	sentinel := opts.Sentinel
	if sentinel == "" {
		sentinel = ":"
	}
	return &Shell{
		backend:     backend,
		in:          in,
		out:         out,
		sentinel:    sentinel,
		prompt:      opts.Prompt,
		interactive: opts.Interactive,
		rep:         &reporter{out: out, err: errOut, color: opts.Color},
		logger:      logging.NewComponentLogger(opts.Logger, "shell"),
	}
}

// Report prints err at its classified severity.
func (s *Shell) Report(err error) {
	s.rep.report(err)
}

// MaxLineBytes caps one input line. Longer lines are reported and skipped.
const MaxLineBytes = 1 << 20

// Loop reads until :quit, end of input or context cancellation, then
// persists the stacks. Only a read error is returned.
func (s *Shell) Loop(ctx context.Context) error {
	if s.interactive {
		s.banner()
	}
	reader := bufio.NewReader(s.in)

	var readErr error
	for ctx.Err() == nil {
		if s.interactive {
			fmt.Fprint(s.out, s.prompt)
		}
		line, tooLong, err := readLine(reader, MaxLineBytes)
		if err != nil {
			if s.interactive {
				fmt.Fprintln(s.out)
			}
			if !errors.Is(err, io.EOF) {
				readErr = err
			}
			break
		}
		if tooLong {
			s.logger.Warn("input line too long", logging.Int("limit_bytes", MaxLineBytes))
			s.rep.fail("input line exceeds %d bytes; ignored", MaxLineBytes)
			continue
		}
		if s.Execute(ctx, line) {
			break
		}
	}

	if err := s.backend.Persist(); err != nil {
		s.rep.report(err)
	}
	s.logger.Info("shell loop ended")
	if readErr != nil {
		return fmt.Errorf("read input: %w", readErr)
	}
	return nil
}

// readLine returns the next line without its terminator. A line longer than
// limit is consumed to its end and reported through tooLong. A final line
// without a newline is returned with a nil error; io.EOF follows it.
func readLine(r *bufio.Reader, limit int) (line string, tooLong bool, err error) {
	var buf []byte
	read := false
	for {
		frag, isPrefix, err := r.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) && read {
				return string(buf), tooLong, nil
			}
			return "", false, err
		}
		read = true
		if !tooLong {
			if len(buf)+len(frag) > limit {
				tooLong = true
				buf = nil
			} else {
				buf = append(buf, frag...)
			}
		}
		if !isPrefix {
			return string(buf), tooLong, nil
		}
	}
}

// Execute handles one input line and reports whether the loop should stop.
func (s *Shell) Execute(ctx context.Context, line string) (quit bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return false
	}
	if rest, ok := strings.CutPrefix(trimmed, s.sentinel); ok {
		quit, err := s.dispatch(ctx, rest)
		s.rep.report(err)
		return quit
	}
	s.forward(ctx, line)
	return false
}

func (s *Shell) forward(ctx context.Context, line string) {
	out, err := s.backend.Run(ctx, line)
	if out.Detected {
		msg := fmt.Sprintf("%s -> %s", out.Candidate.Name, s.artifactName())
		if out.ExitCode != 0 {
			msg += fmt.Sprintf(" (exit %d)", out.ExitCode)
		}
		if out.RedoCleared > 0 {
			msg += fmt.Sprintf("; redo cleared (%d)", out.RedoCleared)
		}
		s.rep.info("%s", msg)
	} else if err != nil && out.ExitCode != 0 && Classify(err) == SeverityInfo {
		s.rep.info("command exited %d", out.ExitCode)
	}
	if out.ArtifactChanged {
		s.rep.warn("%s was modified in place; %sundo restores the previous version", s.artifactName(), s.sentinel)
	}
	s.rep.report(err)
}

func (s *Shell) artifactName() string {
	return filepath.Base(s.backend.Status().Artifact)
}

func (s *Shell) banner() {
	st := s.backend.Status()
	state := "absent"
	if st.ArtifactExists {
		state = fmt.Sprintf("%d bytes", st.ArtifactSize)
	}
	fmt.Fprintf(s.out, "wavsh: %s (%s), undo %d, redo %d. Type %shelp for commands.\n",
		s.artifactName(), state, st.UndoDepth, st.RedoDepth, s.sentinel)
}
