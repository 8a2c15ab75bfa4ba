package shell

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"wavsh/internal/history"
	"wavsh/internal/session"
	"wavsh/internal/textutil"
)

const defaultLogRows = 10

type command struct {
	name    string
	aliases []string
	args    string
	summary string
	run     func(s *Shell, ctx context.Context, args string) (quit bool, err error)
}

func commandTable() []command {
	return []command{
		{name: "undo", aliases: []string{"u"}, summary: "revert the last change", run: (*Shell).undo},
		{name: "redo", aliases: []string{"r"}, summary: "reapply the last undone change", run: (*Shell).redo},
		{name: "save", aliases: []string{"s"}, args: "<file>", summary: "copy the artifact to file", run: (*Shell).save},
		{name: "play", aliases: []string{"p"}, summary: "play the artifact", run: (*Shell).play},
		{name: "history", aliases: []string{"h"}, summary: "show the undo and redo stacks", run: (*Shell).history},
		{name: "log", aliases: []string{"l"}, args: "[n]", summary: "show the last n journal entries", run: (*Shell).log},
		{name: "status", aliases: []string{"st"}, summary: "show the artifact and history depth", run: (*Shell).status},
		{name: "prune", summary: "delete backups no stack references", run: (*Shell).prune},
		{name: "help", aliases: []string{"?"}, summary: "list commands", run: (*Shell).help},
		{name: "quit", aliases: []string{"q", "exit"}, summary: "persist and leave", run: (*Shell).quit},
	}
}

func lookup(name string) (command, bool) {
	name = strings.ToLower(name)
	for _, c := range commandTable() {
		if c.name == name {
			return c, true
		}
		for _, alias := range c.aliases {
			if alias == name {
				return c, true
			}
		}
	}
	return command{}, false
}

func (s *Shell) dispatch(ctx context.Context, input string) (bool, error) {
	input = strings.TrimSpace(input)
	name, args, _ := strings.Cut(input, " ")
	if name == "" {
		return false, fmt.Errorf("%w: expected a command after %q (try %shelp)", session.ErrInvalidUsage, s.sentinel, s.sentinel)
	}
	cmd, ok := lookup(name)
	if !ok {
		return false, fmt.Errorf("%w: unknown command %s%s (try %shelp)", session.ErrInvalidUsage, s.sentinel, name, s.sentinel)
	}
	args = strings.TrimSpace(args)
	if cmd.args == "" && args != "" {
		return false, s.usage(cmd.name, cmd.args)
	}
	s.logger.Debug("internal command", "command", cmd.name)
	return cmd.run(s, ctx, args)
}

func (s *Shell) usage(name, args string) error {
	return fmt.Errorf("%w: usage: %s%s", session.ErrInvalidUsage, s.sentinel, strings.TrimSpace(name+" "+args))
}

func (s *Shell) undo(ctx context.Context, _ string) (bool, error) {
	res, err := s.backend.Undo(ctx)
	s.step("undo", res, err)
	return false, err
}

func (s *Shell) redo(ctx context.Context, _ string) (bool, error) {
	res, err := s.backend.Redo(ctx)
	s.step("redo", res, err)
	return false, err
}

func (s *Shell) step(name string, res history.Result, err error) {
	if res.Restored.IsZero() || (err != nil && Classify(err) == SeverityError) {
		return
	}
	s.rep.info("%s: restored %s", name, res.Restored.Name())
}

func (s *Shell) save(ctx context.Context, args string) (bool, error) {
	if args == "" {
		return false, s.usage("save", "<file>")
	}
	target, err := s.backend.Save(ctx, args)
	if err != nil {
		return false, err
	}
	s.rep.info("saved %s", target)
	return false, nil
}

func (s *Shell) play(ctx context.Context, _ string) (bool, error) {
	return false, s.backend.Play(ctx)
}

func (s *Shell) history(_ context.Context, _ string) (bool, error) {
	table := RenderHistory(s.backend.Stacks())
	if table == "" {
		s.rep.info("history is empty")
		return false, nil
	}
	s.rep.info("%s", table)
	return false, nil
}

func (s *Shell) log(ctx context.Context, args string) (bool, error) {
	n := defaultLogRows
	if args != "" {
		parsed, err := strconv.Atoi(args)
		if err != nil || parsed <= 0 {
			return false, s.usage("log", "[n]")
		}
		n = parsed
	}
	records, err := s.backend.Recent(ctx, n)
	if err != nil {
		if errors.Is(err, session.ErrJournalDisabled) {
			s.rep.info("journal is disabled (set journal.enabled = true)")
			return false, nil
		}
		return false, err
	}
	if len(records) == 0 {
		s.rep.info("journal is empty")
		return false, nil
	}
	s.rep.info("%s", RenderJournal(records))
	return false, nil
}

func (s *Shell) status(_ context.Context, _ string) (bool, error) {
	st := s.backend.Status()
	artifact := "absent"
	if st.ArtifactExists {
		artifact = fmt.Sprintf("%d bytes", st.ArtifactSize)
	}
	rows := [][]string{
		{"Artifact", fmt.Sprintf("%s (%s)", filepath.Base(st.Artifact), artifact)},
		{"Undo", textutil.Plural(st.UndoDepth, "step")},
		{"Redo", textutil.Plural(st.RedoDepth, "step")},
		{"Player", textutil.Ternary(st.Player == "", "none", st.Player)},
		{"Journal", textutil.Ternary(st.Journal == "", "disabled", st.Journal)},
		{"Session", st.SessionID},
	}
	s.rep.info("%s", textutil.RenderTable([]string{"Field", "Value"}, rows, nil))
	return false, nil
}

func (s *Shell) prune(ctx context.Context, _ string) (bool, error) {
	removed, err := s.backend.Prune(ctx)
	if err != nil {
		return false, err
	}
	s.rep.info("removed %s", textutil.Plural(len(removed), "orphaned entry file"))
	return false, nil
}

func (s *Shell) help(_ context.Context, _ string) (bool, error) {
	var b strings.Builder
	b.WriteString("Lines without the sentinel run as shell commands; new output becomes the artifact.\n")
	for _, c := range commandTable() {
		usage := strings.TrimSpace(s.sentinel + c.name + " " + c.args)
		if len(c.aliases) > 0 {
			usage += " (" + s.sentinel + strings.Join(c.aliases, ", "+s.sentinel) + ")"
		}
		fmt.Fprintf(&b, "  %-28s %s\n", usage, c.summary)
	}
	fmt.Fprint(s.out, b.String())
	return false, nil
}

func (s *Shell) quit(_ context.Context, _ string) (bool, error) {
	return true, nil
}
