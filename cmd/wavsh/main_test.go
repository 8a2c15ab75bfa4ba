package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"wavsh/internal/config"
	"wavsh/internal/detect"
	"wavsh/internal/history"
	"wavsh/internal/logging"
	"wavsh/internal/session"
	"wavsh/internal/testsupport"
)

type cliTestEnv struct {
	workDir    string
	configPath string
	exec       *testsupport.FakeExecutor
	opts       session.Options
}

func setupCLITestEnv(t *testing.T, journal bool) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	t.Setenv("HOME", filepath.Join(base, "home"))
	workDir := filepath.Join(base, "work")
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		t.Fatalf("mkdir work dir: %v", err)
	}

	configPath := filepath.Join(base, "wavsh.toml")
	content := fmt.Sprintf("[detect]\npoll_interval_ms = 10\ntimeout_seconds = 1\n\n[journal]\nenabled = %t\n", journal)
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	exec := &testsupport.FakeExecutor{Handle: testsupport.OutputWriter(workDir)}
	clock := testsupport.NewFakeClock(time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC))
	return &cliTestEnv{
		workDir:    workDir,
		configPath: configPath,
		exec:       exec,
		opts: session.Options{
			Executor: exec,
			Clock:    clock,
			Logger:   logging.NewNop(),
		},
	}
}

func (e *cliTestEnv) artifact() string {
	return filepath.Join(e.workDir, "current.wav")
}

func runCLI(t *testing.T, env *cliTestEnv, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommandWithOptions(env.opts)
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(append([]string{"--config", env.configPath, "--dir", env.workDir}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected %q in output:\n%s", needle, haystack)
	}
}

func TestRunUndoRedo(t *testing.T) {
	env := setupCLITestEnv(t, false)
	testsupport.WriteFile(t, env.artifact(), "W0")

	out, _, err := runCLI(t, env, "run", "--", "write", "out1.wav", "out1")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	requireContains(t, out, "out1.wav -> current.wav")
	if got := testsupport.ReadFile(t, env.artifact()); got != "out1" {
		t.Fatalf("artifact after run = %q", got)
	}

	out, _, err = runCLI(t, env, "undo")
	if err != nil {
		t.Fatalf("undo: %v", err)
	}
	requireContains(t, out, "undo: restored backup_")
	if got := testsupport.ReadFile(t, env.artifact()); got != "W0" {
		t.Fatalf("artifact after undo = %q", got)
	}

	out, _, err = runCLI(t, env, "redo")
	if err != nil {
		t.Fatalf("redo: %v", err)
	}
	requireContains(t, out, "redo: restored redo_")
	if got := testsupport.ReadFile(t, env.artifact()); got != "out1" {
		t.Fatalf("artifact after redo = %q", got)
	}

	out, _, err = runCLI(t, env, "history")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "Backup")
}

func TestRunWithoutOutputLeavesState(t *testing.T) {
	env := setupCLITestEnv(t, false)
	testsupport.WriteFile(t, env.artifact(), "W0")

	out, _, err := runCLI(t, env, "run", "--", "echo", "hi")
	if !errors.Is(err, detect.ErrDetectionTimeout) {
		t.Fatalf("expected detection timeout, got %v", err)
	}
	requireContains(t, out, "command exited 1")
	if got := testsupport.ReadFile(t, env.artifact()); got != "W0" {
		t.Fatalf("artifact changed to %q", got)
	}

	out, _, err = runCLI(t, env, "history")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "history is empty")
}

func TestRunForwardsArguments(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "single line verbatim", args: []string{"write out.wav a  b"}, want: "write out.wav a  b"},
		{name: "argv quoted", args: []string{"write", "out 1.wav", "x"}, want: "write 'out 1.wav' x"},
		{name: "plain argv", args: []string{"write", "out.wav", "x"}, want: "write out.wav x"},
		{name: "quote in argument", args: []string{"echo", "it's"}, want: `echo 'it'"'"'s'`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupCLITestEnv(t, false)
			testsupport.WriteFile(t, env.artifact(), "W0")
			env.exec.Handle = func(string) (int, error) { return 1, nil }

			_, _, err := runCLI(t, env, append([]string{"run", "--"}, tt.args...)...)
			if !errors.Is(err, detect.ErrDetectionTimeout) {
				t.Fatalf("expected detection timeout, got %v", err)
			}
			if len(env.exec.Calls) != 1 || env.exec.Calls[0] != tt.want {
				t.Fatalf("forwarded %q, want %q", env.exec.Calls, tt.want)
			}
		})
	}
}

func TestUndoOnEmptyHistory(t *testing.T) {
	env := setupCLITestEnv(t, false)
	_, _, err := runCLI(t, env, "undo")
	if !errors.Is(err, history.ErrNoHistory) {
		t.Fatalf("expected ErrNoHistory, got %v", err)
	}
}

func TestCommandsFailWhileSessionLocked(t *testing.T) {
	env := setupCLITestEnv(t, false)
	cfg, _, _, err := config.LoadWithDir(env.configPath, env.workDir)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	held, err := session.Open(context.Background(), cfg, env.opts)
	if err != nil {
		t.Fatalf("session.Open: %v", err)
	}
	defer held.Close()

	_, _, err = runCLI(t, env, "history")
	if !errors.Is(err, session.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
}

func TestLogShowsJournal(t *testing.T) {
	env := setupCLITestEnv(t, true)
	testsupport.WriteFile(t, env.artifact(), "W0")

	if _, _, err := runCLI(t, env, "run", "--", "write", "a.wav", "W1"); err != nil {
		t.Fatalf("run: %v", err)
	}
	if _, _, err := runCLI(t, env, "save", "keep.wav"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if got := testsupport.ReadFile(t, filepath.Join(env.workDir, "keep.wav")); got != "W1" {
		t.Fatalf("saved copy = %q", got)
	}

	out, _, err := runCLI(t, env, "log", "--limit", "5")
	if err != nil {
		t.Fatalf("log: %v", err)
	}
	requireContains(t, out, "write a.wav W1")
	requireContains(t, out, "Save")

	if _, _, err := runCLI(t, env, "log", "--limit", "0"); err == nil {
		t.Fatal("expected error for non-positive limit")
	}
}

func TestLogWithoutJournal(t *testing.T) {
	env := setupCLITestEnv(t, false)
	_, _, err := runCLI(t, env, "log")
	if !errors.Is(err, session.ErrJournalDisabled) {
		t.Fatalf("expected ErrJournalDisabled, got %v", err)
	}
}

func TestShellReadsFromStdin(t *testing.T) {
	env := setupCLITestEnv(t, false)
	testsupport.WriteFile(t, env.artifact(), "W0")

	cmd := newRootCommandWithOptions(env.opts)
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader("write x.wav X\n:undo\n:quit\n"))
	cmd.SetArgs([]string{"--config", env.configPath, "--dir", env.workDir})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("shell: %v", err)
	}
	requireContains(t, stdout.String(), "x.wav -> current.wav")
	requireContains(t, stdout.String(), "undo: restored")
	if got := testsupport.ReadFile(t, env.artifact()); got != "W0" {
		t.Fatalf("artifact = %q", got)
	}
}

func TestPrune(t *testing.T) {
	env := setupCLITestEnv(t, false)
	orphan := filepath.Join(env.workDir, ".wavsh", "redo_20261014T090000.000000000.wav")
	testsupport.WriteFile(t, orphan, "stale")

	out, _, err := runCLI(t, env, "prune")
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	requireContains(t, out, "1 entry file pruned")
	testsupport.AssertMissing(t, orphan)
}
