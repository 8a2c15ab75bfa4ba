package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// Executor runs an opaque command line to completion and reports its exit
// status. A non-nil error means the command could not be run at all.
type Executor interface {
	Run(ctx context.Context, commandLine string) (exitCode int, err error)
}

// ShellExecutor runs command lines through `<Shell> -c`. A nil stream is
// connected to the null device.
type ShellExecutor struct {
	Shell  string
	Dir    string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// NewShellExecutor returns an executor writing to the process's own output
// streams. Commands read stdin; a nil stdin gives them the null device.
func NewShellExecutor(shell, dir string, stdin io.Reader) *ShellExecutor {
	return &ShellExecutor{
		Shell:  shell,
		Dir:    dir,
		Stdin:  stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

func (e *ShellExecutor) Run(ctx context.Context, commandLine string) (int, error) {
	shell := strings.TrimSpace(e.Shell)
	if shell == "" {
		shell = "/bin/sh"
	}
	cmd := exec.CommandContext(ctx, shell, "-c", commandLine) //nolint:gosec
	cmd.Dir = e.Dir
	cmd.Stdin = e.Stdin
	cmd.Stdout = e.Stdout
	cmd.Stderr = e.Stderr
	err := cmd.Run()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return -1, fmt.Errorf("start %s: %w", shell, err)
}
