// Package player hands the working artifact to an external playback command.
package player

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// FilePlaceholder in an argument is replaced by the artifact path. Without a
// placeholder the path is appended as the last argument.
const FilePlaceholder = "{file}"

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string) error
}

// Option configures the player.
type Option func(*Player)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(p *Player) {
		if exec != nil {
			p.exec = exec
		}
	}
}

// WithOutput redirects the player's stdout and stderr.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(p *Player) {
		if ce, ok := p.exec.(commandExecutor); ok {
			ce.stdout, ce.stderr = stdout, stderr
			p.exec = ce
		}
	}
}

// Player wraps the configured playback binary.
type Player struct {
	binary string
	args   []string
	exec   Executor
}

// New constructs a Player.
func New(binary string, args []string, opts ...Option) (*Player, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("playback command required")
	}
	p := &Player{
		binary: binary,
		args:   append([]string(nil), args...),
		exec:   commandExecutor{stdout: os.Stdout, stderr: os.Stderr},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Binary returns the playback command.
func (p *Player) Binary() string { return p.binary }

// Play blocks until the player exits.
func (p *Player) Play(ctx context.Context, path string) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("nothing to play")
	}
	if err := p.exec.Run(ctx, p.binary, p.Args(path)); err != nil {
		return fmt.Errorf("play %s: %w", path, err)
	}
	return nil
}

// Args returns the argument list used to play path.
func (p *Player) Args(path string) []string {
	out := make([]string, 0, len(p.args)+1)
	substituted := false
	for _, arg := range p.args {
		if strings.Contains(arg, FilePlaceholder) {
			arg = strings.ReplaceAll(arg, FilePlaceholder, path)
			substituted = true
		}
		out = append(out, arg)
	}
	if !substituted {
		out = append(out, path)
	}
	return out
}

type commandExecutor struct {
	stdout io.Writer
	stderr io.Writer
}

func (e commandExecutor) Run(ctx context.Context, binary string, args []string) error {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	cmd.Stdout = e.stdout
	cmd.Stderr = e.stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("run %s: %w", binary, err)
	}
	return nil
}
