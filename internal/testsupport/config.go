package testsupport

import (
	"path/filepath"
	"testing"

	"wavsh/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t   testing.TB
	cfg *config.Config
}

// NewConfig produces a config rooted in a fresh temp working directory with
// fast detection settings. The journal is disabled unless WithJournal is used.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Work.Dir = base
	cfgVal.Work.BackupDir = filepath.Join(base, ".wavsh")
	cfgVal.Detect.PollIntervalMS = 10
	cfgVal.Detect.TimeoutSeconds = 1
	cfgVal.Detect.Extensions = []string{cfgVal.ArtifactExt()}
	cfgVal.Journal.Enabled = false

	builder := &configBuilder{t: t, cfg: &cfgVal}
	for _, opt := range opts {
		opt(builder)
	}
	if err := builder.cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	return builder.cfg
}

// WithJournal enables the SQLite journal.
func WithJournal() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Journal.Enabled = true
	}
}

// WithArtifact renames the working artifact and resets detection extensions.
func WithArtifact(name string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Work.Artifact = name
		b.cfg.Detect.Extensions = []string{b.cfg.ArtifactExt()}
	}
}

// WithPlayer sets the playback command.
func WithPlayer(command string, args ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Playback.Command = command
		b.cfg.Playback.Args = args
	}
}
