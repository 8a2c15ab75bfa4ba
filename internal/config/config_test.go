package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"wavsh/internal/config"
)

func TestLoadDefaultsResolveAgainstWorkDir(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	workDir := t.TempDir()

	cfg, resolved, exists, err := config.LoadWithDir("", workDir)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	if cfg.Work.Dir != workDir {
		t.Fatalf("unexpected work dir: got %q want %q", cfg.Work.Dir, workDir)
	}
	if want := filepath.Join(workDir, ".wavsh"); cfg.Work.BackupDir != want {
		t.Fatalf("unexpected backup dir: got %q want %q", cfg.Work.BackupDir, want)
	}
	if cfg.ArtifactPath() != filepath.Join(workDir, "current.wav") {
		t.Fatalf("unexpected artifact path: %q", cfg.ArtifactPath())
	}
	if cfg.StacksPath() != filepath.Join(cfg.Work.BackupDir, "stacks.json") {
		t.Fatalf("unexpected stacks path: %q", cfg.StacksPath())
	}
	if len(cfg.Detect.Extensions) != 1 || cfg.Detect.Extensions[0] != ".wav" {
		t.Fatalf("expected extensions to default to artifact extension, got %v", cfg.Detect.Extensions)
	}
	if cfg.PollInterval() != 250*time.Millisecond {
		t.Fatalf("unexpected poll interval: %s", cfg.PollInterval())
	}
	if cfg.DetectTimeout() != 5*time.Second {
		t.Fatalf("unexpected detect timeout: %s", cfg.DetectTimeout())
	}
	if cfg.Shell.Sentinel != ":" {
		t.Fatalf("unexpected sentinel: %q", cfg.Shell.Sentinel)
	}
	if !cfg.Journal.Enabled {
		t.Fatal("expected journal enabled by default")
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	info, err := os.Stat(cfg.Work.BackupDir)
	if err != nil || !info.IsDir() {
		t.Fatalf("expected backup dir to exist: %v", err)
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "wavsh.toml")

	type payload struct {
		Work struct {
			Dir       string `toml:"dir"`
			Artifact  string `toml:"artifact"`
			BackupDir string `toml:"backup_dir"`
		} `toml:"work"`
		Detect struct {
			PollIntervalMS int      `toml:"poll_interval_ms"`
			TimeoutSeconds int      `toml:"timeout_seconds"`
			Extensions     []string `toml:"extensions"`
		} `toml:"detect"`
		Shell struct {
			Sentinel string `toml:"sentinel"`
		} `toml:"shell"`
	}
	custom := payload{}
	custom.Work.Dir = tempDir
	custom.Work.Artifact = "work.flac"
	custom.Work.BackupDir = "history"
	custom.Detect.PollIntervalMS = 50
	custom.Detect.TimeoutSeconds = 2
	custom.Detect.Extensions = []string{"FLAC", ".wav", "flac"}
	custom.Shell.Sentinel = "!"
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.ArtifactExt() != ".flac" {
		t.Fatalf("unexpected artifact ext: %q", cfg.ArtifactExt())
	}
	if cfg.Work.BackupDir != filepath.Join(tempDir, "history") {
		t.Fatalf("unexpected backup dir: %q", cfg.Work.BackupDir)
	}
	if got := strings.Join(cfg.Detect.Extensions, ","); got != ".flac,.wav" {
		t.Fatalf("expected normalized, deduplicated extensions, got %q", got)
	}
	if cfg.Shell.Sentinel != "!" {
		t.Fatalf("unexpected sentinel: %q", cfg.Shell.Sentinel)
	}
}

func TestProjectConfigDiscoveredInWorkDir(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	workDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(workDir, "wavsh.toml"), []byte("[work]\nartifact = \"mix.wav\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, exists, err := config.LoadWithDir("", workDir)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != filepath.Join(workDir, "wavsh.toml") {
		t.Fatalf("expected project config, got %q exists=%v", resolved, exists)
	}
	if cfg.Work.Artifact != "mix.wav" {
		t.Fatalf("unexpected artifact: %q", cfg.Work.Artifact)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("WAVSH_ARTIFACT", "env.wav")
	t.Setenv("WAVSH_PLAYER", "ffplay")

	cfg, _, _, err := config.LoadWithDir("", t.TempDir())
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Work.Artifact != "env.wav" {
		t.Errorf("expected artifact from env, got %q", cfg.Work.Artifact)
	}
	if cfg.Playback.Command != "ffplay" {
		t.Errorf("expected player from env, got %q", cfg.Playback.Command)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if cfg.Work.Artifact != "current.wav" {
		t.Fatalf("unexpected sample artifact: %q", cfg.Work.Artifact)
	}
	if cfg.Detect.TimeoutSeconds != 5 {
		t.Fatalf("unexpected sample timeout: %d", cfg.Detect.TimeoutSeconds)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"artifact with directory", func(c *config.Config) { c.Work.Artifact = "sub/current.wav" }},
		{"artifact without extension", func(c *config.Config) { c.Work.Artifact = "current" }},
		{"zero poll interval", func(c *config.Config) { c.Detect.PollIntervalMS = 0 }},
		{"zero timeout", func(c *config.Config) { c.Detect.TimeoutSeconds = 0 }},
		{"interval beyond timeout", func(c *config.Config) { c.Detect.PollIntervalMS = 10_000; c.Detect.TimeoutSeconds = 1 }},
		{"multi character sentinel", func(c *config.Config) { c.Shell.Sentinel = "::" }},
		{"unknown log format", func(c *config.Config) { c.Logging.Format = "xml" }},
		{"unknown log level", func(c *config.Config) { c.Logging.Level = "loud" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}

	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}
