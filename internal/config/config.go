package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Work locates the working artifact and its backup directory.
type Work struct {
	Dir       string `toml:"dir"`
	Artifact  string `toml:"artifact"`
	BackupDir string `toml:"backup_dir"`
}

// Detect tunes how command output is discovered after a command returns.
type Detect struct {
	PollIntervalMS int      `toml:"poll_interval_ms"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
	Extensions     []string `toml:"extensions"`
}

// Shell contains interactive loop settings.
type Shell struct {
	Sentinel string `toml:"sentinel"`
	Prompt   string `toml:"prompt"`
	Program  string `toml:"shell"`
}

// Playback names the external player used by the play command.
type Playback struct {
	Command string   `toml:"command"`
	Args    []string `toml:"args"`
}

// Journal controls the SQLite operation journal.
type Journal struct {
	Enabled bool `toml:"enabled"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for wavsh.
//
// Configuration sections:
//   - Work: working directory, artifact name, backup directory
//   - Detect: output detection poll interval, timeout and extensions
//   - Shell: sentinel character, prompt and the shell used to run lines
//   - Playback: external player command
//   - Journal: operation journal toggle
//   - Logging: log format and level
type Config struct {
	Work     Work     `toml:"work"`
	Detect   Detect   `toml:"detect"`
	Shell    Shell    `toml:"shell"`
	Playback Playback `toml:"playback"`
	Journal  Journal  `toml:"journal"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/wavsh/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	return LoadWithDir(path, "")
}

// LoadWithDir behaves like Load but overrides work.dir when dir is non-empty.
func LoadWithDir(path, dir string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path, dir)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if strings.TrimSpace(dir) != "" {
		cfg.Work.Dir = dir
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path, dir string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(filepath.Join(dir, "wavsh.toml"))
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the backup directory.
func (c *Config) EnsureDirectories() error {
	if err := os.MkdirAll(c.Work.BackupDir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", c.Work.BackupDir, err)
	}
	return nil
}

// ArtifactPath returns the absolute path of the working artifact.
func (c *Config) ArtifactPath() string {
	return filepath.Join(c.Work.Dir, c.Work.Artifact)
}

// ArtifactExt returns the working artifact's extension including the dot.
func (c *Config) ArtifactExt() string {
	return filepath.Ext(c.Work.Artifact)
}

// StacksPath returns the persisted undo/redo stacks file.
func (c *Config) StacksPath() string {
	return filepath.Join(c.Work.BackupDir, "stacks.json")
}

// JournalPath returns the SQLite operation journal location.
func (c *Config) JournalPath() string {
	return filepath.Join(c.Work.BackupDir, "journal.db")
}

// LogPath returns the log file location.
func (c *Config) LogPath() string {
	return filepath.Join(c.Work.BackupDir, "wavsh.log")
}

// LockPath returns the single-instance lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Work.BackupDir, "wavsh.lock")
}

// PollInterval returns the detection poll interval.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Detect.PollIntervalMS) * time.Millisecond
}

// DetectTimeout returns the overall detection deadline measured from the first poll.
func (c *Config) DetectTimeout() time.Duration {
	return time.Duration(c.Detect.TimeoutSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
