package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizeWork(); err != nil {
		return err
	}
	c.normalizeDetect()
	c.normalizeShell()
	c.normalizePlayback()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeWork() error {
	if value, ok := os.LookupEnv("WAVSH_ARTIFACT"); ok && strings.TrimSpace(value) != "" {
		c.Work.Artifact = value
	}
	c.Work.Artifact = strings.TrimSpace(c.Work.Artifact)
	if c.Work.Artifact == "" {
		c.Work.Artifact = defaultArtifact
	}

	if strings.TrimSpace(c.Work.Dir) == "" {
		c.Work.Dir = defaultWorkDir
	}
	var err error
	if c.Work.Dir, err = expandPath(c.Work.Dir); err != nil {
		return fmt.Errorf("work.dir: %w", err)
	}

	backup := strings.TrimSpace(c.Work.BackupDir)
	if backup == "" {
		backup = defaultBackupDir
	}
	if !filepath.IsAbs(backup) && !strings.HasPrefix(backup, "~") {
		backup = filepath.Join(c.Work.Dir, backup)
	}
	if c.Work.BackupDir, err = expandPath(backup); err != nil {
		return fmt.Errorf("work.backup_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeDetect() {
	exts := make([]string, 0, len(c.Detect.Extensions)+1)
	seen := make(map[string]struct{}, len(c.Detect.Extensions)+1)
	add := func(ext string) {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			return
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if _, exists := seen[ext]; exists {
			return
		}
		seen[ext] = struct{}{}
		exts = append(exts, ext)
	}
	for _, ext := range c.Detect.Extensions {
		add(ext)
	}
	if len(exts) == 0 {
		add(c.ArtifactExt())
	}
	c.Detect.Extensions = exts
}

func (c *Config) normalizeShell() {
	c.Shell.Sentinel = strings.TrimSpace(c.Shell.Sentinel)
	if c.Shell.Sentinel == "" {
		c.Shell.Sentinel = defaultSentinel
	}
	if c.Shell.Prompt == "" {
		c.Shell.Prompt = defaultPrompt
	}
	c.Shell.Program = strings.TrimSpace(c.Shell.Program)
	if c.Shell.Program == "" {
		c.Shell.Program = defaultShellProgram
	}
}

func (c *Config) normalizePlayback() {
	if value, ok := os.LookupEnv("WAVSH_PLAYER"); ok && strings.TrimSpace(value) != "" {
		c.Playback.Command = value
	}
	c.Playback.Command = strings.TrimSpace(c.Playback.Command)
	if c.Playback.Command == "" {
		c.Playback.Command = defaultPlayer
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
