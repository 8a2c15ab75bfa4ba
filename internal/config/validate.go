package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateWork(); err != nil {
		return err
	}
	if err := c.validateDetect(); err != nil {
		return err
	}
	if err := c.validateShell(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateWork() error {
	if strings.ContainsAny(c.Work.Artifact, `/\`) {
		return fmt.Errorf("work.artifact must be a bare file name, got %q", c.Work.Artifact)
	}
	if filepath.Ext(c.Work.Artifact) == "" {
		return fmt.Errorf("work.artifact %q must have an extension", c.Work.Artifact)
	}
	if filepath.Clean(c.Work.BackupDir) == filepath.Clean(c.Work.Dir) {
		return errors.New("work.backup_dir must differ from work.dir")
	}
	return nil
}

func (c *Config) validateDetect() error {
	if c.Detect.PollIntervalMS <= 0 {
		return errors.New("detect.poll_interval_ms must be positive")
	}
	if c.Detect.TimeoutSeconds <= 0 {
		return errors.New("detect.timeout_seconds must be positive")
	}
	if c.PollInterval() > c.DetectTimeout() {
		return errors.New("detect.poll_interval_ms must not exceed detect.timeout_seconds")
	}
	return nil
}

func (c *Config) validateShell() error {
	if utf8.RuneCountInString(c.Shell.Sentinel) != 1 {
		return fmt.Errorf("shell.sentinel must be a single character, got %q", c.Shell.Sentinel)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
