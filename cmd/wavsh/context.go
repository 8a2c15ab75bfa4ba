package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"wavsh/internal/config"
	"wavsh/internal/logging"
	"wavsh/internal/session"
)

type commandContext struct {
	configFlag *string
	dirFlag    *string
	verbose    *bool
	opts       session.Options
	logger     *slog.Logger

	configOnce   sync.Once
	config       *config.Config
	configPath   string
	configExists bool
	configErr    error
}

func newCommandContext(configFlag, dirFlag *string, verbose *bool, opts session.Options) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		dirFlag:    dirFlag,
		verbose:    verbose,
		opts:       opts,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, path, exists, err := config.LoadWithDir(flagValue(c.configFlag), flagValue(c.dirFlag))
		if err != nil {
			c.configErr = fmt.Errorf("load config: %w", err)
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = path
		c.configExists = exists
	})
	return c.config, c.configErr
}

// withSession opens the working directory's session for the duration of fn.
// The session is closed afterwards and its close error joined with fn's.
// Forwarded commands get no stdin.
func (c *commandContext) withSession(cmd *cobra.Command, fn func(*session.Session) error) error {
	return c.withSessionInput(cmd, nil, fn)
}

// withSessionInput is withSession with stdin handed to forwarded commands.
func (c *commandContext) withSessionInput(cmd *cobra.Command, stdin io.Reader, fn func(*session.Session) error) (err error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}

	opts := c.opts
	if opts.Stdin == nil {
		opts.Stdin = stdin
	}
	if strings.TrimSpace(opts.SessionID) == "" {
		opts.SessionID = uuid.NewString()
	}
	if opts.Logger == nil {
		logger, err := logging.NewFromConfig(cfg, opts.SessionID, c.verboseEnabled())
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		opts.Logger = logger
	}
	c.logger = opts.Logger

	sess, err := session.Open(cmd.Context(), cfg, opts)
	if err != nil {
		if errors.Is(err, session.ErrLocked) {
			return fmt.Errorf("%w: is another wavsh running in %s?", err, cfg.Work.Dir)
		}
		return err
	}
	defer func() {
		err = errors.Join(err, sess.Close())
	}()
	return fn(sess)
}

func (c *commandContext) verboseEnabled() bool {
	return c.verbose != nil && *c.verbose
}

func flagValue(v *string) string {
	if v == nil {
		return ""
	}
	return strings.TrimSpace(*v)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
