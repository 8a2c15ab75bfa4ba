package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"wavsh/internal/backup"
	"wavsh/internal/config"
	"wavsh/internal/deps"
	"wavsh/internal/detect"
	"wavsh/internal/fileutil"
	"wavsh/internal/history"
	"wavsh/internal/journal"
	"wavsh/internal/logging"
	"wavsh/internal/player"
	"wavsh/internal/runner"
)

// Options overrides collaborators; zero values select the real ones.
type Options struct {
	// SessionID defaults to a random UUID.
	SessionID string
	// Executor runs forwarded lines. Defaults to the configured shell.
	Executor runner.Executor
	// Stdin feeds forwarded commands run by the default executor. Nil means
	// they read nothing.
	Stdin io.Reader
	// PlayerExecutor runs the playback command.
	PlayerExecutor player.Executor
	// Clock drives the detector's poll loop.
	Clock detect.Clock
	// Now stamps backup entries.
	Now    func() time.Time
	Logger *slog.Logger
}

// Session is the single owner of a working directory's state. It is not
// safe for concurrent use.
type Session struct {
	cfg        *config.Config
	id         string
	lock       *flock.Flock
	store      *backup.Store
	runner     *runner.Runner
	controller *history.Controller
	player     *player.Player
	journal    *journal.Journal
	logger     *slog.Logger
	loadErr    error
	closed     bool
}

// Open locks the backup directory and loads persisted stacks. A corrupt
// stacks file does not fail Open; it is reported through LoadWarning.
func Open(ctx context.Context, cfg *config.Config, opts Options) (*Session, error) {
	if cfg == nil {
		return nil, errors.New("config required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	lock := flock.New(cfg.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", cfg.LockPath(), err)
	}
	if !locked {
		return nil, fmt.Errorf("%w (lock %s)", ErrLocked, cfg.LockPath())
	}

	s, err := build(ctx, cfg, opts, lock)
	if err != nil {
		_ = lock.Unlock()
		return nil, err
	}
	return s, nil
}

func build(ctx context.Context, cfg *config.Config, opts Options, lock *flock.Flock) (*Session, error) {
	id := strings.TrimSpace(opts.SessionID)
	if id == "" {
		id = uuid.NewString()
	}
	logger := logging.NewComponentLogger(opts.Logger, "session")

	store, err := backup.Open(backup.Options{
		ArtifactPath: cfg.ArtifactPath(),
		Dir:          cfg.Work.BackupDir,
		StacksPath:   cfg.StacksPath(),
		Now:          opts.Now,
		Logger:       opts.Logger,
	})
	if err != nil {
		return nil, err
	}
	loadErr := store.Load()

	detector, err := detect.New(detect.Options{
		Dir:          cfg.Work.Dir,
		Artifact:     cfg.Work.Artifact,
		Extensions:   cfg.Detect.Extensions,
		PollInterval: cfg.PollInterval(),
		Timeout:      cfg.DetectTimeout(),
		Clock:        opts.Clock,
		Logger:       opts.Logger,
	})
	if err != nil {
		return nil, err
	}

	exec := opts.Executor
	if exec == nil {
		shellReq := deps.Requirement{Name: "Shell", Command: cfg.Shell.Program}
		if missing := deps.Missing(deps.CheckBinaries([]deps.Requirement{shellReq})); len(missing) > 0 {
			return nil, fmt.Errorf("shell.shell: %s", missing[0].Detail)
		}
		exec = runner.NewShellExecutor(cfg.Shell.Program, cfg.Work.Dir, opts.Stdin)
	}
	r, err := runner.New(store, detector, exec, opts.Logger)
	if err != nil {
		return nil, err
	}
	controller, err := history.New(store, opts.Logger)
	if err != nil {
		return nil, err
	}

	var p *player.Player
	if strings.TrimSpace(cfg.Playback.Command) != "" {
		p, err = player.New(cfg.Playback.Command, cfg.Playback.Args, player.WithExecutor(opts.PlayerExecutor))
		if err != nil {
			return nil, err
		}
	}

	var j *journal.Journal
	if cfg.Journal.Enabled {
		j, err = journal.Open(ctx, cfg.JournalPath(), id)
		if err != nil {
			logging.WarnWithContext(logger, "journal unavailable", "journal_open_failed",
				logging.String("path", cfg.JournalPath()),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "delete journal.db or set journal.enabled = false"),
				logging.String(logging.FieldImpact, "operations are not journaled this session"))
			j = nil
		}
	}

	logger.Info("session opened",
		logging.String("artifact", cfg.ArtifactPath()),
		logging.Int("undo", len(store.Stacks().Undo)),
		logging.Int("redo", len(store.Stacks().Redo)),
		logging.Bool("journal", j != nil))

	return &Session{
		cfg:        cfg,
		id:         id,
		lock:       lock,
		store:      store,
		runner:     r,
		controller: controller,
		player:     p,
		journal:    j,
		logger:     logger,
		loadErr:    loadErr,
	}, nil
}

// ID returns the session identifier recorded in the journal and logs.
func (s *Session) ID() string { return s.id }

// Config returns the configuration the session was opened with.
func (s *Session) Config() *config.Config { return s.cfg }

// LoadWarning returns the error from loading the stacks file, if any. It
// wraps backup.ErrPersistenceCorruption when the file was unreadable.
func (s *Session) LoadWarning() error { return s.loadErr }

// Stacks returns a copy of the undo and redo stacks.
func (s *Session) Stacks() backup.Stacks { return s.store.Stacks() }

// Run forwards line to the executor and folds new output into the artifact.
func (s *Session) Run(ctx context.Context, line string) (runner.Outcome, error) {
	return s.run(ctx, line, true)
}

// RunWithoutBackup runs line without snapshotting the artifact first. The
// resulting change cannot be undone.
func (s *Session) RunWithoutBackup(ctx context.Context, line string) (runner.Outcome, error) {
	return s.run(ctx, line, false)
}

func (s *Session) run(ctx context.Context, line string, doBackup bool) (runner.Outcome, error) {
	out, err := s.runner.Run(ctx, line, doBackup)
	rec := journal.Record{
		Kind:     journal.KindRun,
		Command:  line,
		Outcome:  outcomeFor(err),
		ExitCode: journal.ExitCodeOf(out.ExitCode),
		Entry:    out.Entry.Path,
		Detail:   detailFor(err),
	}
	s.record(ctx, rec)
	return out, err
}

// Undo reverts the most recent change.
func (s *Session) Undo(ctx context.Context) (history.Result, error) {
	res, err := s.controller.Undo()
	s.record(ctx, journal.Record{Kind: journal.KindUndo, Outcome: outcomeFor(err), Entry: res.Restored.Path, Detail: detailFor(err)})
	return res, err
}

// Redo reapplies the most recently undone change.
func (s *Session) Redo(ctx context.Context) (history.Result, error) {
	res, err := s.controller.Redo()
	s.record(ctx, journal.Record{Kind: journal.KindRedo, Outcome: outcomeFor(err), Entry: res.Restored.Path, Detail: detailFor(err)})
	return res, err
}

// Save copies the working artifact to name, resolved against the working
// directory. name must carry the artifact's extension.
func (s *Session) Save(ctx context.Context, name string) (string, error) {
	target, err := s.save(name)
	s.record(ctx, journal.Record{Kind: journal.KindSave, Outcome: outcomeFor(err), Entry: target, Detail: detailFor(err)})
	return target, err
}

func (s *Session) save(name string) (string, error) {
	name = strings.TrimSpace(name)
	ext := s.cfg.ArtifactExt()
	if name == "" || !strings.EqualFold(filepath.Ext(name), ext) {
		return "", fmt.Errorf("%w: save <file%s>", ErrInvalidUsage, ext)
	}
	target := name
	if strings.HasPrefix(target, "~") {
		expanded, err := config.ExpandPath(target)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrInvalidUsage, err)
		}
		target = expanded
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(s.cfg.Work.Dir, target)
	}
	if filepath.Clean(target) == filepath.Clean(s.store.ArtifactPath()) {
		return "", fmt.Errorf("%w: cannot save over the working artifact", ErrInvalidUsage)
	}
	if !s.store.ArtifactExists() {
		return "", fmt.Errorf("save: %w", backup.ErrMissingArtifact)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("save: %w", err)
	}
	if err := fileutil.CopyFile(s.store.ArtifactPath(), target); err != nil {
		return "", fmt.Errorf("save: %w", err)
	}
	s.logger.Info("artifact saved", logging.String("target", target))
	return target, nil
}

// Play hands the working artifact to the configured player and blocks until
// it exits.
func (s *Session) Play(ctx context.Context) error {
	err := s.play(ctx)
	s.record(ctx, journal.Record{Kind: journal.KindPlay, Outcome: outcomeFor(err), Detail: detailFor(err)})
	return err
}

func (s *Session) play(ctx context.Context) error {
	if s.player == nil {
		return ErrNoPlayer
	}
	if !s.store.ArtifactExists() {
		return fmt.Errorf("play: %w", backup.ErrMissingArtifact)
	}
	return s.player.Play(ctx, s.store.ArtifactPath())
}

// Prune deletes backup entries that neither stack references.
func (s *Session) Prune(ctx context.Context) ([]string, error) {
	removed, err := s.store.Prune()
	s.record(ctx, journal.Record{
		Kind:    journal.KindPrune,
		Outcome: outcomeFor(err),
		Detail:  textOr(detailFor(err), fmt.Sprintf("removed %d", len(removed))),
	})
	return removed, err
}

// Recent returns the last n journal records, oldest first.
func (s *Session) Recent(ctx context.Context, n int) ([]journal.Record, error) {
	if s.journal == nil {
		return nil, ErrJournalDisabled
	}
	return s.journal.Recent(ctx, n)
}

// Persist writes the stacks file.
func (s *Session) Persist() error {
	return s.store.Persist()
}

// Close persists the stacks, closes the journal and releases the lock. It is
// safe to call more than once.
func (s *Session) Close() error {
	if s == nil || s.closed {
		return nil
	}
	s.closed = true
	var errs []error
	if err := s.store.Persist(); err != nil {
		errs = append(errs, err)
	}
	if err := s.journal.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close journal: %w", err))
	}
	if err := s.lock.Unlock(); err != nil {
		errs = append(errs, fmt.Errorf("release lock: %w", err))
	}
	s.logger.Info("session closed")
	return errors.Join(errs...)
}

func (s *Session) record(ctx context.Context, rec journal.Record) {
	if s.journal == nil {
		return
	}
	if _, err := s.journal.Append(ctx, rec); err != nil {
		s.logger.Warn("journal append failed",
			logging.String("kind", string(rec.Kind)),
			logging.Error(err),
			logging.String(logging.FieldEventType, "journal_append_failed"),
			logging.String(logging.FieldImpact, "operation missing from the journal"))
	}
}

func textOr(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}
