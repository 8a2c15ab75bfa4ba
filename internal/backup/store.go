package backup

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"wavsh/internal/fileutil"
	"wavsh/internal/logging"
)

// Options configures a Store.
type Options struct {
	// ArtifactPath is the absolute path of the working artifact.
	ArtifactPath string
	// Dir is the backup directory; created when absent.
	Dir string
	// StacksPath defaults to Dir/stacks.json.
	StacksPath string
	// Now defaults to time.Now.
	Now    func() time.Time
	Logger *slog.Logger
}

// Store owns the backup directory and the undo/redo stacks. It is not safe
// for concurrent use; a shell session is its only owner.
type Store struct {
	artifact   string
	workDir    string
	dir        string
	stacksPath string
	ext        string
	now        func() time.Time
	last       time.Time
	stacks     Stacks
	logger     *slog.Logger
}

// Open prepares the backup directory. Stacks start empty until Load is called.
func Open(opts Options) (*Store, error) {
	artifact := strings.TrimSpace(opts.ArtifactPath)
	if artifact == "" {
		return nil, errors.New("artifact path required")
	}
	dir := strings.TrimSpace(opts.Dir)
	if dir == "" {
		return nil, errors.New("backup directory required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create backup directory: %w", err)
	}
	stacksPath := strings.TrimSpace(opts.StacksPath)
	if stacksPath == "" {
		stacksPath = filepath.Join(dir, "stacks.json")
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Store{
		artifact:   artifact,
		workDir:    filepath.Dir(artifact),
		dir:        dir,
		stacksPath: stacksPath,
		ext:        filepath.Ext(artifact),
		now:        now,
		stacks:     emptyStacks(),
		logger:     logging.NewComponentLogger(opts.Logger, "backup"),
	}, nil
}

// ArtifactPath returns the working artifact location.
func (s *Store) ArtifactPath() string { return s.artifact }

// Dir returns the backup directory.
func (s *Store) Dir() string { return s.dir }

// StacksPath returns the persisted stacks file location.
func (s *Store) StacksPath() string { return s.stacksPath }

// ArtifactExists reports whether the working artifact is present.
func (s *Store) ArtifactExists() bool {
	return fileutil.Exists(s.artifact)
}

// Stacks returns a copy of the current stacks.
func (s *Store) Stacks() Stacks {
	return s.stacks.clone()
}

// Resolve returns the absolute location of an entry.
func (s *Store) Resolve(e Entry) string {
	if filepath.IsAbs(e.Path) {
		return e.Path
	}
	return filepath.Join(s.workDir, e.Path)
}

// Exists reports whether the entry's file is still on disk.
func (s *Store) Exists(e Entry) bool {
	return fileutil.Exists(s.Resolve(e))
}

// Load replaces the in-memory stacks with the persisted ones. A missing file
// yields empty stacks. Corrupt content also yields empty stacks and returns an
// error wrapping ErrPersistenceCorruption.
func (s *Store) Load() error {
	data, err := os.ReadFile(s.stacksPath)
	if err != nil {
		s.stacks = emptyStacks()
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("%w: read %s: %w", ErrPersistenceCorruption, filepath.Base(s.stacksPath), err)
	}
	stacks, err := decodeStacks(data)
	if err != nil {
		s.stacks = emptyStacks()
		logging.WarnWithContext(s.logger, "persisted stacks unreadable", "stacks_corrupt",
			logging.String("path", s.stacksPath),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "inspect or delete the stacks file"),
			logging.String(logging.FieldImpact, "undo and redo history start empty"))
		return err
	}
	s.stacks = stacks
	s.logger.Debug("loaded stacks",
		logging.Int("undo", len(stacks.Undo)),
		logging.Int("redo", len(stacks.Redo)))
	return nil
}

// Persist writes the stacks file atomically.
func (s *Store) Persist() error {
	data, err := encodeStacks(s.stacks)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	if err := fileutil.WriteFileAtomic(s.stacksPath, data, 0o644); err != nil {
		logging.WarnWithContext(s.logger, "failed to persist stacks", "stacks_persist_failed",
			logging.String("path", s.stacksPath),
			logging.Error(err),
			logging.String(logging.FieldImpact, "history will not survive a restart until the next successful write"))
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return nil
}

// NewEntry reserves a fresh, unused entry name for role. Stamps never repeat
// or go backwards within a Store, and names already on disk are skipped.
func (s *Store) NewEntry(role Role) Entry {
	ts := s.now().UTC()
	if !ts.After(s.last) {
		ts = s.last.Add(time.Nanosecond)
	}
	for {
		name := entryName(role, ts, s.ext)
		abs := filepath.Join(s.dir, name)
		if _, err := os.Lstat(abs); errors.Is(err, fs.ErrNotExist) {
			s.last = ts
			return Entry{Path: s.record(abs), Role: role}
		}
		ts = ts.Add(time.Nanosecond)
	}
}

// CopyToEntry copies the working artifact into a new entry without touching
// the stacks.
func (s *Store) CopyToEntry(role Role) (Entry, error) {
	if !s.ArtifactExists() {
		return Entry{}, fmt.Errorf("%w: %s", ErrMissingArtifact, filepath.Base(s.artifact))
	}
	entry := s.NewEntry(role)
	if err := fileutil.CopyFile(s.artifact, s.Resolve(entry)); err != nil {
		return Entry{}, fmt.Errorf("copy artifact to %s: %w", entry.Name(), err)
	}
	return entry, nil
}

// Snapshot copies the working artifact to a backup entry, pushes it onto the
// undo stack and persists. ok is false when there is no artifact to snapshot.
// A returned error wrapping ErrPersist means the snapshot itself succeeded.
func (s *Store) Snapshot() (entry Entry, ok bool, err error) {
	if !s.ArtifactExists() {
		return Entry{}, false, nil
	}
	entry, err = s.CopyToEntry(RoleBackup)
	if err != nil {
		return Entry{}, false, err
	}
	s.PushUndo(entry)
	s.logger.Debug("snapshot taken", logging.String(logging.FieldEntry, entry.Path))
	return entry, true, s.Persist()
}

// Materialize moves an externally produced file into the backup directory as
// a state entry and copies it over the working artifact.
func (s *Store) Materialize(candidate string) (Entry, error) {
	if !fileutil.Exists(candidate) {
		return Entry{}, fmt.Errorf("%w: %s", ErrMissingArtifact, filepath.Base(candidate))
	}
	entry := s.NewEntry(RoleState)
	abs := s.Resolve(entry)
	if err := fileutil.MoveFile(candidate, abs); err != nil {
		return Entry{}, fmt.Errorf("move %s into backups: %w", filepath.Base(candidate), err)
	}
	if err := fileutil.CopyFile(abs, s.artifact); err != nil {
		if moveErr := fileutil.MoveFile(abs, candidate); moveErr != nil {
			s.logger.Error("failed to return output after copy failure",
				logging.String("candidate", candidate),
				logging.Error(moveErr))
		}
		return Entry{}, fmt.Errorf("copy %s over artifact: %w", entry.Name(), err)
	}
	s.logger.Debug("materialized output",
		logging.String("candidate", candidate),
		logging.String(logging.FieldEntry, entry.Path))
	return entry, nil
}

// Restore copies an entry over the working artifact.
func (s *Store) Restore(e Entry) error {
	src := s.Resolve(e)
	if !fileutil.Exists(src) {
		return fmt.Errorf("%w: backup %s", ErrMissingArtifact, e.Name())
	}
	if err := fileutil.CopyFile(src, s.artifact); err != nil {
		return fmt.Errorf("restore %s: %w", e.Name(), err)
	}
	return nil
}

// ArtifactMatches reports whether the working artifact still holds exactly
// the bytes stored in e.
func (s *Store) ArtifactMatches(e Entry) (bool, error) {
	return fileutil.SameContent(s.artifact, s.Resolve(e))
}

// Remove deletes an entry file that is no longer referenced.
func (s *Store) Remove(e Entry) error {
	if err := os.Remove(s.Resolve(e)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (s *Store) PushUndo(e Entry) { s.stacks.Undo = append(s.stacks.Undo, e.Path) }

func (s *Store) PushRedo(e Entry) { s.stacks.Redo = append(s.stacks.Redo, e.Path) }

// PeekUndo returns the undo tail without removing it.
func (s *Store) PeekUndo() (Entry, bool) { return peek(s.stacks.Undo) }

// PeekRedo returns the redo tail without removing it.
func (s *Store) PeekRedo() (Entry, bool) { return peek(s.stacks.Redo) }

// PopUndo removes and returns the undo tail.
func (s *Store) PopUndo() (Entry, bool) { return pop(&s.stacks.Undo) }

// PopRedo removes and returns the redo tail.
func (s *Store) PopRedo() (Entry, bool) { return pop(&s.stacks.Redo) }

// ClearRedo empties the redo stack and returns how many entries it held.
func (s *Store) ClearRedo() int {
	n := len(s.stacks.Redo)
	s.stacks.Redo = []string{}
	return n
}

// DiscardUndoTail pops e off the undo stack when it is the tail and removes
// its file. Used to back out a snapshot that turned out to be unnecessary.
func (s *Store) DiscardUndoTail(e Entry) bool {
	tail, ok := s.PeekUndo()
	if !ok || tail.Path != e.Path {
		return false
	}
	s.PopUndo()
	if err := s.Remove(e); err != nil {
		s.logger.Debug("remove discarded snapshot", logging.String(logging.FieldEntry, e.Path), logging.Error(err))
	}
	return true
}

// record converts an absolute entry location to the form stored in the
// stacks file: relative to the working directory when nested under it.
func (s *Store) record(abs string) string {
	rel, err := filepath.Rel(s.workDir, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return abs
	}
	return rel
}

func peek(stack []string) (Entry, bool) {
	if len(stack) == 0 {
		return Entry{}, false
	}
	return ParseEntry(stack[len(stack)-1]), true
}

func pop(stack *[]string) (Entry, bool) {
	entry, ok := peek(*stack)
	if !ok {
		return Entry{}, false
	}
	*stack = (*stack)[:len(*stack)-1]
	return entry, true
}
