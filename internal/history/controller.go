package history

import (
	"errors"
	"fmt"
	"log/slog"

	"wavsh/internal/backup"
	"wavsh/internal/logging"
)

// ErrNoHistory reports undo or redo on an empty stack.
var ErrNoHistory = errors.New("no history")

// Result describes a completed undo or redo.
type Result struct {
	// Restored is the entry copied over the artifact.
	Restored backup.Entry
	// Saved is the entry the previous artifact was copied to. It is zero when
	// there was no artifact to save.
	Saved        backup.Entry
	SavedCurrent bool
}

// Controller moves the working artifact along the history stacks.
type Controller struct {
	store  *backup.Store
	logger *slog.Logger
}

// New constructs a Controller.
func New(store *backup.Store, logger *slog.Logger) (*Controller, error) {
	if store == nil {
		return nil, errors.New("backup store required")
	}
	return &Controller{store: store, logger: logging.NewComponentLogger(logger, "history")}, nil
}

// Undo restores the most recent undo entry. The artifact being replaced is
// pushed onto the redo stack first.
func (c *Controller) Undo() (Result, error) {
	return c.step(direction{
		name:  "undo",
		role:  backup.RoleRedo,
		peek:  c.store.PeekUndo,
		pop:   c.store.PopUndo,
		push:  c.store.PushRedo,
		event: "undo_applied",
	})
}

// Redo reapplies the most recent redo entry. The artifact being replaced is
// pushed onto the undo stack first.
func (c *Controller) Redo() (Result, error) {
	return c.step(direction{
		name:  "redo",
		role:  backup.RoleBackup,
		peek:  c.store.PeekRedo,
		pop:   c.store.PopRedo,
		push:  c.store.PushUndo,
		event: "redo_applied",
	})
}

type direction struct {
	name  string
	role  backup.Role
	peek  func() (backup.Entry, bool)
	pop   func() (backup.Entry, bool)
	push  func(backup.Entry)
	event string
}

func (c *Controller) step(d direction) (Result, error) {
	tail, ok := d.peek()
	if !ok {
		return Result{}, fmt.Errorf("%w: nothing to %s", ErrNoHistory, d.name)
	}
	if !c.store.Exists(tail) {
		d.pop()
		logging.WarnWithContext(c.logger, "history entry missing on disk", d.name+"_dangling",
			logging.String(logging.FieldEntry, tail.Path),
			logging.String(logging.FieldErrorHint, "the backup directory was modified outside wavsh"),
			logging.String(logging.FieldImpact, "entry dropped from history"))
		missing := fmt.Errorf("%s: %w: %s", d.name, backup.ErrMissingArtifact, tail.Name())
		if err := c.store.Persist(); err != nil {
			return Result{}, errors.Join(missing, err)
		}
		return Result{}, missing
	}

	res := Result{Restored: tail}
	if c.store.ArtifactExists() {
		saved, err := c.store.CopyToEntry(d.role)
		if err != nil {
			return Result{}, fmt.Errorf("%s: save current artifact: %w", d.name, err)
		}
		res.Saved = saved
		res.SavedCurrent = true
	}

	if err := c.store.Restore(tail); err != nil {
		if res.SavedCurrent {
			_ = c.store.Remove(res.Saved)
		}
		return Result{}, fmt.Errorf("%s: %w", d.name, err)
	}

	d.pop()
	if res.SavedCurrent {
		d.push(res.Saved)
	}
	c.logger.Info(d.name+" applied",
		logging.String(logging.FieldEntry, tail.Path),
		logging.Bool("saved_current", res.SavedCurrent),
		logging.String(logging.FieldEventType, d.event))
	return res, c.store.Persist()
}
