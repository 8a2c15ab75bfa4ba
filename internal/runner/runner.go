package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"wavsh/internal/backup"
	"wavsh/internal/detect"
	"wavsh/internal/logging"
)

// Outcome describes one forwarded command.
type Outcome struct {
	Command  string
	ExitCode int
	// Snapshot is the backup entry taken before execution, if any. It is
	// zero after a failed run that left the artifact untouched.
	Snapshot backup.Entry
	// ArtifactChanged reports a failed or output-less run that modified the
	// artifact in place. The snapshot is kept on the undo stack.
	ArtifactChanged bool
	// Detected reports whether new output was folded into the artifact.
	Detected  bool
	Candidate detect.Candidate
	// Entry is the state entry the output was moved to.
	Entry       backup.Entry
	RedoCleared int
}

// Runner ties the executor to the detector and the store.
type Runner struct {
	store    *backup.Store
	detector *detect.Detector
	exec     Executor
	logger   *slog.Logger
}

// New constructs a Runner.
func New(store *backup.Store, detector *detect.Detector, exec Executor, logger *slog.Logger) (*Runner, error) {
	if store == nil {
		return nil, errors.New("backup store required")
	}
	if detector == nil {
		return nil, errors.New("detector required")
	}
	if exec == nil {
		return nil, errors.New("executor required")
	}
	return &Runner{
		store:    store,
		detector: detector,
		exec:     exec,
		logger:   logging.NewComponentLogger(logger, "runner"),
	}, nil
}

// Run executes line and folds any new output into the working artifact. With
// doBackup the artifact is snapshotted first so the change can be undone.
//
// An error wrapping detect.ErrDetectionTimeout means no new file appeared.
// State is unchanged unless the command rewrote the artifact itself, which
// Outcome.ArtifactChanged reports. An error wrapping backup.ErrPersist means
// the mutation took effect but the stacks file could not be written.
func (r *Runner) Run(ctx context.Context, line string, doBackup bool) (Outcome, error) {
	out := Outcome{Command: line}

	pre, err := r.detector.Scan()
	if err != nil {
		return out, err
	}

	if doBackup {
		snap, ok, err := r.store.Snapshot()
		switch {
		case err != nil && !errors.Is(err, backup.ErrPersist):
			return out, fmt.Errorf("snapshot before run: %w", err)
		case ok:
			out.Snapshot = snap
		}
	}

	r.logger.Info("running command", logging.String(logging.FieldCommand, line))
	code, err := r.exec.Run(ctx, line)
	out.ExitCode = code
	if err != nil {
		r.settleSnapshot(&out)
		return out, fmt.Errorf("run command: %w", err)
	}

	candidate, err := r.detector.Wait(ctx, pre)
	if err != nil {
		r.settleSnapshot(&out)
		if errors.Is(err, detect.ErrDetectionTimeout) {
			r.logger.Info("command produced no output",
				logging.String(logging.FieldCommand, line),
				logging.Int("exit_code", code),
				logging.String(logging.FieldEventType, "run_no_output"))
		}
		return out, err
	}
	out.Candidate = candidate

	entry, err := r.store.Materialize(candidate.Path)
	if err != nil {
		r.settleSnapshot(&out)
		return out, err
	}
	out.Entry = entry
	out.Detected = true
	out.RedoCleared = r.store.ClearRedo()

	r.logger.Info("output materialized",
		logging.String(logging.FieldCommand, line),
		logging.String("candidate", candidate.Name),
		logging.String(logging.FieldEntry, entry.Path),
		logging.Int("exit_code", code),
		logging.Int("redo_cleared", out.RedoCleared),
		logging.String(logging.FieldEventType, "run_applied"))

	return out, r.store.Persist()
}

// settleSnapshot backs out the run's snapshot when the artifact still holds
// the snapshotted bytes. If the command modified the artifact in place the
// snapshot stays on the undo stack and, as with any forward mutation, the
// redo stack is cleared.
func (r *Runner) settleSnapshot(out *Outcome) {
	if out.Snapshot.IsZero() {
		return
	}
	same, err := r.store.ArtifactMatches(out.Snapshot)
	if err != nil || !same {
		out.ArtifactChanged = true
		out.RedoCleared = r.store.ClearRedo()
		logging.WarnWithContext(r.logger, "artifact modified in place", "run_artifact_changed",
			logging.String(logging.FieldCommand, out.Command),
			logging.String(logging.FieldEntry, out.Snapshot.Path),
			logging.String(logging.FieldImpact, "the previous version stays on the undo stack"))
		if err != nil {
			r.logger.Debug("compare artifact with snapshot", logging.Error(err))
		}
		_ = r.store.Persist()
		return
	}
	if r.store.DiscardUndoTail(out.Snapshot) {
		_ = r.store.Persist()
	}
	out.Snapshot = backup.Entry{}
}
