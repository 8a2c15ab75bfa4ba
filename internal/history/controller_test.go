package history_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"wavsh/internal/backup"
	"wavsh/internal/detect"
	"wavsh/internal/history"
	"wavsh/internal/runner"
	"wavsh/internal/testsupport"
)

type fixture struct {
	store      *backup.Store
	runner     *runner.Runner
	controller *history.Controller
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	clock := testsupport.NewFakeClock(time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC))
	store, err := backup.Open(backup.Options{ArtifactPath: cfg.ArtifactPath(), Dir: cfg.Work.BackupDir, Now: clock.Now})
	if err != nil {
		t.Fatalf("backup.Open: %v", err)
	}
	detector, err := detect.New(detect.Options{
		Dir:          cfg.Work.Dir,
		Artifact:     cfg.Work.Artifact,
		PollInterval: cfg.PollInterval(),
		Timeout:      cfg.DetectTimeout(),
		Clock:        clock,
	})
	if err != nil {
		t.Fatalf("detect.New: %v", err)
	}
	exec := &testsupport.FakeExecutor{Handle: testsupport.OutputWriter(cfg.Work.Dir)}
	r, err := runner.New(store, detector, exec, nil)
	if err != nil {
		t.Fatalf("runner.New: %v", err)
	}
	c, err := history.New(store, nil)
	if err != nil {
		t.Fatalf("history.New: %v", err)
	}
	return &fixture{store: store, runner: r, controller: c}
}

func (f *fixture) artifact(t *testing.T) string {
	t.Helper()
	return testsupport.ReadFile(t, f.store.ArtifactPath())
}

func (f *fixture) mutate(t *testing.T, name, content string) {
	t.Helper()
	out, err := f.runner.Run(context.Background(), fmt.Sprintf("write %s %s", name, content), true)
	if err != nil || !out.Detected {
		t.Fatalf("mutate %s: detected=%v err=%v", name, out.Detected, err)
	}
}

func TestUndoOnEmptyStack(t *testing.T) {
	f := newFixture(t)
	testsupport.WriteFile(t, f.store.ArtifactPath(), "W0")

	if _, err := f.controller.Undo(); !errors.Is(err, history.ErrNoHistory) {
		t.Fatalf("expected ErrNoHistory, got %v", err)
	}
	if _, err := f.controller.Redo(); !errors.Is(err, history.ErrNoHistory) {
		t.Fatalf("expected ErrNoHistory, got %v", err)
	}
	if got := f.artifact(t); got != "W0" {
		t.Fatalf("artifact changed to %q", got)
	}
	if s := f.store.Stacks(); len(s.Undo)+len(s.Redo) != 0 {
		t.Fatalf("stacks changed: %+v", s)
	}
}

func TestSingleCommandScenario(t *testing.T) {
	f := newFixture(t)
	testsupport.WriteFile(t, f.store.ArtifactPath(), "W0")

	f.mutate(t, "out1.wav", "out1")
	if got := f.artifact(t); got != "out1" {
		t.Fatalf("after run artifact = %q", got)
	}
	s := f.store.Stacks()
	if len(s.Undo) != 1 || len(s.Redo) != 0 {
		t.Fatalf("after run stacks = %+v", s)
	}

	res, err := f.controller.Undo()
	if err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if got := f.artifact(t); got != "W0" {
		t.Fatalf("after undo artifact = %q", got)
	}
	if !res.SavedCurrent || testsupport.ReadFile(t, f.store.Resolve(res.Saved)) != "out1" {
		t.Fatalf("undo did not save out1 to redo: %+v", res)
	}
	s = f.store.Stacks()
	if len(s.Undo) != 0 || len(s.Redo) != 1 {
		t.Fatalf("after undo stacks = %+v", s)
	}

	if _, err := f.controller.Redo(); err != nil {
		t.Fatalf("Redo: %v", err)
	}
	if got := f.artifact(t); got != "out1" {
		t.Fatalf("after redo artifact = %q", got)
	}
	s = f.store.Stacks()
	if len(s.Undo) != 1 || len(s.Redo) != 0 {
		t.Fatalf("after redo stacks = %+v", s)
	}
}

func TestRoundTripOfNMutations(t *testing.T) {
	const n = 5
	f := newFixture(t)
	testsupport.WriteFile(t, f.store.ArtifactPath(), "W0")

	for i := 1; i <= n; i++ {
		f.mutate(t, fmt.Sprintf("out%d.wav", i), fmt.Sprintf("W%d", i))
	}
	if got := f.artifact(t); got != fmt.Sprintf("W%d", n) {
		t.Fatalf("after mutations artifact = %q", got)
	}

	for i := n - 1; i >= 0; i-- {
		if _, err := f.controller.Undo(); err != nil {
			t.Fatalf("Undo %d: %v", i, err)
		}
		if got, want := f.artifact(t), fmt.Sprintf("W%d", i); got != want {
			t.Fatalf("after undo artifact = %q, want %q", got, want)
		}
	}
	s := f.store.Stacks()
	if len(s.Undo) != 0 || len(s.Redo) != n {
		t.Fatalf("after N undos stacks = %+v", s)
	}
	if _, err := f.controller.Undo(); !errors.Is(err, history.ErrNoHistory) {
		t.Fatalf("expected ErrNoHistory after exhausting undo, got %v", err)
	}

	for i := 1; i <= n; i++ {
		if _, err := f.controller.Redo(); err != nil {
			t.Fatalf("Redo %d: %v", i, err)
		}
		if got, want := f.artifact(t), fmt.Sprintf("W%d", i); got != want {
			t.Fatalf("after redo artifact = %q, want %q", got, want)
		}
	}
}

func TestUndoRedoAreInverses(t *testing.T) {
	f := newFixture(t)
	testsupport.WriteFile(t, f.store.ArtifactPath(), "W0")
	f.mutate(t, "a.wav", "W1")
	f.mutate(t, "b.wav", "W2")
	before := f.store.Stacks()

	if _, err := f.controller.Undo(); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if _, err := f.controller.Redo(); err != nil {
		t.Fatalf("Redo: %v", err)
	}
	after := f.store.Stacks()
	if got := f.artifact(t); got != "W2" {
		t.Fatalf("artifact = %q, want W2", got)
	}
	if len(after.Undo) != len(before.Undo) || len(after.Redo) != len(before.Redo) {
		t.Fatalf("stack depths changed: before %+v after %+v", before, after)
	}
}

func TestForwardMutationInvalidatesRedo(t *testing.T) {
	f := newFixture(t)
	testsupport.WriteFile(t, f.store.ArtifactPath(), "W0")
	f.mutate(t, "a.wav", "W1")
	if _, err := f.controller.Undo(); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if redo := f.store.Stacks().Redo; len(redo) != 1 {
		t.Fatalf("expected one redo entry, got %v", redo)
	}

	f.mutate(t, "b.wav", "W1b")
	if redo := f.store.Stacks().Redo; len(redo) != 0 {
		t.Fatalf("redo should be empty after a forward change, got %v", redo)
	}
	if _, err := f.controller.Redo(); !errors.Is(err, history.ErrNoHistory) {
		t.Fatalf("expected ErrNoHistory, got %v", err)
	}
}

func TestRestartReconstructsStacks(t *testing.T) {
	f := newFixture(t)
	testsupport.WriteFile(t, f.store.ArtifactPath(), "W0")
	f.mutate(t, "a.wav", "W1")
	f.mutate(t, "b.wav", "W2")
	if _, err := f.controller.Undo(); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	want := f.store.Stacks()

	store, err := backup.Open(backup.Options{ArtifactPath: f.store.ArtifactPath(), Dir: f.store.Dir()})
	if err != nil {
		t.Fatalf("backup.Open: %v", err)
	}
	if err := store.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	got := store.Stacks()
	if fmt.Sprint(got.Undo) != fmt.Sprint(want.Undo) || fmt.Sprint(got.Redo) != fmt.Sprint(want.Redo) {
		t.Fatalf("reloaded stacks %+v, want %+v", got, want)
	}

	c, err := history.New(store, nil)
	if err != nil {
		t.Fatalf("history.New: %v", err)
	}
	if _, err := c.Redo(); err != nil {
		t.Fatalf("Redo after restart: %v", err)
	}
	if got := testsupport.ReadFile(t, store.ArtifactPath()); got != "W2" {
		t.Fatalf("artifact after restart redo = %q", got)
	}
}

func TestDanglingEntryIsDropped(t *testing.T) {
	f := newFixture(t)
	testsupport.WriteFile(t, f.store.ArtifactPath(), "W0")
	f.mutate(t, "a.wav", "W1")
	tail, _ := f.store.PeekUndo()
	if err := os.Remove(f.store.Resolve(tail)); err != nil {
		t.Fatal(err)
	}

	if _, err := f.controller.Undo(); !errors.Is(err, backup.ErrMissingArtifact) {
		t.Fatalf("expected ErrMissingArtifact, got %v", err)
	}
	if got := f.artifact(t); got != "W1" {
		t.Fatalf("artifact changed to %q", got)
	}
	if s := f.store.Stacks(); len(s.Undo) != 0 || len(s.Redo) != 0 {
		t.Fatalf("dangling tail should be dropped, got %+v", s)
	}
}

func TestUndoWithoutArtifactSkipsRedoSave(t *testing.T) {
	f := newFixture(t)
	testsupport.WriteFile(t, f.store.ArtifactPath(), "W0")
	f.mutate(t, "a.wav", "W1")
	if err := os.Remove(f.store.ArtifactPath()); err != nil {
		t.Fatal(err)
	}

	res, err := f.controller.Undo()
	if err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if res.SavedCurrent {
		t.Fatalf("nothing to save, got %+v", res)
	}
	if got := f.artifact(t); got != "W0" {
		t.Fatalf("artifact = %q", got)
	}
	if redo := f.store.Stacks().Redo; len(redo) != 0 {
		t.Fatalf("expected empty redo, got %v", redo)
	}
}
