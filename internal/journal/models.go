package journal

import (
	"fmt"
	"strings"
	"time"
)

// Kind identifies the operation a record describes.
type Kind string

const (
	KindRun   Kind = "run"
	KindUndo  Kind = "undo"
	KindRedo  Kind = "redo"
	KindSave  Kind = "save"
	KindPlay  Kind = "play"
	KindPrune Kind = "prune"
)

// Outcome summarizes how an operation ended.
type Outcome string

const (
	OutcomeOK        Outcome = "ok"
	OutcomeNoOutput  Outcome = "no_output"
	OutcomeNoHistory Outcome = "no_history"
	OutcomeError     Outcome = "error"
)

var validKinds = map[Kind]struct{}{
	KindRun: {}, KindUndo: {}, KindRedo: {}, KindSave: {}, KindPlay: {}, KindPrune: {},
}

var validOutcomes = map[Outcome]struct{}{
	OutcomeOK: {}, OutcomeNoOutput: {}, OutcomeNoHistory: {}, OutcomeError: {},
}

// Record is one journal row.
type Record struct {
	ID        int64
	SessionID string
	Kind      Kind
	Command   string
	Outcome   Outcome
	// ExitCode is nil for operations that ran no external command.
	ExitCode  *int
	Entry     string
	Detail    string
	CreatedAt time.Time
}

func (r Record) validate() error {
	if _, ok := validKinds[r.Kind]; !ok {
		return fmt.Errorf("unknown journal kind %q", r.Kind)
	}
	if _, ok := validOutcomes[r.Outcome]; !ok {
		return fmt.Errorf("unknown journal outcome %q", r.Outcome)
	}
	return nil
}

// Summary renders the command or entry a record is about.
func (r Record) Summary() string {
	if s := strings.TrimSpace(r.Command); s != "" {
		return s
	}
	return r.Entry
}

// ExitCodeOf returns a pointer suitable for Record.ExitCode.
func ExitCodeOf(code int) *int {
	return &code
}
