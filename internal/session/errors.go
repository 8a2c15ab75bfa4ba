package session

import (
	"errors"

	"wavsh/internal/backup"
	"wavsh/internal/detect"
	"wavsh/internal/history"
	"wavsh/internal/journal"
)

var (
	// ErrInvalidUsage reports a malformed internal command or argument.
	ErrInvalidUsage = errors.New("invalid usage")
	// ErrLocked reports another wavsh process already owning the directory.
	ErrLocked = errors.New("another wavsh session is active in this directory")
	// ErrJournalDisabled is returned by journal queries when the journal is off.
	ErrJournalDisabled = errors.New("journal disabled")
	// ErrNoPlayer reports that no playback command could be configured.
	ErrNoPlayer = errors.New("no playback command configured")
)

func outcomeFor(err error) journal.Outcome {
	switch {
	case err == nil, errors.Is(err, backup.ErrPersist):
		return journal.OutcomeOK
	case errors.Is(err, detect.ErrDetectionTimeout):
		return journal.OutcomeNoOutput
	case errors.Is(err, history.ErrNoHistory):
		return journal.OutcomeNoHistory
	default:
		return journal.OutcomeError
	}
}

func detailFor(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
