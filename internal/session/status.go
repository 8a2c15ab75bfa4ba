package session

import "os"

// Status summarizes the session for :status and "wavsh check".
type Status struct {
	SessionID      string
	Artifact       string
	ArtifactExists bool
	ArtifactSize   int64
	UndoDepth      int
	RedoDepth      int
	// Journal is the database path, empty when journaling is off.
	Journal string
	// Player is the playback binary, empty when none is configured.
	Player string
}

// Status reports the artifact and history depths.
func (s *Session) Status() Status {
	stacks := s.store.Stacks()
	st := Status{
		SessionID: s.id,
		Artifact:  s.store.ArtifactPath(),
		UndoDepth: len(stacks.Undo),
		RedoDepth: len(stacks.Redo),
	}
	if info, err := os.Stat(st.Artifact); err == nil && info.Mode().IsRegular() {
		st.ArtifactExists = true
		st.ArtifactSize = info.Size()
	}
	if s.journal != nil {
		st.Journal = s.journal.Path()
	}
	if s.player != nil {
		st.Player = s.player.Binary()
	}
	return st
}
