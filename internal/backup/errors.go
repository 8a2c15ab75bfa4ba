package backup

import "errors"

var (
	// ErrMissingArtifact reports an operation that needed a file (the working
	// artifact or a backup entry) that does not exist.
	ErrMissingArtifact = errors.New("missing artifact")
	// ErrPersistenceCorruption reports a stacks file that could not be decoded
	// into two ordered sequences of paths. Stacks are reset to empty.
	ErrPersistenceCorruption = errors.New("persisted stacks corrupted")
	// ErrPersist wraps a failure to write the stacks file. The in-memory stacks
	// stay authoritative for the rest of the session.
	ErrPersist = errors.New("persist stacks")
)
