// Package backup owns the on-disk history of the working artifact.
//
// A Store keeps immutable entry files under the backup directory, named by
// role (backup_, redo_, state_) and a strictly increasing UTC timestamp, plus
// the undo and redo stacks that reference them. The stacks are persisted as a
// JSON object with "undo" and "redo" arrays after every mutating operation;
// a missing file means empty history and a malformed one is reported as
// ErrPersistenceCorruption and treated as empty.
//
// Materialize is the only way a new, externally produced file enters the
// history; everything else is a copy of the artifact or of an existing entry.
package backup
