// Package session owns everything one wavsh process holds for a working
// directory: the single-instance lock, the backup store, the runner, the
// undo/redo controller, the player and the operation journal.
//
// Every operation the shell or the one-shot CLI commands perform goes through
// a Session, which journals the outcome and keeps the stacks file current.
// Journal failures are logged and never fail the operation they describe.
package session
