// Package journal records every shell operation in a SQLite database inside
// the backup directory.
//
// The journal is an audit trail only. Undo and redo state lives in the stacks
// file; the shell keeps working when the journal is disabled or unavailable.
// Each process gets its own session identifier so interleaved runs in the
// same directory stay distinguishable.
package journal
