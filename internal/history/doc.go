// Package history implements undo and redo over the backup store's stacks.
//
// Undo saves the current artifact to a redo entry and restores the undo tail;
// redo is the mirror image. Forward changes invalidate redo, which the runner
// handles when it materializes new output.
package history
