// Package runner executes forwarded command lines and folds their output into
// the working artifact.
//
// A run is: scan the working directory, snapshot the artifact, execute the
// command, then wait for a new file. Detected output clears the redo stack and
// becomes the working artifact. When nothing appears the snapshot taken for
// the run is discarded, so a command without output leaves the artifact and
// both stacks exactly as they were. Exit codes are reported but never decide
// whether state changes; only filesystem evidence does.
package runner
