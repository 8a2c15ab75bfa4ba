// Package main hosts the wavsh CLI entrypoint and command graph.
//
// With no subcommand wavsh starts the interactive shell over the working
// artifact. The one-shot subcommands (run, undo, redo, history, log, prune,
// save) open the same session, perform a single operation and exit, so
// scripts can drive the history without a terminal. Configuration is resolved
// once per invocation and shared by every subcommand.
package main
