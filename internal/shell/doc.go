// Package shell implements the interactive line loop.
//
// Each input line is either an internal command, introduced by the sentinel
// character (":" by default), or an external command line forwarded verbatim
// to the session. Every failure is reported at the line boundary and the loop
// keeps reading; only :quit or end of input stop it, and both persist the
// stacks first.
//
// Reporting severity follows Classify: "no new output" is informational, a
// corrupt or unwritable stacks file is a warning, everything else is an
// error line.
package shell
