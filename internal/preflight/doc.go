// Package preflight provides readiness checks for the directories and
// binaries a wavsh session depends on.
//
// The "wavsh check" command prints every result; a shell start-up only fails
// on directory problems, since a missing player merely disables :play.
package preflight
