// Package textutil renders the tables and labels shared by the shell and the
// CLI.
//
// Tables use go-pretty's rounded style so interactive :history output and
// "wavsh history" look identical. Labels are title-cased with x/text so
// entry roles read as words ("Backup", "Redo", "State").
package textutil
