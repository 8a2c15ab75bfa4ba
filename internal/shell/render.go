package shell

import (
	"fmt"
	"path/filepath"
	"strconv"

	"wavsh/internal/backup"
	"wavsh/internal/journal"
	"wavsh/internal/textutil"
)

const stampDisplayLayout = "2006-01-02 15:04:05"

// RenderHistory tabulates both stacks, most recent entry first within each.
// Position 1 on the undo stack is what :undo restores next.
func RenderHistory(stacks backup.Stacks) string {
	rows := make([][]string, 0, len(stacks.Undo)+len(stacks.Redo))
	rows = appendStackRows(rows, "undo", stacks.Undo)
	rows = appendStackRows(rows, "redo", stacks.Redo)
	if len(rows) == 0 {
		return ""
	}
	return textutil.RenderTable(
		[]string{"Stack", "#", "Role", "Entry", "Taken"},
		rows,
		[]textutil.Align{textutil.AlignLeft, textutil.AlignRight},
	)
}

func appendStackRows(rows [][]string, stack string, paths []string) [][]string {
	for i := len(paths) - 1; i >= 0; i-- {
		entry := backup.ParseEntry(paths[i])
		taken := "-"
		if ts, ok := entry.Stamp(); ok {
			taken = ts.Local().Format(stampDisplayLayout)
		}
		rows = append(rows, []string{
			stack,
			strconv.Itoa(len(paths) - i),
			textutil.Ternary(entry.Role == "", "-", textutil.Label(string(entry.Role))),
			filepath.Base(entry.Path),
			taken,
		})
	}
	return rows
}

// RenderJournal tabulates journal records in the order given.
func RenderJournal(records []journal.Record) string {
	if len(records) == 0 {
		return ""
	}
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		exit := ""
		if rec.ExitCode != nil {
			exit = strconv.Itoa(*rec.ExitCode)
		}
		rows = append(rows, []string{
			strconv.FormatInt(rec.ID, 10),
			rec.CreatedAt.Local().Format(stampDisplayLayout),
			textutil.Label(string(rec.Kind)),
			textutil.Label(string(rec.Outcome)),
			exit,
			truncate(rec.Summary(), 48),
		})
	}
	return textutil.RenderTable(
		[]string{"ID", "When", "Kind", "Outcome", "Exit", "Summary"},
		rows,
		[]textutil.Align{textutil.AlignRight, textutil.AlignLeft, textutil.AlignLeft, textutil.AlignLeft, textutil.AlignRight},
	)
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return fmt.Sprintf("%s…", string(runes[:max-1]))
}
