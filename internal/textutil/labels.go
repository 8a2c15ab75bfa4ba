package textutil

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Label turns an identifier such as "backup_" or "no_history" into words
// with a leading capital: "Backup", "No History".
func Label(id string) string {
	words := strings.Fields(strings.ReplaceAll(id, "_", " "))
	if len(words) == 0 {
		return ""
	}
	return cases.Title(language.English).String(strings.Join(words, " "))
}

// Plural formats a count with a noun, adding "s" unless n is one.
func Plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// Ternary returns a when cond is true, otherwise b.
func Ternary[T any](cond bool, a, b T) T {
	if cond {
		return a
	}
	return b
}
