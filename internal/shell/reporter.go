package shell

import (
	"errors"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/text"

	"wavsh/internal/backup"
	"wavsh/internal/detect"
)

// Severity ranks how an operation error is shown to the user.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

// Classify maps an operation error to the severity it is reported at.
func Classify(err error) Severity {
	switch {
	case err == nil, errors.Is(err, detect.ErrDetectionTimeout):
		return SeverityInfo
	case errors.Is(err, backup.ErrPersistenceCorruption), errors.Is(err, backup.ErrPersist):
		return SeverityWarning
	default:
		return SeverityError
	}
}

type reporter struct {
	out   io.Writer
	err   io.Writer
	color bool
}

func (r *reporter) info(format string, args ...any) {
	fmt.Fprintf(r.out, format+"\n", args...)
}

func (r *reporter) warn(format string, args ...any) {
	fmt.Fprintf(r.err, "%s %s\n", r.paint("warning:", text.FgYellow), fmt.Sprintf(format, args...))
}

func (r *reporter) fail(format string, args ...any) {
	fmt.Fprintf(r.err, "%s %s\n", r.paint("error:", text.FgRed), fmt.Sprintf(format, args...))
}

// report prints err at its classified severity. Detection timeouts print the
// fixed informational message rather than the wrapped error text.
func (r *reporter) report(err error) {
	if err == nil {
		return
	}
	switch Classify(err) {
	case SeverityInfo:
		if errors.Is(err, detect.ErrDetectionTimeout) {
			r.info("%s", detect.ErrDetectionTimeout)
			return
		}
		r.info("%v", err)
	case SeverityWarning:
		r.warn("%v", err)
	default:
		r.fail("%v", err)
	}
}

func (r *reporter) paint(s string, color text.Color) string {
	if !r.color {
		return s
	}
	return color.Sprint(s)
}
