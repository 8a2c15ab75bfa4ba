package testsupport

import (
	"context"
	"os"
	"path/filepath"
	"strings"
)

// FakeExecutor records forwarded command lines and hands each one to Handle.
// With no handler every command exits 0 without producing output.
type FakeExecutor struct {
	Calls  []string
	Handle func(line string) (int, error)
}

func (f *FakeExecutor) Run(_ context.Context, line string) (int, error) {
	f.Calls = append(f.Calls, line)
	if f.Handle == nil {
		return 0, nil
	}
	return f.Handle(line)
}

// OutputWriter returns a handler that interprets lines of the form
// "write <name> <content...>" by writing content to dir/name. Any other line
// exits 1 and writes nothing.
func OutputWriter(dir string) func(line string) (int, error) {
	return func(line string) (int, error) {
		fields := strings.Fields(line)
		if len(fields) < 2 || fields[0] != "write" {
			return 1, nil
		}
		content := strings.Join(fields[2:], " ")
		if err := os.WriteFile(filepath.Join(dir, fields[1]), []byte(content), 0o644); err != nil {
			return 1, err
		}
		return 0, nil
	}
}
