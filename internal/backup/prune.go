package backup

import (
	"os"
	"path/filepath"
	"strings"

	"wavsh/internal/logging"
)

// Prune removes entry files in the backup directory that neither stack
// references. It never touches files without a role prefix. The returned
// names are the files removed.
func (s *Store) Prune() ([]string, error) {
	items, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	referenced := make(map[string]struct{}, len(s.stacks.Undo)+len(s.stacks.Redo))
	for _, p := range append(append([]string{}, s.stacks.Undo...), s.stacks.Redo...) {
		referenced[filepath.Clean(s.Resolve(Entry{Path: p}))] = struct{}{}
	}

	var removed []string
	for _, item := range items {
		if item.IsDir() {
			continue
		}
		name := item.Name()
		if ParseEntry(name).Role == "" || !strings.HasSuffix(name, s.ext) {
			continue
		}
		abs := filepath.Join(s.dir, name)
		if _, ok := referenced[filepath.Clean(abs)]; ok {
			continue
		}
		if err := os.Remove(abs); err != nil {
			return removed, err
		}
		removed = append(removed, name)
	}
	if len(removed) > 0 {
		s.logger.Info("pruned unreferenced entries", logging.Int("count", len(removed)))
	}
	return removed, nil
}
