package backup

import (
	"path/filepath"
	"strings"
	"time"
)

// Role tags the reason an entry was written.
type Role string

const (
	// RoleBackup marks a snapshot of the artifact taken before a forward change.
	RoleBackup Role = "backup_"
	// RoleRedo marks a snapshot taken before an undo, reapplied by redo.
	RoleRedo Role = "redo_"
	// RoleState marks command output materialized as the new artifact.
	RoleState Role = "state_"
)

// stampLayout sorts lexicographically in time order.
const stampLayout = "20060102T150405.000000000"

// Entry is an immutable snapshot file in the backup directory. Path is the
// form recorded in the stacks file.
type Entry struct {
	Path string
	Role Role
}

// Name returns the entry's file name.
func (e Entry) Name() string {
	return filepath.Base(e.Path)
}

// IsZero reports whether e refers to nothing.
func (e Entry) IsZero() bool {
	return e.Path == ""
}

// ParseEntry rebuilds an entry from a recorded path, inferring the role from
// the file name prefix. Unknown prefixes yield an empty role.
func ParseEntry(path string) Entry {
	name := filepath.Base(path)
	for _, role := range []Role{RoleBackup, RoleRedo, RoleState} {
		if strings.HasPrefix(name, string(role)) {
			return Entry{Path: path, Role: role}
		}
	}
	return Entry{Path: path}
}

// Stamp returns the timestamp encoded in the entry name.
func (e Entry) Stamp() (time.Time, bool) {
	name := strings.TrimPrefix(e.Name(), string(e.Role))
	name = strings.TrimSuffix(name, filepath.Ext(name))
	ts, err := time.Parse(stampLayout, name)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

func entryName(role Role, ts time.Time, ext string) string {
	return string(role) + ts.UTC().Format(stampLayout) + ext
}
