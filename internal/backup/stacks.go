package backup

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Stacks is the persisted form of the undo and redo histories. The tail of
// each slice is the most recent entry.
type Stacks struct {
	Undo []string `json:"undo"`
	Redo []string `json:"redo"`
}

func emptyStacks() Stacks {
	return Stacks{Undo: []string{}, Redo: []string{}}
}

func (s Stacks) clone() Stacks {
	return Stacks{
		Undo: append([]string{}, s.Undo...),
		Redo: append([]string{}, s.Redo...),
	}
}

func encodeStacks(s Stacks) ([]byte, error) {
	if s.Undo == nil {
		s.Undo = []string{}
	}
	if s.Redo == nil {
		s.Redo = []string{}
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal stacks: %w", err)
	}
	return append(data, '\n'), nil
}

// decodeStacks accepts only an object with both keys present, each an array
// of strings.
func decodeStacks(data []byte) (Stacks, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Stacks{}, fmt.Errorf("%w: empty file", ErrPersistenceCorruption)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Stacks{}, fmt.Errorf("%w: %w", ErrPersistenceCorruption, err)
	}
	if raw == nil {
		return Stacks{}, fmt.Errorf("%w: not an object", ErrPersistenceCorruption)
	}
	out := emptyStacks()
	for key, dst := range map[string]*[]string{"undo": &out.Undo, "redo": &out.Redo} {
		value, ok := raw[key]
		if !ok {
			return Stacks{}, fmt.Errorf("%w: missing %q", ErrPersistenceCorruption, key)
		}
		if bytes.Equal(bytes.TrimSpace(value), []byte("null")) {
			return Stacks{}, fmt.Errorf("%w: %q is null", ErrPersistenceCorruption, key)
		}
		var paths []string
		if err := json.Unmarshal(value, &paths); err != nil {
			return Stacks{}, fmt.Errorf("%w: %q: %w", ErrPersistenceCorruption, key, err)
		}
		for i, p := range paths {
			if p == "" {
				return Stacks{}, fmt.Errorf("%w: %q[%d] is empty", ErrPersistenceCorruption, key, i)
			}
		}
		*dst = append([]string{}, paths...)
	}
	return out, nil
}
