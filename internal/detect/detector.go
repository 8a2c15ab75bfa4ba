package detect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"wavsh/internal/logging"
)

// ErrDetectionTimeout reports that no new candidate appeared before the
// deadline. It is informational; callers leave state unchanged.
var ErrDetectionTimeout = errors.New("no new output detected")

// Options configures a Detector.
type Options struct {
	// Dir is the working directory that commands write into.
	Dir string
	// Artifact is the working artifact's file name inside Dir.
	Artifact string
	// Extensions lists accepted candidate extensions, dot-prefixed.
	// Defaults to the artifact's extension.
	Extensions   []string
	PollInterval time.Duration
	Timeout      time.Duration
	Clock        Clock
	Logger       *slog.Logger
}

// Candidate is a file observed in the working directory.
type Candidate struct {
	Path    string
	Name    string
	ModTime time.Time
	Size    int64
}

// Set is a directory scan keyed by file name.
type Set map[string]Candidate

// Detector observes the working directory. It holds no per-run state.
type Detector struct {
	dir        string
	artifact   string
	extensions map[string]struct{}
	interval   time.Duration
	timeout    time.Duration
	clock      Clock
	logger     *slog.Logger
}

// New validates options and constructs a Detector.
func New(opts Options) (*Detector, error) {
	dir := strings.TrimSpace(opts.Dir)
	if dir == "" {
		return nil, errors.New("working directory required")
	}
	artifact := filepath.Base(strings.TrimSpace(opts.Artifact))
	if artifact == "" || artifact == "." {
		return nil, errors.New("artifact name required")
	}
	if opts.PollInterval <= 0 {
		return nil, fmt.Errorf("poll interval must be positive, got %s", opts.PollInterval)
	}
	if opts.Timeout < opts.PollInterval {
		return nil, fmt.Errorf("timeout %s shorter than poll interval %s", opts.Timeout, opts.PollInterval)
	}

	exts := opts.Extensions
	if len(exts) == 0 {
		exts = []string{filepath.Ext(artifact)}
	}
	extensions := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		extensions[ext] = struct{}{}
	}

	clock := opts.Clock
	if clock == nil {
		clock = SystemClock{}
	}
	return &Detector{
		dir:        dir,
		artifact:   artifact,
		extensions: extensions,
		interval:   opts.PollInterval,
		timeout:    opts.Timeout,
		clock:      clock,
		logger:     logging.NewComponentLogger(opts.Logger, "detect"),
	}, nil
}

// Scan captures the current candidate files. Subdirectories, the backup
// directory among them, are not entered.
func (d *Detector) Scan() (Set, error) {
	items, err := os.ReadDir(d.dir)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", d.dir, err)
	}
	set := make(Set, len(items))
	for _, item := range items {
		name := item.Name()
		if item.IsDir() || name == d.artifact {
			continue
		}
		if _, ok := d.extensions[strings.ToLower(filepath.Ext(name))]; !ok {
			continue
		}
		info, err := item.Info()
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		set[name] = Candidate{
			Path:    filepath.Join(d.dir, name),
			Name:    name,
			ModTime: info.ModTime(),
			Size:    info.Size(),
		}
	}
	return set, nil
}

// Wait polls until a file absent from pre appears or the timeout elapses. The
// first poll happens immediately; the deadline counts from it.
func (d *Detector) Wait(ctx context.Context, pre Set) (Candidate, error) {
	deadline := d.clock.Now().Add(d.timeout)
	polls := 0
	for {
		if err := ctx.Err(); err != nil {
			return Candidate{}, err
		}
		polls++
		current, err := d.Scan()
		if err != nil {
			return Candidate{}, err
		}
		fresh := make([]Candidate, 0, 1)
		for name, c := range current {
			if _, seen := pre[name]; !seen {
				fresh = append(fresh, c)
			}
		}
		if chosen, ok := Select(fresh); ok {
			d.logger.Debug("new output detected",
				logging.String("candidate", chosen.Name),
				logging.Int("candidates", len(fresh)),
				logging.Int("polls", polls))
			return chosen, nil
		}
		if !d.clock.Now().Before(deadline) {
			d.logger.Debug("detection timed out",
				logging.Duration("timeout", d.timeout),
				logging.Int("polls", polls))
			return Candidate{}, fmt.Errorf("%w after %s", ErrDetectionTimeout, d.timeout)
		}
		d.clock.Sleep(d.interval)
	}
}

// Select picks the newest candidate; equal modification times go to the
// lexicographically smallest name.
func Select(candidates []Candidate) (Candidate, bool) {
	if len(candidates) == 0 {
		return Candidate{}, false
	}
	ordered := append([]Candidate(nil), candidates...)
	sort.Slice(ordered, func(i, j int) bool {
		if !ordered[i].ModTime.Equal(ordered[j].ModTime) {
			return ordered[i].ModTime.After(ordered[j].ModTime)
		}
		return ordered[i].Name < ordered[j].Name
	})
	return ordered[0], true
}
