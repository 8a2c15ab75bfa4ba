package preflight

import (
	"fmt"

	"wavsh/internal/config"
	"wavsh/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string
	Passed   bool
	Optional bool
	Detail   string
}

// RunAll executes every preflight check for the given config. Directories
// are checked first, then the artifact, then binaries.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Working directory", cfg.Work.Dir),
		CheckDirectoryAccess("Backup directory", cfg.Work.BackupDir),
		CheckArtifact(cfg.ArtifactPath()),
	}
	for _, status := range CheckSystemDeps(cfg) {
		results = append(results, fromStatus(status))
	}
	return results
}

// Failed returns the results that failed and are not optional.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed && !r.Optional {
			failed = append(failed, r)
		}
	}
	return failed
}

func fromStatus(s deps.Status) Result {
	r := Result{Name: s.Name, Passed: s.Available, Optional: s.Optional}
	switch {
	case s.Available:
		r.Detail = fmt.Sprintf("%s (%s)", s.Command, s.Resolved)
	case s.Optional:
		r.Detail = s.Detail + " (optional)"
	default:
		r.Detail = s.Detail
	}
	return r
}
