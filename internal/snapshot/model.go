package snapshot

import "time"

// Status is the outcome of one (repository, window) unit of work.
type Status string

const (
	// StatusClassified means the window was exported and classified.
	StatusClassified Status = "classified"
	// StatusSkipDone means the window's marker already existed.
	StatusSkipDone Status = "skip-done"
	// StatusSkipNoCommit means no commit existed at or before the cutoff.
	StatusSkipNoCommit Status = "skip-no-commit"
	// StatusSkipDuplicate means the window resolved to a commit already
	// processed for this repository.
	StatusSkipDuplicate Status = "skip-duplicate"
	// StatusFailed means the unit failed; Stage says where.
	StatusFailed Status = "failed"
)

// Stage identifies the failing operation of a failed unit.
type Stage string

const (
	StageClone    Stage = "clone"
	StageResolve  Stage = "resolve"
	StageExport   Stage = "export"
	StageClassify Stage = "classify"
)

// WindowResult records one window's outcome.
type WindowResult struct {
	Repo     string        `json:"repo"`
	Window   string        `json:"window"`
	Commit   string        `json:"commit,omitempty"`
	Status   Status        `json:"status"`
	Stage    Stage         `json:"stage,omitempty"`
	Err      string        `json:"error,omitempty"`
	Files    int           `json:"files,omitempty"`
	Bytes    int64         `json:"bytes,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`
}

// RepoResult collects a repository's window results. CloneErr is set when
// the mirror could not be acquired, in which case Windows is empty.
type RepoResult struct {
	Repo     string         `json:"repo"`
	URL      string         `json:"url"`
	CloneErr string         `json:"clone_error,omitempty"`
	Windows  []WindowResult `json:"windows"`
}

// RunSummary is the whole batch's outcome. Individual failures live in
// the per-window results; the run as such always completes.
type RunSummary struct {
	Started time.Time     `json:"started"`
	Elapsed time.Duration `json:"elapsed"`
	Repos   []RepoResult  `json:"repos"`
}

// Counts tallies window outcomes across the run.
type Counts struct {
	Classified int
	Skipped    int
	Failed     int
	Bytes      int64
}

// Count aggregates one repository's results.
func (r *RepoResult) Count() Counts {
	var c Counts
	for _, w := range r.Windows {
		switch w.Status {
		case StatusClassified:
			c.Classified++
			c.Bytes += w.Bytes
		case StatusFailed:
			c.Failed++
		default:
			c.Skipped++
		}
	}
	return c
}

// Count aggregates the whole run.
func (s *RunSummary) Count() Counts {
	var c Counts
	for i := range s.Repos {
		rc := s.Repos[i].Count()
		c.Classified += rc.Classified
		c.Skipped += rc.Skipped
		c.Failed += rc.Failed
		c.Bytes += rc.Bytes
	}
	return c
}
