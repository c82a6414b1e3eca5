// Package history gives the orchestrator access to a repository's past:
// mirroring a remote, resolving commits against a cutoff, and exporting
// a commit's tree. The Source interface exists so tests can substitute a
// fake without touching the network.
package history

import (
	"context"
	"time"
)

// Source acquires history mirrors for remote repositories.
type Source interface {
	// Mirror clones the repository's complete history (all refs and
	// tags, no working tree) into dir. The caller owns dir and removes
	// it when done, whether or not the clone succeeded.
	Mirror(ctx context.Context, url, dir string) (Mirror, error)
}

// Mirror is a local, complete copy of one repository's history.
type Mirror interface {
	// ResolveBefore returns the most recent commit reachable from the
	// default branch whose committer time is at or before cutoff. The
	// second return is false when no such commit exists.
	ResolveBefore(cutoff time.Time) (string, bool, error)

	// Export writes the commit's full file tree into dir, which must
	// already exist and be empty.
	Export(ctx context.Context, commit, dir string) (ExportStats, error)
}

// ExportStats summarizes one exported tree.
type ExportStats struct {
	Files int
	Bytes int64
}
