package history

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// GitSource implements Source using go-git bare mirror clones.
type GitSource struct{}

// NewGitSource returns the default, network-backed history source.
func NewGitSource() *GitSource {
	return &GitSource{}
}

// Mirror performs a bare mirror clone of url into dir.
func (s *GitSource) Mirror(ctx context.Context, url, dir string) (Mirror, error) {
	repo, err := git.PlainCloneContext(ctx, dir, true, &git.CloneOptions{
		URL:    url,
		Mirror: true,
		Tags:   git.AllTags,
	})
	if err != nil {
		return nil, fmt.Errorf("mirror clone of %s: %w", url, err)
	}
	return &gitMirror{repo: repo}, nil
}

type gitMirror struct {
	repo *git.Repository
}

// ResolveBefore walks the default branch in committer-time order and
// returns the first commit at or before cutoff.
func (m *gitMirror) ResolveBefore(cutoff time.Time) (string, bool, error) {
	head, err := m.repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		// Empty repository: no default branch yet.
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("resolving HEAD: %w", err)
	}

	iter, err := m.repo.Log(&git.LogOptions{
		From:  head.Hash(),
		Order: git.LogOrderCommitterTime,
		Until: &cutoff,
	})
	if err != nil {
		return "", false, fmt.Errorf("walking history: %w", err)
	}
	defer iter.Close()

	commit, err := iter.Next()
	if errors.Is(err, io.EOF) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("walking history: %w", err)
	}
	return commit.Hash.String(), true, nil
}

// Export materializes the commit's tree under dir.
func (m *gitMirror) Export(ctx context.Context, commit, dir string) (ExportStats, error) {
	var stats ExportStats

	c, err := m.repo.CommitObject(plumbing.NewHash(commit))
	if err != nil {
		return stats, fmt.Errorf("loading commit %s: %w", commit, err)
	}
	tree, err := c.Tree()
	if err != nil {
		return stats, fmt.Errorf("loading tree of %s: %w", commit, err)
	}

	err = tree.Files().ForEach(func(f *object.File) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return writeEntry(f, dir, &stats)
	})
	if err != nil {
		return stats, fmt.Errorf("exporting tree of %s: %w", commit, err)
	}
	return stats, nil
}

func writeEntry(f *object.File, dir string, stats *ExportStats) error {
	dest := filepath.Join(dir, filepath.FromSlash(f.Name))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}

	switch f.Mode {
	case filemode.Symlink:
		target, err := f.Contents()
		if err != nil {
			return err
		}
		if err := os.Symlink(target, dest); err != nil {
			return err
		}
	case filemode.Submodule:
		// Gitlinks have no content in this repository; leave an empty
		// directory so relative paths inside the tree stay valid.
		return os.MkdirAll(dest, 0o755)
	default:
		perm := os.FileMode(0o644)
		if f.Mode == filemode.Executable {
			perm = 0o755
		}
		reader, err := f.Reader()
		if err != nil {
			return err
		}
		defer func() { _ = reader.Close() }()

		out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
		if err != nil {
			return err
		}
		n, err := io.Copy(out, reader)
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}
		stats.Bytes += n
	}

	stats.Files++
	return nil
}
