package snapshot

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// ManifestName is the file the orchestrator writes next to the
// classifier's artifacts after a successful window.
const ManifestName = "snapshot.yaml"

// Manifest records what a completed window contains. It is informational;
// the classifier's own marker file remains the resume signal.
type Manifest struct {
	Repo         string    `yaml:"repo"`
	Window       string    `yaml:"window"`
	Cutoff       time.Time `yaml:"cutoff"`
	Commit       string    `yaml:"commit"`
	Files        int       `yaml:"files"`
	Bytes        int64     `yaml:"bytes"`
	ClassifiedAt time.Time `yaml:"classified_at"`
}

// Layout maps (repository, window) pairs onto the output root.
type Layout struct {
	Root string
}

// NewLayout returns a Layout rooted at root.
func NewLayout(root string) *Layout {
	return &Layout{Root: root}
}

// WindowDir returns <root>/<repo>/<label>.
func (l *Layout) WindowDir(repo, label string) string {
	return filepath.Join(l.Root, repo, label)
}

// MarkerPresent reports whether the window already carries the completion
// artifact.
func (l *Layout) MarkerPresent(repo, label, marker string) bool {
	_, err := os.Stat(filepath.Join(l.WindowDir(repo, label), marker))
	return err == nil
}

// WriteManifest persists the manifest into the window directory.
func (l *Layout) WriteManifest(repo, label string, m Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	path := filepath.Join(l.WindowDir(repo, label), ManifestName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}

// ReadManifest loads a window's manifest; absence is not an error.
func (l *Layout) ReadManifest(repo, label string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(l.WindowDir(repo, label), ManifestName))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding manifest: %w", err)
	}
	return &m, nil
}

// RemoveWindow deletes a window directory, used to discard partial output
// after a classifier failure.
func (l *Layout) RemoveWindow(repo, label string) error {
	return os.RemoveAll(l.WindowDir(repo, label))
}

// ReportRow is one completed or partial window found under the root.
type ReportRow struct {
	Repo     string `json:"repo"`
	Window   string `json:"window"`
	Commit   string `json:"commit,omitempty"`
	Files    int    `json:"files,omitempty"`
	Bytes    int64  `json:"bytes,omitempty"`
	Complete bool   `json:"complete"`
}

// Scan walks the output root and reports every window directory found,
// sorted by repository then label (most recent label first, matching run
// order). A window is complete when its marker exists; manifests fill in
// commit and size detail when present.
func (l *Layout) Scan(marker string) ([]ReportRow, error) {
	repos, err := os.ReadDir(l.Root)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading output root: %w", err)
	}

	var rows []ReportRow
	for _, repo := range repos {
		if !repo.IsDir() {
			continue
		}
		windows, err := os.ReadDir(filepath.Join(l.Root, repo.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", repo.Name(), err)
		}
		for _, win := range windows {
			if !win.IsDir() {
				continue
			}
			row := ReportRow{
				Repo:     repo.Name(),
				Window:   win.Name(),
				Complete: l.MarkerPresent(repo.Name(), win.Name(), marker),
			}
			if m, err := l.ReadManifest(repo.Name(), win.Name()); err == nil && m != nil {
				row.Commit = m.Commit
				row.Files = m.Files
				row.Bytes = m.Bytes
			}
			rows = append(rows, row)
		}
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Repo != rows[j].Repo {
			return rows[i].Repo < rows[j].Repo
		}
		return rows[i].Window > rows[j].Window
	})
	return rows, nil
}
