package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repolens/repolens/internal/classify"
	"github.com/repolens/repolens/internal/config"
	"github.com/repolens/repolens/internal/history"
)

type fakeCommit struct {
	hash string
	when time.Time
}

type fakeMirror struct {
	commits   []fakeCommit
	exportErr error
}

func (m *fakeMirror) ResolveBefore(cutoff time.Time) (string, bool, error) {
	var best *fakeCommit
	for i := range m.commits {
		c := &m.commits[i]
		if c.when.After(cutoff) {
			continue
		}
		if best == nil || c.when.After(best.when) {
			best = c
		}
	}
	if best == nil {
		return "", false, nil
	}
	return best.hash, true, nil
}

func (m *fakeMirror) Export(ctx context.Context, commit, dir string) (history.ExportStats, error) {
	if m.exportErr != nil {
		return history.ExportStats{}, m.exportErr
	}
	content := []byte("tree of " + commit + "\n")
	if err := os.WriteFile(filepath.Join(dir, "main.go"), content, 0o644); err != nil {
		return history.ExportStats{}, err
	}
	return history.ExportStats{Files: 1, Bytes: int64(len(content))}, nil
}

type fakeSource struct {
	mirrors map[string]*fakeMirror
	errs    map[string]error
	clones  int
}

func (s *fakeSource) Mirror(ctx context.Context, url, dir string) (history.Mirror, error) {
	s.clones++
	if err := s.errs[url]; err != nil {
		return nil, err
	}
	m, ok := s.mirrors[url]
	if !ok {
		return nil, fmt.Errorf("unknown repository %s", url)
	}
	return m, nil
}

type fakeClassifier struct {
	marker string
	fail   bool
	calls  int
}

func (c *fakeClassifier) Classify(ctx context.Context, treePath, outputDir string, params classify.Params) error {
	c.calls++
	if c.fail {
		// Simulate a partial artifact left behind before the failure.
		_ = os.WriteFile(filepath.Join(outputDir, "partial.jsonl"), []byte("{}\n"), 0o644)
		return errors.New("classifier exited 1")
	}
	return os.WriteFile(filepath.Join(outputDir, c.marker), []byte("[]\n"), 0o644)
}

func testConfig(t *testing.T, urls []string, horizon, step int) *config.Config {
	t.Helper()
	base := t.TempDir()
	scratch := filepath.Join(base, "scratch")
	require.NoError(t, os.MkdirAll(scratch, 0o755))
	return &config.Config{
		Repositories:  urls,
		HorizonMonths: horizon,
		StepMonths:    step,
		OutputRoot:    filepath.Join(base, "out"),
		ScratchRoot:   scratch,
		Classifier: config.Classifier{
			Command:        "fake",
			CodeExtensions: []string{".go"},
			TextExtensions: []string{".md"},
			MaxWords:       512,
			Marker:         "marker",
		},
	}
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

const repoURL = "https://github.com/acme/widgets.git"

var now = time.Date(2024, time.August, 15, 10, 0, 0, 0, time.UTC)

func TestRun_NoCommitWindowsAbsent(t *testing.T) {
	cfg := testConfig(t, []string{repoURL}, 6, 2)
	src := &fakeSource{mirrors: map[string]*fakeMirror{
		repoURL: {commits: []fakeCommit{
			{hash: "aaa1111", when: time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC)},
		}},
	}}
	cls := &fakeClassifier{marker: "marker"}

	summary, err := New(cfg, src, cls, quietLogger()).Run(context.Background(), now)
	require.NoError(t, err)

	// Windows: 2024-08, 2024-06, 2024-04, 2024-02. Only 2024-08 has a commit.
	repo := summary.Repos[0]
	require.Len(t, repo.Windows, 4)
	assert.Equal(t, StatusClassified, repo.Windows[0].Status)
	for _, w := range repo.Windows[1:] {
		assert.Equal(t, StatusSkipNoCommit, w.Status)
		_, err := os.Stat(filepath.Join(cfg.OutputRoot, "widgets", w.Window))
		assert.True(t, os.IsNotExist(err), w.Window)
	}
	assert.Equal(t, 1, cls.calls)
}

func TestRun_DuplicateCommitProcessedOnce(t *testing.T) {
	cfg := testConfig(t, []string{repoURL}, 4, 2)
	// One commit covers the 2024-08, 2024-06 and 2024-04 windows.
	src := &fakeSource{mirrors: map[string]*fakeMirror{
		repoURL: {commits: []fakeCommit{
			{hash: "aaa1111", when: time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC)},
		}},
	}}
	cls := &fakeClassifier{marker: "marker"}

	summary, err := New(cfg, src, cls, quietLogger()).Run(context.Background(), now)
	require.NoError(t, err)

	repo := summary.Repos[0]
	require.Len(t, repo.Windows, 3)
	assert.Equal(t, StatusClassified, repo.Windows[0].Status)
	assert.Equal(t, StatusSkipDuplicate, repo.Windows[1].Status)
	assert.Equal(t, StatusSkipDuplicate, repo.Windows[2].Status)

	// Exactly one window directory exists for that commit.
	entries, err := os.ReadDir(filepath.Join(cfg.OutputRoot, "widgets"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "2024-08", entries[0].Name())
	assert.Equal(t, 1, cls.calls)
}

func TestRun_SeenSetPersistsAcrossWholeLoop(t *testing.T) {
	cfg := testConfig(t, []string{repoURL}, 4, 2)
	// Newest window gets bbb2222; both older windows resolve to aaa1111.
	// The seen set is repository-scoped, not per-pair.
	src := &fakeSource{mirrors: map[string]*fakeMirror{
		repoURL: {commits: []fakeCommit{
			{hash: "bbb2222", when: time.Date(2024, time.August, 1, 0, 0, 0, 0, time.UTC)},
			{hash: "aaa1111", when: time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)},
		}},
	}}
	cls := &fakeClassifier{marker: "marker"}

	summary, err := New(cfg, src, cls, quietLogger()).Run(context.Background(), now)
	require.NoError(t, err)

	repo := summary.Repos[0]
	require.Len(t, repo.Windows, 3)
	assert.Equal(t, StatusClassified, repo.Windows[0].Status) // 2024-08: bbb2222
	assert.Equal(t, StatusClassified, repo.Windows[1].Status) // 2024-06: aaa1111
	assert.Equal(t, StatusSkipDuplicate, repo.Windows[2].Status)
	assert.Equal(t, 2, cls.calls)
}

func TestRun_IdempotentRerun(t *testing.T) {
	cfg := testConfig(t, []string{repoURL}, 2, 2)
	src := &fakeSource{mirrors: map[string]*fakeMirror{
		repoURL: {commits: []fakeCommit{
			{hash: "def5678", when: time.Date(2024, time.July, 10, 0, 0, 0, 0, time.UTC)},
			{hash: "abc1234", when: time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)},
		}},
	}}
	cls := &fakeClassifier{marker: "marker"}

	_, err := New(cfg, src, cls, quietLogger()).Run(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 2, cls.calls)

	// The mocked end-to-end contract: the 2024-06 cutoff resolves abc1234
	// and its marker lands under out/widgets/2024-06.
	assert.FileExists(t, filepath.Join(cfg.OutputRoot, "widgets", "2024-06", "marker"))

	// Second run: both windows carry markers already, zero invocations.
	summary, err := New(cfg, src, cls, quietLogger()).Run(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 2, cls.calls)

	repo := summary.Repos[0]
	assert.Equal(t, StatusSkipDone, repo.Windows[0].Status)
	assert.Equal(t, StatusSkipDone, repo.Windows[1].Status)
}

func TestRun_ClassifierFailureLeavesNothing(t *testing.T) {
	cfg := testConfig(t, []string{repoURL}, 0, 1)
	src := &fakeSource{mirrors: map[string]*fakeMirror{
		repoURL: {commits: []fakeCommit{
			{hash: "aaa1111", when: time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC)},
		}},
	}}
	cls := &fakeClassifier{marker: "marker", fail: true}

	summary, err := New(cfg, src, cls, quietLogger()).Run(context.Background(), now)
	require.NoError(t, err)

	w := summary.Repos[0].Windows[0]
	assert.Equal(t, StatusFailed, w.Status)
	assert.Equal(t, StageClassify, w.Stage)

	// No output directory for the failed window, no surviving scratch.
	_, statErr := os.Stat(filepath.Join(cfg.OutputRoot, "widgets", "2024-08"))
	assert.True(t, os.IsNotExist(statErr))
	assertScratchEmpty(t, cfg.ScratchRoot)
}

func TestRun_ExportFailureSkipsWindow(t *testing.T) {
	cfg := testConfig(t, []string{repoURL}, 0, 1)
	src := &fakeSource{mirrors: map[string]*fakeMirror{
		repoURL: {
			commits:   []fakeCommit{{hash: "aaa1111", when: time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC)}},
			exportErr: errors.New("corrupt object"),
		},
	}}
	cls := &fakeClassifier{marker: "marker"}

	summary, err := New(cfg, src, cls, quietLogger()).Run(context.Background(), now)
	require.NoError(t, err)

	w := summary.Repos[0].Windows[0]
	assert.Equal(t, StatusFailed, w.Status)
	assert.Equal(t, StageExport, w.Stage)
	assert.Equal(t, 0, cls.calls)
	assertScratchEmpty(t, cfg.ScratchRoot)
}

func TestRun_CloneFailureSkipsRepository(t *testing.T) {
	bad := "https://github.com/acme/gone.git"
	cfg := testConfig(t, []string{bad, repoURL}, 0, 1)
	src := &fakeSource{
		mirrors: map[string]*fakeMirror{
			repoURL: {commits: []fakeCommit{{hash: "aaa1111", when: time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC)}}},
		},
		errs: map[string]error{bad: errors.New("repository not found")},
	}
	cls := &fakeClassifier{marker: "marker"}

	summary, err := New(cfg, src, cls, quietLogger()).Run(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, summary.Repos, 2)

	assert.NotEmpty(t, summary.Repos[0].CloneErr)
	assert.Empty(t, summary.Repos[0].Windows)

	// The failing repository does not stop the batch.
	assert.Empty(t, summary.Repos[1].CloneErr)
	assert.Equal(t, 1, cls.calls)
	assertScratchEmpty(t, cfg.ScratchRoot)
}

func TestRun_DryRunInvokesNothing(t *testing.T) {
	cfg := testConfig(t, []string{repoURL}, 0, 1)
	src := &fakeSource{mirrors: map[string]*fakeMirror{
		repoURL: {commits: []fakeCommit{{hash: "aaa1111", when: time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC)}}},
	}}
	cls := &fakeClassifier{marker: "marker"}

	o := New(cfg, src, cls, quietLogger())
	o.DryRun = true
	summary, err := o.Run(context.Background(), now)
	require.NoError(t, err)

	assert.Equal(t, 0, cls.calls)
	assert.Equal(t, StatusClassified, summary.Repos[0].Windows[0].Status)
	_, statErr := os.Stat(filepath.Join(cfg.OutputRoot, "widgets", "2024-08"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestRun_WindowCount(t *testing.T) {
	cfg := testConfig(t, []string{repoURL}, 48, 3)
	src := &fakeSource{mirrors: map[string]*fakeMirror{repoURL: {}}}
	cls := &fakeClassifier{marker: "marker"}

	summary, err := New(cfg, src, cls, quietLogger()).Run(context.Background(), now)
	require.NoError(t, err)
	assert.Len(t, summary.Repos[0].Windows, 17)
}

func TestRun_SummaryCounts(t *testing.T) {
	cfg := testConfig(t, []string{repoURL}, 4, 2)
	src := &fakeSource{mirrors: map[string]*fakeMirror{
		repoURL: {commits: []fakeCommit{
			{hash: "aaa1111", when: time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC)},
		}},
	}}
	cls := &fakeClassifier{marker: "marker"}

	summary, err := New(cfg, src, cls, quietLogger()).Run(context.Background(), now)
	require.NoError(t, err)

	c := summary.Count()
	assert.Equal(t, 1, c.Classified)
	assert.Equal(t, 2, c.Skipped)
	assert.Equal(t, 0, c.Failed)
	assert.Positive(t, c.Bytes)
}

func assertScratchEmpty(t *testing.T, scratch string) {
	t.Helper()
	entries, err := os.ReadDir(scratch)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	assert.Empty(t, names, "scratch space must be released on every exit path")
}
