// Package snapshot owns the batch control flow: per-repository mirror
// acquisition, per-window commit resolution, tree export, classifier
// invocation, and cleanup. Failures are local to their unit of work; the
// run itself always completes.
package snapshot

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/repolens/repolens/internal/classify"
	"github.com/repolens/repolens/internal/config"
	"github.com/repolens/repolens/internal/history"
	"github.com/repolens/repolens/internal/window"
)

// Orchestrator drives one batch run. The history source, classifier and
// clock are injected so tests run without processes or network.
type Orchestrator struct {
	cfg        *config.Config
	source     history.Source
	classifier classify.Classifier
	layout     *Layout
	log        *logrus.Logger

	// DryRun resolves commits but neither exports nor classifies.
	DryRun bool
}

// New constructs an orchestrator over the given collaborators.
func New(cfg *config.Config, source history.Source, classifier classify.Classifier, log *logrus.Logger) *Orchestrator {
	return &Orchestrator{
		cfg:        cfg,
		source:     source,
		classifier: classifier,
		layout:     NewLayout(cfg.OutputRoot),
		log:        log,
	}
}

// Run processes every configured repository against the windows derived
// from now. It returns an error only for setup problems (bad window
// parameters, unusable output root); per-repository and per-window
// failures are recorded in the summary instead.
func (o *Orchestrator) Run(ctx context.Context, now time.Time) (*RunSummary, error) {
	windows, err := window.Enumerate(now, o.cfg.HorizonMonths, o.cfg.StepMonths)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(o.cfg.OutputRoot, 0o755); err != nil {
		return nil, fmt.Errorf("creating output root: %w", err)
	}

	summary := &RunSummary{Started: now}
	start := time.Now()
	for _, url := range o.cfg.Repositories {
		summary.Repos = append(summary.Repos, o.processRepo(ctx, url, windows))
	}
	summary.Elapsed = time.Since(start)
	return summary, nil
}

func (o *Orchestrator) processRepo(ctx context.Context, url string, windows []window.Window) RepoResult {
	name, err := history.RepoName(url)
	if err != nil {
		// Validation catches this before a run; belt and suspenders.
		return RepoResult{Repo: url, URL: url, CloneErr: err.Error()}
	}
	res := RepoResult{Repo: name, URL: url}
	log := o.log.WithField("repo", name)

	mirrorDir, err := os.MkdirTemp(o.cfg.Scratch(), "repolens-mirror-"+name+"-")
	if err != nil {
		log.WithError(err).Warn("cannot create mirror scratch dir, skipping repository")
		res.CloneErr = err.Error()
		return res
	}
	defer func() { _ = os.RemoveAll(mirrorDir) }()

	log.Info("mirroring repository")
	mirror, err := o.source.Mirror(ctx, url, mirrorDir)
	if err != nil {
		log.WithError(err).Warn("mirror clone failed, skipping repository")
		res.CloneErr = err.Error()
		return res
	}

	// Commits already processed for this repository; a commit is handled
	// at most once no matter how many windows resolve to it.
	seen := make(map[string]bool)
	for _, w := range windows {
		res.Windows = append(res.Windows, o.processWindow(ctx, name, mirror, w, seen))
	}
	return res
}

func (o *Orchestrator) processWindow(ctx context.Context, repo string, mirror history.Mirror, w window.Window, seen map[string]bool) WindowResult {
	res := WindowResult{Repo: repo, Window: w.Label}
	log := o.log.WithFields(logrus.Fields{"repo": repo, "window": w.Label})

	commit, ok, err := mirror.ResolveBefore(w.Cutoff)
	if err != nil {
		log.WithError(err).Warn("commit resolution failed")
		res.Status, res.Stage, res.Err = StatusFailed, StageResolve, err.Error()
		return res
	}
	if !ok {
		log.Info("no commit before cutoff")
		res.Status = StatusSkipNoCommit
		return res
	}
	res.Commit = commit
	log = log.WithField("commit", shortHash(commit))

	if seen[commit] {
		log.Info("commit already processed, skipping window")
		res.Status = StatusSkipDuplicate
		return res
	}
	seen[commit] = true

	if o.layout.MarkerPresent(repo, w.Label, o.cfg.Classifier.Marker) {
		log.Info("window already complete")
		res.Status = StatusSkipDone
		return res
	}

	if o.DryRun {
		log.Info("dry run: would export and classify")
		res.Status = StatusClassified
		return res
	}

	start := time.Now()
	treeDir, err := os.MkdirTemp(o.cfg.Scratch(), "repolens-tree-")
	if err != nil {
		log.WithError(err).Warn("cannot create export scratch dir")
		res.Status, res.Stage, res.Err = StatusFailed, StageExport, err.Error()
		return res
	}
	defer func() { _ = os.RemoveAll(treeDir) }()

	stats, err := mirror.Export(ctx, commit, treeDir)
	if err != nil {
		log.WithError(err).Warn("tree export failed")
		res.Status, res.Stage, res.Err = StatusFailed, StageExport, err.Error()
		return res
	}
	res.Files, res.Bytes = stats.Files, stats.Bytes

	outDir := o.layout.WindowDir(repo, w.Label)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		log.WithError(err).Warn("cannot create window output dir")
		res.Status, res.Stage, res.Err = StatusFailed, StageClassify, err.Error()
		return res
	}

	params := classify.Params{
		CodeExtensions: o.cfg.Classifier.CodeExtensions,
		TextExtensions: o.cfg.Classifier.TextExtensions,
		MaxWords:       o.cfg.Classifier.MaxWords,
	}
	if err := o.classifier.Classify(ctx, treeDir, outDir, params); err != nil {
		log.WithError(err).Warn("classification failed, removing partial output")
		if rmErr := o.layout.RemoveWindow(repo, w.Label); rmErr != nil {
			log.WithError(rmErr).Warn("cannot remove partial output dir")
		}
		res.Status, res.Stage, res.Err = StatusFailed, StageClassify, err.Error()
		return res
	}

	res.Status = StatusClassified
	res.Duration = time.Since(start)
	if err := o.layout.WriteManifest(repo, w.Label, Manifest{
		Repo:         repo,
		Window:       w.Label,
		Cutoff:       w.Cutoff,
		Commit:       commit,
		Files:        stats.Files,
		Bytes:        stats.Bytes,
		ClassifiedAt: time.Now().UTC(),
	}); err != nil {
		// The window itself succeeded; the manifest is best effort.
		log.WithError(err).Warn("cannot write snapshot manifest")
	}

	log.WithField("files", stats.Files).Info("window classified")
	return res
}

func shortHash(h string) string {
	if len(h) > 7 {
		return h[:7]
	}
	return h
}
