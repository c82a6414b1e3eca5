package snapshot

import (
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func init() {
	// Deterministic output regardless of the test terminal.
	color.NoColor = true
}

func TestRender(t *testing.T) {
	s := &RunSummary{
		Repos: []RepoResult{
			{
				Repo: "widgets",
				Windows: []WindowResult{
					{Window: "2024-08", Status: StatusClassified, Bytes: 2048},
					{Window: "2024-06", Status: StatusSkipDuplicate},
					{Window: "2024-04", Status: StatusFailed, Stage: StageClassify},
				},
			},
			{Repo: "gone", CloneErr: "repository not found"},
		},
	}

	var sb strings.Builder
	Render(&sb, s)
	out := sb.String()

	assert.Contains(t, out, "REPOSITORY")
	assert.Contains(t, out, "widgets")
	assert.Contains(t, out, "clone failed")
	assert.Contains(t, out, "TOTAL")
	assert.Contains(t, out, "2.0 kB")
}

func TestRenderReport(t *testing.T) {
	rows := []ReportRow{
		{Repo: "widgets", Window: "2024-08", Commit: "abc1234def567", Files: 10, Bytes: 4096, Complete: true},
		{Repo: "widgets", Window: "2024-06", Complete: false},
	}

	var sb strings.Builder
	RenderReport(&sb, rows)
	out := sb.String()

	assert.Contains(t, out, "abc1234")
	assert.NotContains(t, out, "abc1234def567")
	assert.Contains(t, out, "complete")
	assert.Contains(t, out, "partial")
	assert.Contains(t, out, "4.1 kB")
}
