package snapshot

import (
	"io"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
)

var (
	greenf = color.New(color.FgGreen).SprintfFunc()
	redf   = color.New(color.FgRed).SprintfFunc()
)

// Render writes the end-of-run summary table.
func Render(w io.Writer, s *RunSummary) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Repository", "Classified", "Skipped", "Failed", "Exported"})

	for i := range s.Repos {
		repo := &s.Repos[i]
		if repo.CloneErr != "" {
			t.AppendRow(table.Row{repo.Repo, "-", "-", redf("clone failed"), "-"})
			continue
		}
		c := repo.Count()
		failed := "0"
		if c.Failed > 0 {
			failed = redf("%d", c.Failed)
		}
		classified := "0"
		if c.Classified > 0 {
			classified = greenf("%d", c.Classified)
		}
		t.AppendRow(table.Row{repo.Repo, classified, c.Skipped, failed, humanize.Bytes(uint64(c.Bytes))})
	}

	total := s.Count()
	t.AppendFooter(table.Row{"total", total.Classified, total.Skipped, total.Failed, humanize.Bytes(uint64(total.Bytes))})
	t.Render()
}

// RenderReport writes the table for scanned output-root rows.
func RenderReport(w io.Writer, rows []ReportRow) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Repository", "Window", "Commit", "Files", "Size", "Status"})

	for _, row := range rows {
		status := greenf("complete")
		if !row.Complete {
			status = redf("partial")
		}
		size := "-"
		if row.Bytes > 0 {
			size = humanize.Bytes(uint64(row.Bytes))
		}
		t.AppendRow(table.Row{row.Repo, row.Window, shortHash(row.Commit), row.Files, size, status})
	}
	t.Render()
}
