package classify

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// ExecClassifier shells out to the classification tool.
type ExecClassifier struct {
	// Command is the tool's name on PATH, or an absolute path.
	Command string
}

// NewExecClassifier returns a Classifier invoking the given command.
func NewExecClassifier(command string) *ExecClassifier {
	return &ExecClassifier{Command: command}
}

// Classify runs the tool and maps a non-zero exit to an error.
func (c *ExecClassifier) Classify(ctx context.Context, treePath, outputDir string, params Params) error {
	if _, err := exec.LookPath(c.Command); err != nil {
		return fmt.Errorf("classifier %q not found: %w", c.Command, err)
	}

	cmd := exec.CommandContext(ctx, c.Command, Args(treePath, outputDir, params)...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		exitCode := -1
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		}
		note := strings.TrimSpace(string(out))
		if len(note) > 512 {
			note = note[:512]
		}
		return fmt.Errorf("classifier exited %d: %s", exitCode, note)
	}
	return nil
}

// Args builds the tool's command line for the given tree and destination.
func Args(treePath, outputDir string, params Params) []string {
	return []string{
		"--repo_path", treePath,
		"--output_dir", outputDir,
		"--code-ext", strings.Join(params.CodeExtensions, ","),
		"--text-ext", strings.Join(params.TextExtensions, ","),
		"--max_words", strconv.Itoa(params.MaxWords),
	}
}
