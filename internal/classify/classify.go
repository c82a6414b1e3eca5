// Package classify invokes the external file-classification tool. The
// tool is an opaque collaborator: it reads an exported tree, writes its
// artifacts into the window's output directory, and reports success via
// its exit status.
package classify

import "context"

// Params are the pass-through knobs for the classifier.
type Params struct {
	CodeExtensions []string
	TextExtensions []string
	MaxWords       int
}

// Classifier runs the classification tool over one exported tree.
type Classifier interface {
	Classify(ctx context.Context, treePath, outputDir string, params Params) error
}
