package fontpkg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"path/filepath"
)

// DefaultExtractTool is the 7-Zip command line tool.
const DefaultExtractTool = "7z"

// Extractor unpacks archives with an external 7z-compatible tool.
type Extractor struct {
	bin string
}

// NewExtractor creates an extractor running bin (a name looked up on PATH
// or an absolute path).
func NewExtractor(bin string) *Extractor {
	if bin == "" {
		bin = DefaultExtractTool
	}
	return &Extractor{bin: bin}
}

// Tool returns the configured tool name.
func (e *Extractor) Tool() string {
	return e.bin
}

// CheckAvailable resolves the tool on PATH.
func (e *Extractor) CheckAvailable() (string, error) {
	path, err := exec.LookPath(e.bin)
	if err != nil {
		return "", &ToolMissingError{Tool: e.bin, Err: err}
	}
	return path, nil
}

// Extract unpacks archive into destDir, overwriting existing files.
// A non-zero exit yields an *ExtractionError carrying the tool's stderr.
func (e *Extractor) Extract(ctx context.Context, archive, destDir string) error {
	cmd := exec.CommandContext(ctx, e.bin, "x", archive, "-o"+destDir, "-y")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && ctx.Err() == nil {
		return &ExtractionError{
			Archive:  filepath.Base(archive),
			ExitCode: exitErr.ExitCode(),
			Output:   stderr.String(),
		}
	}
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
		return &ToolMissingError{Tool: e.bin, Err: err}
	}

	return fmt.Errorf("run %s: %w", e.bin, err)
}
