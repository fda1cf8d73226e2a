// Package fontcache wraps the fontconfig cache tool (fc-cache) and parses
// its verbose output.
package fontcache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
)

// DefaultTool is the fontconfig cache builder.
const DefaultTool = "fc-cache"

// ErrToolMissing is returned when the cache tool cannot be found.
var ErrToolMissing = errors.New("font cache tool not found")

// RefreshError is returned when the cache tool exits non-zero.
type RefreshError struct {
	ExitCode int
	Stderr   string
}

func (e *RefreshError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		return fmt.Sprintf("font cache refresh failed (exit status %d)", e.ExitCode)
	}
	return fmt.Sprintf("font cache refresh failed (exit status %d): %s", e.ExitCode, msg)
}

// Refresher rebuilds the font cache for a directory.
type Refresher interface {
	Refresh(ctx context.Context, dir string) (string, error)
}

// Client runs the cache tool.
type Client struct {
	bin string
}

// NewClient creates a client running bin, or DefaultTool when bin is empty.
func NewClient(bin string) *Client {
	if bin == "" {
		bin = DefaultTool
	}
	return &Client{bin: bin}
}

// Refresh forces a verbose rescan of dir and returns the tool's stdout.
func (c *Client) Refresh(ctx context.Context, dir string) (string, error) {
	cmd := exec.CommandContext(ctx, c.bin, "-fv", dir)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return stdout.String(), nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && ctx.Err() == nil {
		return stdout.String(), &RefreshError{
			ExitCode: exitErr.ExitCode(),
			Stderr:   stderr.String(),
		}
	}
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", ErrToolMissing, c.bin)
	}

	return stdout.String(), fmt.Errorf("run %s: %w", c.bin, err)
}

// Summary is the cache tool's report line for one directory, e.g.
// "/home/u/.local/share/fonts/mscorefonts: caching, new cache contents: 12 fonts, 0 dirs".
type Summary struct {
	Dir    string
	Detail string
	// Fonts is the reported font count, or -1 if the line carries none.
	Fonts int
}

var fontCountRe = regexp.MustCompile(`(\d+) fonts?\b`)

// ParseSummary returns the first line of output that mentions dir and
// contains a colon, split at the first colon.
func ParseSummary(output, dir string) (Summary, bool) {
	for _, line := range strings.Split(output, "\n") {
		if !strings.Contains(line, dir) || !strings.Contains(line, ":") {
			continue
		}

		head, detail, _ := strings.Cut(line, ":")
		s := Summary{
			Dir:    strings.TrimSpace(head),
			Detail: strings.TrimSpace(detail),
			Fonts:  -1,
		}
		if m := fontCountRe.FindStringSubmatch(s.Detail); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				s.Fonts = n
			}
		}
		return s, true
	}
	return Summary{}, false
}
