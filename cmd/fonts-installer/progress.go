package main

import (
	"fmt"
	"io"
	"path"
	"time"

	"github.com/HarveyDevel/fonts-installer/internal/fontpkg"
	"github.com/schollz/progressbar/v3"
)

// newProgressFunc draws one progress bar per download on w. It returns nil
// when w is not a terminal.
func newProgressFunc(w io.Writer) fontpkg.ProgressFunc {
	if !isTerminal(w) {
		return nil
	}
	return func(url string, size int64) io.Writer {
		return progressbar.NewOptions64(size,
			progressbar.OptionSetWriter(w),
			progressbar.OptionSetDescription(path.Base(url)),
			progressbar.OptionShowBytes(true),
			progressbar.OptionSetWidth(30),
			progressbar.OptionThrottle(80*time.Millisecond),
			progressbar.OptionOnCompletion(func() { fmt.Fprintln(w) }),
		)
	}
}
