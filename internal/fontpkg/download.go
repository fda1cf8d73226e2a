package fontpkg

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"sync/atomic"
	"syscall"
	"time"
)

const (
	// DefaultTimeout bounds connecting, waiting for the first byte and each
	// idle gap while reading the body.
	DefaultTimeout = 10 * time.Second
	// DefaultUserAgent is the User-Agent header sent with requests.
	DefaultUserAgent = "fonts-installer/1.0"
	// maxRedirects is the redirect limit; SourceForge mirrors redirect several times.
	maxRedirects = 10
)

// ProgressFunc is called once a response arrives. The returned writer
// receives a copy of every body chunk; if it is also an io.Closer it is
// closed when the download ends. size is -1 when unknown.
type ProgressFunc func(url string, size int64) io.Writer

// DownloaderOptions configures a Downloader.
type DownloaderOptions struct {
	Timeout   time.Duration
	Retries   int
	UserAgent string
	Progress  ProgressFunc
}

// Downloader streams remote resources to local files.
type Downloader struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
	retries   int
	backoff   time.Duration
	progress  ProgressFunc
}

// NewDownloader creates a downloader. Zero option values use the defaults.
func NewDownloader(opts DownloaderOptions) *Downloader {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	dialer := &net.Dialer{
		Timeout:   timeout,
		KeepAlive: 30 * time.Second,
	}

	return &Downloader{
		client: &http.Client{
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				DialContext:           dialer.DialContext,
				ForceAttemptHTTP2:     true,
				MaxIdleConns:          10,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   timeout,
				ResponseHeaderTimeout: timeout,
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
		timeout:   timeout,
		userAgent: userAgent,
		retries:   opts.Retries,
		backoff:   time.Second,
		progress:  opts.Progress,
	}
}

// Download writes the body of url to destPath, creating or truncating it.
// On failure the returned error is a *DownloadError; a partially written
// file may remain at destPath.
func (d *Downloader) Download(ctx context.Context, url, destPath string) error {
	var lastErr error

	for attempt := 0; attempt <= d.retries; attempt++ {
		if attempt > 0 {
			// Exponential backoff: 1x, 2x, 4x ...
			wait := d.backoff * time.Duration(1<<uint(attempt-1))
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return &DownloadError{Kind: FailureRequest, URL: url, Err: ctx.Err()}
			}
		}

		err := d.downloadOnce(ctx, url, destPath)
		if err == nil {
			return nil
		}
		lastErr = err

		if ctx.Err() != nil {
			break
		}
	}

	return lastErr
}

// downloadOnce performs a single attempt.
func (d *Downloader) downloadOnce(ctx context.Context, url, destPath string) (err error) {
	reqCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return &DownloadError{Kind: FailureRequest, URL: url, Err: err}
	}
	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return &DownloadError{Kind: classify(err), URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &DownloadError{
			Kind:       FailureHTTPStatus,
			URL:        url,
			StatusCode: resp.StatusCode,
			Err:        errors.New(resp.Status),
		}
	}

	file, err := os.Create(destPath)
	if err != nil {
		return &DownloadError{Kind: FailureWrite, URL: url, Err: err}
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = &DownloadError{Kind: FailureWrite, URL: url, Err: cerr}
		}
	}()

	// The idle timer cancels the request when no body bytes arrive for
	// d.timeout; every read re-arms it.
	var timedOut atomic.Bool
	timer := time.AfterFunc(d.timeout, func() {
		timedOut.Store(true)
		cancel()
	})
	defer timer.Stop()

	var dst io.Writer = file
	if d.progress != nil {
		if pw := d.progress(url, resp.ContentLength); pw != nil {
			dst = io.MultiWriter(file, pw)
			if closer, ok := pw.(io.Closer); ok {
				defer closer.Close()
			}
		}
	}

	src := &idleTimeoutReader{r: resp.Body, timer: timer, timeout: d.timeout}
	buf := make([]byte, ChunkSize)
	if _, err := io.CopyBuffer(&chunkWriter{w: dst}, src, buf); err != nil {
		var werr *writeError
		switch {
		case errors.As(err, &werr):
			return &DownloadError{Kind: FailureWrite, URL: url, Err: werr.err}
		case timedOut.Load():
			return &DownloadError{Kind: FailureTimeout, URL: url, Err: fmt.Errorf("no data received for %s", d.timeout)}
		default:
			return &DownloadError{Kind: classify(err), URL: url, Err: err}
		}
	}

	return nil
}

// classify maps a transport error onto a FailureKind.
func classify(err error) FailureKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return FailureTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return FailureTimeout
	}

	var opErr *net.OpError
	var dnsErr *net.DNSError
	switch {
	case errors.As(err, &dnsErr),
		errors.As(err, &opErr),
		errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, io.ErrUnexpectedEOF):
		return FailureConnection
	}

	return FailureRequest
}

// idleTimeoutReader re-arms timer after every read.
type idleTimeoutReader struct {
	r       io.Reader
	timer   *time.Timer
	timeout time.Duration
}

func (r *idleTimeoutReader) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	if n > 0 {
		r.timer.Reset(r.timeout)
	}
	return n, err
}

// chunkWriter hides ReadFrom on *os.File so io.CopyBuffer honours the
// fixed buffer, and tags write failures.
type chunkWriter struct {
	w io.Writer
}

func (c *chunkWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	if err != nil {
		return n, &writeError{err: err}
	}
	return n, nil
}

type writeError struct {
	err error
}

func (e *writeError) Error() string { return e.err.Error() }
func (e *writeError) Unwrap() error { return e.err }
