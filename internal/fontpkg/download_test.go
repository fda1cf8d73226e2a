package fontpkg

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestDownloader_Download(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		body       string
		wantKind   FailureKind
		wantErr    bool
	}{
		{
			name:       "successful download",
			statusCode: http.StatusOK,
			body:       strings.Repeat("font-bytes", 5000),
		},
		{
			name:       "404 not found",
			statusCode: http.StatusNotFound,
			body:       "not found",
			wantKind:   FailureHTTPStatus,
			wantErr:    true,
		},
		{
			name:       "500 server error",
			statusCode: http.StatusInternalServerError,
			body:       "server error",
			wantKind:   FailureHTTPStatus,
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Header.Get("User-Agent") != DefaultUserAgent {
					t.Errorf("unexpected User-Agent: %s", r.Header.Get("User-Agent"))
				}
				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			destPath := filepath.Join(t.TempDir(), "arial32.exe")
			err := NewDownloader(DownloaderOptions{}).Download(context.Background(), server.URL, destPath)

			if tt.wantErr {
				var dlErr *DownloadError
				if !errors.As(err, &dlErr) {
					t.Fatalf("error = %v, want *DownloadError", err)
				}
				if dlErr.Kind != tt.wantKind {
					t.Errorf("Kind = %v, want %v", dlErr.Kind, tt.wantKind)
				}
				if dlErr.StatusCode != tt.statusCode {
					t.Errorf("StatusCode = %d, want %d", dlErr.StatusCode, tt.statusCode)
				}
				if !strings.Contains(err.Error(), "HTTP error") {
					t.Errorf("message %q does not name the failure kind", err.Error())
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			content, err := os.ReadFile(destPath)
			if err != nil {
				t.Fatalf("failed to read downloaded file: %v", err)
			}
			if string(content) != tt.body {
				t.Errorf("content mismatch: got %d bytes, want %d", len(content), len(tt.body))
			}
		})
	}
}

func TestDownloader_OverwritesDestination(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("new"))
	}))
	defer server.Close()

	destPath := filepath.Join(t.TempDir(), "pkg")
	if err := os.WriteFile(destPath, []byte("old content that is longer"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := NewDownloader(DownloaderOptions{}).Download(context.Background(), server.URL, destPath); err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	content, _ := os.ReadFile(destPath)
	if string(content) != "new" {
		t.Errorf("content = %q, want %q", content, "new")
	}
}

func TestDownloader_ConnectionRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	err = NewDownloader(DownloaderOptions{Timeout: time.Second}).
		Download(context.Background(), "http://"+addr+"/pkg.exe", filepath.Join(t.TempDir(), "pkg"))

	var dlErr *DownloadError
	if !errors.As(err, &dlErr) {
		t.Fatalf("error = %v, want *DownloadError", err)
	}
	if dlErr.Kind != FailureConnection {
		t.Errorf("Kind = %v, want %v", dlErr.Kind, FailureConnection)
	}
}

func TestDownloader_FirstByteTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	start := time.Now()
	err := NewDownloader(DownloaderOptions{Timeout: 50 * time.Millisecond}).
		Download(context.Background(), server.URL, filepath.Join(t.TempDir(), "pkg"))

	var dlErr *DownloadError
	if !errors.As(err, &dlErr) {
		t.Fatalf("error = %v, want *DownloadError", err)
	}
	if dlErr.Kind != FailureTimeout {
		t.Errorf("Kind = %v, want %v (err: %v)", dlErr.Kind, FailureTimeout, err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("timeout took %v", elapsed)
	}
}

func TestDownloader_IdleBodyTimeoutLeavesPartialFile(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "100000")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("partial"))
		w.(http.Flusher).Flush()
		<-release
	}))
	defer server.Close()
	defer close(release)

	destPath := filepath.Join(t.TempDir(), "pkg")
	err := NewDownloader(DownloaderOptions{Timeout: 100 * time.Millisecond}).
		Download(context.Background(), server.URL, destPath)

	var dlErr *DownloadError
	if !errors.As(err, &dlErr) {
		t.Fatalf("error = %v, want *DownloadError", err)
	}
	if dlErr.Kind != FailureTimeout {
		t.Errorf("Kind = %v, want %v (err: %v)", dlErr.Kind, FailureTimeout, err)
	}

	content, err := os.ReadFile(destPath)
	if err != nil {
		t.Fatalf("partial file should remain: %v", err)
	}
	if string(content) != "partial" {
		t.Errorf("partial content = %q", content)
	}
}

func TestDownloader_RequestErrors(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"malformed url", "://missing-scheme"},
		{"unsupported scheme", "ftp://example.com/pkg.exe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewDownloader(DownloaderOptions{}).
				Download(context.Background(), tt.url, filepath.Join(t.TempDir(), "pkg"))

			var dlErr *DownloadError
			if !errors.As(err, &dlErr) {
				t.Fatalf("error = %v, want *DownloadError", err)
			}
			if dlErr.Kind != FailureRequest {
				t.Errorf("Kind = %v, want %v", dlErr.Kind, FailureRequest)
			}
		})
	}
}

func TestDownloader_WriteFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("data"))
	}))
	defer server.Close()

	destPath := filepath.Join(t.TempDir(), "missing-dir", "pkg")
	err := NewDownloader(DownloaderOptions{}).Download(context.Background(), server.URL, destPath)

	var dlErr *DownloadError
	if !errors.As(err, &dlErr) {
		t.Fatalf("error = %v, want *DownloadError", err)
	}
	if dlErr.Kind != FailureWrite {
		t.Errorf("Kind = %v, want %v", dlErr.Kind, FailureWrite)
	}
}

func TestDownloader_Retries(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("success"))
	}))
	defer server.Close()

	d := NewDownloader(DownloaderOptions{Retries: 2})
	d.backoff = time.Millisecond

	destPath := filepath.Join(t.TempDir(), "pkg")
	if err := d.Download(context.Background(), server.URL, destPath); err != nil {
		t.Fatalf("expected success after retries, got error: %v", err)
	}
	if got := attempts.Load(); got != 3 {
		t.Errorf("attempts = %d, want 3", got)
	}
}

func TestDownloader_NoRetriesByDefault(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	err := NewDownloader(DownloaderOptions{}).Download(context.Background(), server.URL, filepath.Join(t.TempDir(), "pkg"))
	if err == nil {
		t.Fatal("expected error")
	}
	if got := attempts.Load(); got != 1 {
		t.Errorf("attempts = %d, want 1", got)
	}
}

type closingBuffer struct {
	bytes.Buffer
	closed bool
}

func (c *closingBuffer) Close() error {
	c.closed = true
	return nil
}

func TestDownloader_Progress(t *testing.T) {
	body := strings.Repeat("x", 3*ChunkSize+17)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	defer server.Close()

	progress := &closingBuffer{}
	var gotSize int64
	d := NewDownloader(DownloaderOptions{
		Progress: func(url string, size int64) io.Writer {
			gotSize = size
			return progress
		},
	})

	if err := d.Download(context.Background(), server.URL, filepath.Join(t.TempDir(), "pkg")); err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if progress.Len() != len(body) {
		t.Errorf("progress saw %d bytes, want %d", progress.Len(), len(body))
	}
	if gotSize != int64(len(body)) {
		t.Errorf("size = %d, want %d", gotSize, len(body))
	}
	if !progress.closed {
		t.Error("progress writer was not closed")
	}
}

func TestDownloader_ContextCancelled(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := NewDownloader(DownloaderOptions{Timeout: 5 * time.Second}).
		Download(ctx, server.URL, filepath.Join(t.TempDir(), "pkg"))
	if err == nil {
		t.Fatal("expected error for cancelled context")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want context.DeadlineExceeded in chain", err)
	}
}

func TestFailureKind_String(t *testing.T) {
	tests := []struct {
		kind FailureKind
		want string
	}{
		{FailureRequest, "download error"},
		{FailureHTTPStatus, "HTTP error"},
		{FailureConnection, "connection error"},
		{FailureTimeout, "timeout error"},
		{FailureWrite, "write error"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}
