package fontpkg

import (
	"errors"
	"fmt"
)

// ChunkSize is the read/write unit for downloads and digests.
const ChunkSize = 8 * 1024

// FailureKind classifies a download failure.
type FailureKind int

const (
	// FailureRequest is any request-level error not covered below.
	FailureRequest FailureKind = iota
	// FailureHTTPStatus means the server answered with a non-2xx status.
	FailureHTTPStatus
	// FailureConnection means the connection could not be made or was dropped.
	FailureConnection
	// FailureTimeout means connecting, the first byte or a body read took too long.
	FailureTimeout
	// FailureWrite means the destination file could not be written.
	FailureWrite
)

// String returns a short label used in user-facing messages.
func (k FailureKind) String() string {
	switch k {
	case FailureHTTPStatus:
		return "HTTP error"
	case FailureConnection:
		return "connection error"
	case FailureTimeout:
		return "timeout error"
	case FailureWrite:
		return "write error"
	default:
		return "download error"
	}
}

// DownloadError describes a failed download.
type DownloadError struct {
	Kind       FailureKind
	URL        string
	StatusCode int // set for FailureHTTPStatus
	Err        error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("%s: %v (%s)", e.Kind, e.Err, e.URL)
}

func (e *DownloadError) Unwrap() error {
	return e.Err
}

// ChecksumMismatchError is returned when a file's digest differs from the
// reference value.
type ChecksumMismatchError struct {
	Expected string
	Actual   string
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("checksum mismatch: expected %s, got %s", e.Expected, e.Actual)
}

// ErrNoKeyring is returned when a signature check is requested without a
// configured keyring.
var ErrNoKeyring = errors.New("no OpenPGP keyring configured")

// SignatureError is returned when a detached signature does not verify.
type SignatureError struct {
	Err error
}

func (e *SignatureError) Error() string {
	return fmt.Sprintf("signature verification failed: %v", e.Err)
}

func (e *SignatureError) Unwrap() error {
	return e.Err
}

// ToolMissingError is returned when an external tool is not on PATH.
type ToolMissingError struct {
	Tool string
	Err  error
}

func (e *ToolMissingError) Error() string {
	return fmt.Sprintf("'%s' command not found", e.Tool)
}

func (e *ToolMissingError) Unwrap() error {
	return e.Err
}

// ExtractionError is returned when the extraction tool exits non-zero.
// Output holds the tool's stderr verbatim.
type ExtractionError struct {
	Archive  string
	ExitCode int
	Output   string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction of %s failed (exit status %d): %s", e.Archive, e.ExitCode, e.Output)
}
