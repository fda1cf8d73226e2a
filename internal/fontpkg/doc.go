// Package fontpkg downloads, verifies and unpacks font packages.
//
// # Components
//
//   - Downloader: streams an HTTP(S) resource to a file in fixed-size
//     chunks, with connect, first-byte and idle-read timeouts.
//   - Verifier: SHA-256 digests computed in fixed-size chunks, and optional
//     OpenPGP detached signature checks.
//   - Extractor: unpacks self-extracting archives with the external 7z tool.
//
// # Errors
//
// Failures are returned as typed errors so callers can tell them apart:
// *DownloadError (with a FailureKind), *ChecksumMismatchError,
// *SignatureError, *ToolMissingError and *ExtractionError. None of the
// components remove partially written files; the caller owns the directory
// they write into.
package fontpkg
