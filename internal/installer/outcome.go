package installer

import (
	"time"

	"github.com/HarveyDevel/fonts-installer/internal/catalog"
	"github.com/HarveyDevel/fonts-installer/internal/fontcache"
	"github.com/HarveyDevel/fonts-installer/internal/transaction"
)

// Outcome is the result of processing one selected package.
type Outcome int

const (
	OutcomeInstalled Outcome = iota
	OutcomeDownloadFailed
	OutcomeChecksumMismatch
	OutcomeExtractionFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeInstalled:
		return "installed"
	case OutcomeDownloadFailed:
		return "download failed"
	case OutcomeChecksumMismatch:
		return "checksum mismatch"
	case OutcomeExtractionFailed:
		return "extraction failed"
	default:
		return "unknown"
	}
}

func (o Outcome) journalState() transaction.State {
	switch o {
	case OutcomeInstalled:
		return transaction.StateInstalled
	case OutcomeDownloadFailed:
		return transaction.StateDownloadFailed
	case OutcomeChecksumMismatch:
		return transaction.StateChecksumMismatch
	case OutcomeExtractionFailed:
		return transaction.StateExtractionFailed
	default:
		return transaction.StatePending
	}
}

// PackageOutcome records what happened to one selection entry.
type PackageOutcome struct {
	Package catalog.PackageSpec
	Outcome Outcome
	// Err is the failure cause; nil for OutcomeInstalled.
	Err error
	// Files are the lower-cased names written to the install directory.
	Files []string
}

// RunReport aggregates a run.
type RunReport struct {
	// Outcomes holds one entry per selected package, in selection order.
	Outcomes []PackageOutcome
	// CacheSummary is the cache tool's line for the install directory, if found.
	CacheSummary *fontcache.Summary
	// Err is the fatal error that ended the run early, if any.
	Err        error
	StartedAt  time.Time
	FinishedAt time.Time
	// Success is true iff no package failed its integrity check and no
	// fatal error occurred. Download and extraction failures do not clear it.
	Success bool
}

// ChecksumFailures returns the packages that failed integrity checks.
func (r *RunReport) ChecksumFailures() []catalog.PackageSpec {
	var failed []catalog.PackageSpec
	for _, o := range r.Outcomes {
		if o.Outcome == OutcomeChecksumMismatch {
			failed = append(failed, o.Package)
		}
	}
	return failed
}

// Count returns the number of outcomes equal to o.
func (r *RunReport) Count(o Outcome) int {
	n := 0
	for _, out := range r.Outcomes {
		if out.Outcome == o {
			n++
		}
	}
	return n
}

func (r *RunReport) verdict() bool {
	return r.Err == nil && len(r.ChecksumFailures()) == 0
}
