// Package installer runs the font install pipeline: download, integrity
// check, extraction, placement into the install directory and a font cache
// refresh, one package at a time.
package installer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync"

	"github.com/HarveyDevel/fonts-installer/internal/catalog"
	"github.com/HarveyDevel/fonts-installer/internal/config"
	"github.com/HarveyDevel/fonts-installer/internal/fontcache"
	"github.com/HarveyDevel/fonts-installer/internal/fontpkg"
	"github.com/HarveyDevel/fonts-installer/internal/platform"
	"github.com/HarveyDevel/fonts-installer/internal/transaction"
)

const (
	// InstallDirPermissions is the mode for a newly created install directory.
	InstallDirPermissions = 0o755
	// ScratchDirPermissions is the mode for per-package extraction directories.
	ScratchDirPermissions = 0o700

	eventBuffer = 64
)

var (
	// ErrRunInProgress is returned when a run is requested while another is active.
	ErrRunInProgress = errors.New("an install run is already in progress")
	// ErrUnexpected wraps panics recovered at the run boundary.
	ErrUnexpected = errors.New("unexpected failure")
)

// Fetcher downloads a URL to a local file.
type Fetcher interface {
	Download(ctx context.Context, url, destPath string) error
}

// Verifier checks downloaded archives.
type Verifier interface {
	VerifyChecksum(path, expected string) error
	VerifySignature(path, sigPath string) error
	HasKeyring() bool
}

// Extractor unpacks archives with an external tool.
type Extractor interface {
	Tool() string
	CheckAvailable() (string, error)
	Extract(ctx context.Context, archive, destDir string) error
}

// Options wires a Pipeline.
type Options struct {
	Catalog    *catalog.Catalog
	InstallDir string
	// FontExtensions are matched case-insensitively; default ".ttf".
	FontExtensions []string
	// ScratchDir is the parent of the per-run scratch workspace; empty
	// means os.TempDir.
	ScratchDir string
	// StateDir holds the run lock and the last-run journal. Empty disables both.
	StateDir string

	Fetcher   Fetcher
	Verifier  Verifier
	Extractor Extractor
	Cache     fontcache.Refresher

	Logger config.Logger
	Clock  Clock
	// Platform tailors the hint shown when the extraction tool is missing.
	Platform *platform.Info
}

// Pipeline installs font packages. At most one run or removal is active
// per Pipeline at a time.
type Pipeline struct {
	catalog    *catalog.Catalog
	installDir string
	extensions map[string]bool
	scratchDir string
	stateDir   string

	fetcher   Fetcher
	verifier  Verifier
	extractor Extractor
	cache     fontcache.Refresher

	logger   config.Logger
	clock    Clock
	platform *platform.Info

	mu sync.Mutex
}

// New validates opts and creates a pipeline.
func New(opts Options) (*Pipeline, error) {
	switch {
	case opts.Catalog == nil:
		return nil, errors.New("catalog is required")
	case opts.InstallDir == "":
		return nil, errors.New("install directory is required")
	case opts.Fetcher == nil:
		return nil, errors.New("fetcher is required")
	case opts.Verifier == nil:
		return nil, errors.New("verifier is required")
	case opts.Extractor == nil:
		return nil, errors.New("extractor is required")
	case opts.Cache == nil:
		return nil, errors.New("font cache refresher is required")
	}

	exts := opts.FontExtensions
	if len(exts) == 0 {
		exts = config.DefaultFontExtensions
	}
	extensions := make(map[string]bool, len(exts))
	for _, ext := range exts {
		extensions[normalizeExt(ext)] = true
	}

	logger := opts.Logger
	if logger == nil {
		logger = config.NopLogger()
	}
	clock := opts.Clock
	if clock == nil {
		clock = RealClock{}
	}

	return &Pipeline{
		catalog:    opts.Catalog,
		installDir: filepath.Clean(opts.InstallDir),
		extensions: extensions,
		scratchDir: opts.ScratchDir,
		stateDir:   opts.StateDir,
		fetcher:    opts.Fetcher,
		verifier:   opts.Verifier,
		extractor:  opts.Extractor,
		cache:      opts.Cache,
		logger:     logger,
		clock:      clock,
		platform:   opts.Platform,
	}, nil
}

// InstallDir returns the directory fonts are installed into.
func (p *Pipeline) InstallDir() string {
	return p.installDir
}

// Start validates the selection and runs it on a new goroutine. The
// returned channel delivers progress events in order, then exactly one
// EventDone, and is then closed. Callers must drain it.
func (p *Pipeline) Start(ctx context.Context, selection []string) (<-chan Event, error) {
	if _, err := p.catalog.Resolve(selection); err != nil {
		return nil, err
	}
	if !p.mu.TryLock() {
		return nil, ErrRunInProgress
	}

	events := make(chan Event, eventBuffer)
	go func() {
		defer close(events)
		defer p.mu.Unlock()
		p.run(ctx, selection, func(ev Event) { events <- ev })
	}()

	return events, nil
}

// Run executes a run synchronously, passing every event to emit (which
// may be nil). The last event is always EventDone.
func (p *Pipeline) Run(ctx context.Context, selection []string, emit func(Event)) *RunReport {
	if !p.mu.TryLock() {
		now := p.clock.Now()
		report := &RunReport{Err: ErrRunInProgress, StartedAt: now, FinishedAt: now}
		e := emitter{emit: emit}
		e.error("%v", ErrRunInProgress)
		e.done(report)
		return report
	}
	defer p.mu.Unlock()

	return p.run(ctx, selection, emit)
}

// runState is the mutable state of one run.
type runState struct {
	report  *RunReport
	emit    emitter
	lock    *transaction.Lock
	journal *transaction.Journal
}

// run is the run boundary: every failure below it, panics included, ends
// in a finalized report and a single EventDone.
func (p *Pipeline) run(ctx context.Context, selection []string, emit func(Event)) (report *RunReport) {
	st := &runState{
		report: &RunReport{StartedAt: p.clock.Now()},
		emit:   emitter{emit: emit},
	}

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("install run panicked", "panic", r, "stack", string(debug.Stack()))
			st.report.Err = fmt.Errorf("%w: %v", ErrUnexpected, r)
			st.emit.error("%v", r)
		}
		p.finish(st)
		report = st.report
	}()

	if err := p.install(ctx, selection, st); err != nil {
		st.report.Err = err
	}
	return st.report
}

func (p *Pipeline) finish(st *runState) {
	report := st.report
	report.FinishedAt = p.clock.Now()
	report.Success = report.verdict()

	if st.journal != nil {
		st.journal.Finish(report.FinishedAt, report.Success, report.Err)
		if err := st.journal.Save(p.stateDir); err != nil {
			p.logger.Warn("failed to save run journal", "dir", p.stateDir, "error", err)
		}
	}
	if st.lock != nil {
		if err := st.lock.Release(); err != nil {
			p.logger.Warn("failed to release run lock", "error", err)
		}
	}

	p.logger.Info("install run finished",
		"success", report.Success,
		"installed", report.Count(OutcomeInstalled),
		"download_failed", report.Count(OutcomeDownloadFailed),
		"checksum_mismatch", report.Count(OutcomeChecksumMismatch),
		"extraction_failed", report.Count(OutcomeExtractionFailed),
		"duration", report.FinishedAt.Sub(report.StartedAt),
	)

	if report.Success {
		st.emit.success("Install complete.")
	} else {
		st.emit.error("Installation failed.")
	}
	st.emit.done(report)
}

// install walks Init, the per-package loop, the cache refresh and the
// checksum summary. A returned error is fatal for the run.
func (p *Pipeline) install(ctx context.Context, selection []string, st *runState) error {
	specs, err := p.catalog.Resolve(selection)
	if err != nil {
		st.emit.error("%v", err)
		return err
	}
	st.emit.info("Starting installation of %d fonts...", len(specs))

	if _, err := p.extractor.CheckAvailable(); err != nil {
		p.logger.Error("extraction tool unavailable", "tool", p.extractor.Tool(), "error", err)
		st.emit.error("%s", p.toolMissingMessage(err))
		return err
	}

	if p.stateDir != "" {
		lock, err := transaction.AcquireLock(ctx, p.stateDir)
		if err != nil {
			st.emit.error("%v", err)
			return fmt.Errorf("acquire run lock: %w", err)
		}
		st.lock = lock
		st.journal = transaction.NewInstall(p.installDir, selection, st.report.StartedAt)
	}

	if err := p.ensureInstallDir(st.emit); err != nil {
		return err
	}

	if err := p.installPackages(ctx, specs, st); err != nil {
		return err
	}

	p.refreshCache(ctx, st)

	if failed := st.report.ChecksumFailures(); len(failed) > 0 {
		st.emit.error("These fonts failed checksum verification and were not installed:")
		for _, spec := range failed {
			st.emit.info(" - %s", spec.DisplayName())
		}
	}

	return nil
}

func (p *Pipeline) toolMissingMessage(err error) string {
	var missing *fontpkg.ToolMissingError
	if !errors.As(err, &missing) {
		return err.Error()
	}
	if hint := platform.ExtractorInstallHint(p.platform); hint != "" {
		return fmt.Sprintf("%s. Install it with: %s", missing.Error(), hint)
	}
	return missing.Error() + ". Please install p7zip."
}

func (p *Pipeline) ensureInstallDir(emit emitter) error {
	info, err := os.Stat(p.installDir)
	switch {
	case err == nil && info.IsDir():
		return nil
	case err == nil:
		emit.error("Install path %s is not a directory", p.installDir)
		return fmt.Errorf("install path %s is not a directory", p.installDir)
	case !errors.Is(err, os.ErrNotExist):
		emit.error("Cannot access install directory %s: %v", p.installDir, err)
		return fmt.Errorf("stat install directory: %w", err)
	}

	emit.info("Creating install directory:\n %s", p.installDir)
	if err := os.MkdirAll(p.installDir, InstallDirPermissions); err != nil {
		emit.error("Failed to create install directory: %v", err)
		return fmt.Errorf("create install directory: %w", err)
	}
	return nil
}

// installPackages owns the scratch workspace; it is removed before the
// function returns, whatever the exit path.
func (p *Pipeline) installPackages(ctx context.Context, specs []catalog.PackageSpec, st *runState) error {
	scratch, err := os.MkdirTemp(p.scratchDir, config.AppName+"-")
	if err != nil {
		st.emit.error("Failed to create temporary directory: %v", err)
		return fmt.Errorf("create scratch workspace: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(scratch); err != nil {
			p.logger.Warn("failed to remove scratch workspace", "dir", scratch, "error", err)
		}
	}()
	st.emit.info("Using temporary directory %s", scratch)

	for i, spec := range specs {
		if err := ctx.Err(); err != nil {
			st.emit.error("Installation interrupted: %v", err)
			return err
		}

		outcome, err := p.installPackage(ctx, i, spec, scratch, st.emit)
		if err != nil {
			return err
		}

		st.report.Outcomes = append(st.report.Outcomes, outcome)
		if st.journal != nil {
			st.journal.UpdatePackage(i, outcome.Outcome.journalState(), outcome.Files, outcome.Err)
		}
		p.logger.Debug("package processed", "package", spec.ID, "outcome", outcome.Outcome.String())
	}

	return nil
}

// installPackage processes one selection entry. Per-package failures are
// reported in the outcome; a returned error is fatal for the run.
func (p *Pipeline) installPackage(ctx context.Context, index int, spec catalog.PackageSpec, scratch string, emit emitter) (PackageOutcome, error) {
	result := PackageOutcome{Package: spec}
	fail := func(o Outcome, err error) (PackageOutcome, error) {
		result.Outcome = o
		result.Err = err
		return result, nil
	}

	// Index-prefixed names keep repeated selections of one package apart.
	name := fmt.Sprintf("%d-%s", index, filepath.Base(spec.ID))
	archive := filepath.Join(scratch, name)
	extractDir := filepath.Join(scratch, "extract-"+name)
	if err := os.Mkdir(extractDir, ScratchDirPermissions); err != nil {
		return result, fmt.Errorf("create extraction directory: %w", err)
	}

	emit.info("Downloading %s...", spec.ID)
	if err := p.fetcher.Download(ctx, spec.URL, archive); err != nil {
		p.logger.Warn("download failed", "package", spec.ID, "url", spec.URL, "error", err)
		emit.error("%v", err)
		emit.error("Failed to download %s, skipping.", spec.ID)
		return fail(OutcomeDownloadFailed, err)
	}

	if spec.HasChecksum() {
		if err := p.verifier.VerifyChecksum(archive, spec.SHA256); err != nil {
			p.logger.Warn("checksum verification failed", "package", spec.ID, "error", err)
			emit.error("Checksum verification failed for %s", spec.ID)
			return fail(OutcomeChecksumMismatch, err)
		}
		p.logger.Debug("checksum verified", "package", spec.ID)
	}

	if spec.HasSignature() {
		if outcome, err := p.checkSignature(ctx, spec, archive, emit); err != nil {
			return fail(outcome, err)
		}
	}

	emit.info("Extracting fonts from %s...", spec.ID)
	if err := p.extractor.Extract(ctx, archive, extractDir); err != nil {
		p.logger.Warn("extraction failed", "package", spec.ID, "error", err)
		var extractErr *fontpkg.ExtractionError
		if errors.As(err, &extractErr) {
			emit.error("Extraction failed for %s. %s returned an error: %s", spec.ID, p.extractor.Tool(), extractErr.Output)
		} else {
			emit.error("Extraction failed for %s: %v", spec.ID, err)
		}
		emit.error("Extraction failed for %s, skipping.", spec.ID)
		return fail(OutcomeExtractionFailed, err)
	}

	files, err := p.placeFonts(extractDir, emit)
	if err != nil {
		emit.error("Failed to install fonts from %s: %v", spec.ID, err)
		return result, err
	}
	if len(files) == 0 {
		p.logger.Warn("archive contained no font files", "package", spec.ID)
	}

	result.Outcome = OutcomeInstalled
	result.Files = files
	return result, nil
}

// checkSignature downloads and verifies the detached signature of spec.
// On error the package is skipped with the returned outcome.
func (p *Pipeline) checkSignature(ctx context.Context, spec catalog.PackageSpec, archive string, emit emitter) (Outcome, error) {
	if !p.verifier.HasKeyring() {
		p.logger.Warn("no keyring configured, skipping signature check", "package", spec.ID)
		return OutcomeInstalled, nil
	}

	sigPath := archive + ".sig"
	emit.info("Verifying signature for %s...", spec.ID)
	if err := p.fetcher.Download(ctx, spec.SignatureURL, sigPath); err != nil {
		p.logger.Warn("signature download failed", "package", spec.ID, "url", spec.SignatureURL, "error", err)
		emit.error("%v", err)
		emit.error("Failed to download signature for %s, skipping.", spec.ID)
		return OutcomeDownloadFailed, err
	}

	if err := p.verifier.VerifySignature(archive, sigPath); err != nil {
		p.logger.Warn("signature verification failed", "package", spec.ID, "error", err)
		emit.error("Signature verification failed for %s", spec.ID)
		return OutcomeChecksumMismatch, err
	}

	return OutcomeInstalled, nil
}

// refreshCache rebuilds the font cache for the install directory. Failures
// are reported but never change the verdict.
func (p *Pipeline) refreshCache(ctx context.Context, st *runState) {
	st.emit.info("Updating font cache...")

	out, err := p.cache.Refresh(ctx, p.installDir)
	if err != nil {
		p.logger.Error("font cache refresh failed", "dir", p.installDir, "error", err)
		st.emit.error("Font cache refresh failed: %v", err)
		return
	}

	summary, ok := fontcache.ParseSummary(out, p.installDir)
	if !ok {
		st.emit.error("The font cache tool was unable to find the installed fonts in %s.", p.installDir)
		return
	}

	st.report.CacheSummary = &summary
	st.emit.success("Fonts cached:")
	st.emit.info("%s", summary.Dir)
	st.emit.info("%s", summary.Detail)
}
