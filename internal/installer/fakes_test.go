package installer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/HarveyDevel/fonts-installer/internal/catalog"
	"github.com/HarveyDevel/fonts-installer/internal/fontpkg"
)

// fakeFetcher serves bodies keyed by URL.
type fakeFetcher struct {
	mu     sync.Mutex
	bodies map[string]string
	errs   map[string]error
	calls  []string
	// block, when set, is waited on before every download.
	block chan struct{}
	// panicOn makes Download panic for the given URL.
	panicOn string
}

func (f *fakeFetcher) Download(ctx context.Context, url, destPath string) error {
	f.mu.Lock()
	f.calls = append(f.calls, url)
	block := f.block
	f.mu.Unlock()

	if block != nil {
		<-block
	}
	if url == f.panicOn {
		panic("fetcher exploded")
	}
	if err, ok := f.errs[url]; ok {
		return err
	}
	return os.WriteFile(destPath, []byte(f.bodies[url]), 0o600)
}

func (f *fakeFetcher) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// fakeExtractor "unpacks" an archive by looking up its body.
type fakeExtractor struct {
	mu      sync.Mutex
	missing bool
	// files maps an archive body to the relative paths it contains.
	files map[string][]string
	// stderr maps an archive body to a failure message.
	stderr map[string]string
	calls  []string
}

func (e *fakeExtractor) Tool() string { return "7z" }

func (e *fakeExtractor) CheckAvailable() (string, error) {
	if e.missing {
		return "", &fontpkg.ToolMissingError{Tool: "7z", Err: os.ErrNotExist}
	}
	return "/usr/bin/7z", nil
}

func (e *fakeExtractor) Extract(ctx context.Context, archive, destDir string) error {
	e.mu.Lock()
	e.calls = append(e.calls, archive)
	e.mu.Unlock()

	data, err := os.ReadFile(archive)
	if err != nil {
		return err
	}
	body := string(data)

	if msg, ok := e.stderr[body]; ok {
		return &fontpkg.ExtractionError{Archive: filepath.Base(archive), ExitCode: 2, Output: msg}
	}
	for _, name := range e.files[body] {
		path := filepath.Join(destDir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return err
		}
		if err := os.WriteFile(path, []byte(body+":"+name), 0o600); err != nil {
			return err
		}
	}
	return nil
}

func (e *fakeExtractor) Calls() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.calls...)
}

// fakeCache answers every refresh with output built from the directory.
type fakeCache struct {
	mu     sync.Mutex
	output func(dir string) string
	err    error
	dirs   []string
}

func (c *fakeCache) Refresh(ctx context.Context, dir string) (string, error) {
	c.mu.Lock()
	c.dirs = append(c.dirs, dir)
	c.mu.Unlock()

	out := ""
	if c.output != nil {
		out = c.output(dir)
	}
	return out, c.err
}

func (c *fakeCache) Dirs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.dirs...)
}

func cachedOutput(n int) func(string) string {
	return func(dir string) string {
		return "/usr/share/fonts: skipping, existing cache is valid: 0 fonts, 1 dirs\n" +
			dir + ": caching, new cache contents: " + strconv.Itoa(n) + " fonts, 0 dirs\n" +
			"fc-cache: succeeded\n"
	}
}

// fakeVerifier uses real checksums and scripted signature results.
type fakeVerifier struct {
	*fontpkg.Verifier
	keyring bool
	sigErr  error
	sigs    []string
}

func (v *fakeVerifier) HasKeyring() bool { return v.keyring }

func (v *fakeVerifier) VerifySignature(path, sigPath string) error {
	v.sigs = append(v.sigs, sigPath)
	return v.sigErr
}

type testRig struct {
	pipeline   *Pipeline
	fetcher    *fakeFetcher
	extractor  *fakeExtractor
	cache      *fakeCache
	verifier   *fakeVerifier
	installDir string
	scratchDir string
	stateDir   string
}

func digest(body string) string {
	h := sha256.Sum256([]byte(body))
	return hex.EncodeToString(h[:])
}

var testTime = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

func newRig(t *testing.T, specs []catalog.PackageSpec, mutate ...func(*Options)) *testRig {
	t.Helper()

	cat, err := catalog.New(specs)
	if err != nil {
		t.Fatalf("catalog.New() error = %v", err)
	}

	root := t.TempDir()
	rig := &testRig{
		fetcher:    &fakeFetcher{bodies: map[string]string{}, errs: map[string]error{}},
		extractor:  &fakeExtractor{files: map[string][]string{}, stderr: map[string]string{}},
		cache:      &fakeCache{output: cachedOutput(0)},
		verifier:   &fakeVerifier{Verifier: fontpkg.NewVerifier(nil)},
		installDir: filepath.Join(root, "data", "fonts", "mscorefonts"),
		scratchDir: filepath.Join(root, "tmp"),
		stateDir:   filepath.Join(root, "state"),
	}
	if err := os.MkdirAll(rig.scratchDir, 0o700); err != nil {
		t.Fatal(err)
	}

	opts := Options{
		Catalog:    cat,
		InstallDir: rig.installDir,
		ScratchDir: rig.scratchDir,
		StateDir:   rig.stateDir,
		Fetcher:    rig.fetcher,
		Verifier:   rig.verifier,
		Extractor:  rig.extractor,
		Cache:      rig.cache,
		Clock:      FixedClock{Time: testTime},
	}
	for _, m := range mutate {
		m(&opts)
	}

	rig.pipeline, err = New(opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return rig
}

// serve registers a package body and, optionally, the files its archive holds.
func (r *testRig) serve(url, body string, files ...string) {
	r.fetcher.bodies[url] = body
	if len(files) > 0 {
		r.extractor.files[body] = files
	}
}

func (r *testRig) installed(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(r.installDir)
	if err != nil {
		t.Fatalf("read install dir: %v", err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

func (r *testRig) assertScratchReleased(t *testing.T) {
	t.Helper()
	entries, err := os.ReadDir(r.scratchDir)
	if err != nil {
		t.Fatalf("read scratch parent: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("scratch workspace not removed: %d entries left", len(entries))
	}
}

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) emit(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) messages(level Level) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, ev := range r.events {
		if ev.Kind == EventLog && ev.Level == level {
			out = append(out, ev.Message)
		}
	}
	return out
}

func (r *recorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, ev := range r.events {
		if ev.Kind == EventLog {
			out = append(out, ev.Message)
		}
	}
	return out
}

func containsLine(lines []string, substr string) bool {
	return countLines(lines, substr) > 0
}

func countLines(lines []string, substr string) int {
	n := 0
	for _, l := range lines {
		if strings.Contains(l, substr) {
			n++
		}
	}
	return n
}
