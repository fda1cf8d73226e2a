// Package testutil isolates tests from the user's real font directories
// and provides stand-ins for the external tools the installer runs.
package testutil

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/adrg/xdg"
)

// Env holds the isolated directories created by SetupTestEnv.
type Env struct {
	Root       string
	DataHome   string
	ConfigHome string
	StateHome  string
	BinDir     string
}

// SetupTestEnv points the XDG base directories at a temporary tree and
// reloads xdg so default paths resolve inside it. BinDir is prepended to
// PATH so stub tools written there shadow real ones.
func SetupTestEnv(t *testing.T) *Env {
	t.Helper()

	root := t.TempDir()
	env := &Env{
		Root:       root,
		DataHome:   filepath.Join(root, "data"),
		ConfigHome: filepath.Join(root, "config"),
		StateHome:  filepath.Join(root, "state"),
		BinDir:     filepath.Join(root, "bin"),
	}

	for _, dir := range []string{env.DataHome, env.ConfigHome, env.StateHome, env.BinDir} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			t.Fatalf("failed to create test directory %s: %v", dir, err)
		}
	}

	t.Setenv("XDG_DATA_HOME", env.DataHome)
	t.Setenv("XDG_CONFIG_HOME", env.ConfigHome)
	t.Setenv("XDG_STATE_HOME", env.StateHome)
	t.Setenv("PATH", env.BinDir+string(os.PathListSeparator)+os.Getenv("PATH"))
	xdg.Reload()
	t.Cleanup(xdg.Reload)

	return env
}

// WriteStubTool writes an executable shell script named name into dir and
// returns its path. body is appended after the shebang line.
func WriteStubTool(t *testing.T, dir, name, body string) string {
	t.Helper()
	SkipWithoutShell(t)

	path := filepath.Join(dir, name)
	script := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("cannot create stub %s: %v", name, err)
	}
	return path
}

// SkipWithoutShell skips tests that rely on /bin/sh scripts.
func SkipWithoutShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("stub tools require /bin/sh")
	}
}

// Stub7zScript is a 7z stand-in. It records its arguments to argsFile (one
// per line) and writes each name in files, relative to the -o directory,
// with the content "font:<name>".
func Stub7zScript(argsFile string, files ...string) string {
	script := `out=""
for a in "$@"; do
  case "$a" in -o*) out="${a#-o}" ;; esac
done
printf '%s\n' "$@" >> "` + argsFile + `"
`
	for _, f := range files {
		script += `mkdir -p "$(dirname "$out/` + f + `")"
printf 'font:%s' "` + f + `" > "$out/` + f + `"
`
	}
	return script
}
