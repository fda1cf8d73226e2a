// Package platform detects the host OS and Linux distribution so the
// installer can tailor its configuration and its hints for missing tools.
//
// Distribution details come from gopsutil. Detection failures degrade to
// OS-only information rather than failing the caller.
package platform

import "context"

// Linux distribution families.
const (
	FamilyDebian  = "debian"  // Debian, Ubuntu, Linux Mint
	FamilyRHEL    = "rhel"    // RHEL, CentOS, Rocky Linux, AlmaLinux
	FamilyFedora  = "fedora"  // Fedora
	FamilySUSE    = "suse"    // openSUSE, SLES
	FamilyArch    = "arch"    // Arch Linux, Manjaro
	FamilyAlpine  = "alpine"  // Alpine Linux
	FamilyUnknown = "unknown" // Unrecognized distributions
)

// Info contains platform detection information.
type Info struct {
	OS       string // "linux", "darwin", "freebsd", ...
	Arch     string // normalized, e.g. "amd64", "arm64"
	Platform string // distro ID (Linux only, e.g. "ubuntu")
	Family   string // canonical family (e.g. "debian")
	Version  string // distro version (Linux only, e.g. "24.04")
}

// IsLinux returns true if the platform is Linux.
func (i *Info) IsLinux() bool {
	return i.OS == "linux"
}

// IsMacOS returns true if the platform is macOS.
func (i *Info) IsMacOS() bool {
	return i.OS == "darwin"
}

// HasDistro reports whether Linux distribution details were detected.
func (i *Info) HasDistro() bool {
	return i.IsLinux() && i.Platform != ""
}

// String returns a short human-readable description.
func (i *Info) String() string {
	if i.HasDistro() {
		if i.Version != "" {
			return i.Platform + " " + i.Version + " (" + i.Arch + ")"
		}
		return i.Platform + " (" + i.Arch + ")"
	}
	return i.OS + " (" + i.Arch + ")"
}

// Detector is the interface for platform detection.
type Detector interface {
	Detect(ctx context.Context) (*Info, error)
}

// StaticDetector returns a fixed Info. Useful for tests and for callers that
// already detected the platform once.
type StaticDetector struct {
	Info *Info
}

// Detect returns the stored info.
func (s StaticDetector) Detect(ctx context.Context) (*Info, error) {
	return s.Info, nil
}
