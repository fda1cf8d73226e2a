// Package catalog holds the static table of font packages known to the
// installer: their identifiers, display names, download URLs and the
// reference digests used to verify them.
package catalog

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptySelection is returned when a run is requested with no packages.
	ErrEmptySelection = errors.New("no packages selected")
	// ErrUnknownPackage is returned when a selection names an ID missing from the catalog.
	ErrUnknownPackage = errors.New("unknown package")
)

// PackageSpec describes one downloadable font archive.
type PackageSpec struct {
	ID   string // archive file name, e.g. "arial32.exe"
	Name string // display name, e.g. "Arial"
	URL  string
	// SHA256 is the lowercase hex digest of the archive. Empty means the
	// package is trusted without a checksum check.
	SHA256 string
	// SignatureURL points at a detached OpenPGP signature (optional).
	SignatureURL string
}

// HasChecksum reports whether a reference digest is configured.
func (p PackageSpec) HasChecksum() bool {
	return p.SHA256 != ""
}

// HasSignature reports whether a detached signature location is configured.
func (p PackageSpec) HasSignature() bool {
	return p.SignatureURL != ""
}

// DisplayName returns Name, falling back to ID.
func (p PackageSpec) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.ID
}

// Catalog is an ordered, read-only set of package specs keyed by ID.
type Catalog struct {
	specs []PackageSpec
	index map[string]int
}

// New builds a catalog, preserving the order of specs.
// Digests are normalized to lowercase.
func New(specs []PackageSpec) (*Catalog, error) {
	c := &Catalog{
		specs: make([]PackageSpec, 0, len(specs)),
		index: make(map[string]int, len(specs)),
	}

	for i, spec := range specs {
		spec.ID = strings.TrimSpace(spec.ID)
		if spec.ID == "" {
			return nil, fmt.Errorf("package %d: id is required", i+1)
		}
		if _, dup := c.index[spec.ID]; dup {
			return nil, fmt.Errorf("package %q: duplicate id", spec.ID)
		}
		if strings.TrimSpace(spec.URL) == "" {
			return nil, fmt.Errorf("package %q: url is required", spec.ID)
		}
		spec.SHA256 = strings.ToLower(strings.TrimSpace(spec.SHA256))

		c.index[spec.ID] = len(c.specs)
		c.specs = append(c.specs, spec)
	}

	return c, nil
}

// Len returns the number of packages.
func (c *Catalog) Len() int {
	return len(c.specs)
}

// Lookup returns the spec for id.
func (c *Catalog) Lookup(id string) (PackageSpec, bool) {
	i, ok := c.index[id]
	if !ok {
		return PackageSpec{}, false
	}
	return c.specs[i], true
}

// All returns a copy of every spec in catalog order.
func (c *Catalog) All() []PackageSpec {
	out := make([]PackageSpec, len(c.specs))
	copy(out, c.specs)
	return out
}

// IDs returns every package ID in catalog order.
func (c *Catalog) IDs() []string {
	ids := make([]string, len(c.specs))
	for i, spec := range c.specs {
		ids[i] = spec.ID
	}
	return ids
}

// Resolve maps a selection to specs in selection order.
// Duplicate IDs are kept; each occurrence is processed again.
func (c *Catalog) Resolve(selection []string) ([]PackageSpec, error) {
	if len(selection) == 0 {
		return nil, ErrEmptySelection
	}

	specs := make([]PackageSpec, 0, len(selection))
	for _, id := range selection {
		spec, ok := c.Lookup(id)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownPackage, id)
		}
		specs = append(specs, spec)
	}

	return specs, nil
}
