package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/HarveyDevel/fonts-installer/internal/catalog"
)

// Defaults applied to fields the config leaves unset.
const (
	DefaultTimeout     = 10 * time.Second
	DefaultExtractTool = "7z"
	DefaultCacheTool   = "fc-cache"
)

// DefaultFontExtensions lists the file extensions installed from an archive.
var DefaultFontExtensions = []string{".ttf"}

// Config is the parsed installer configuration.
type Config struct {
	// InstallDir receives the extracted fonts.
	InstallDir string
	// Timeout bounds connecting and each read of a download.
	Timeout time.Duration
	// Retries is the number of extra download attempts per package.
	Retries int
	// FontExtensions are lowercase extensions including the dot.
	FontExtensions []string
	// KeyringPath is an optional OpenPGP public keyring for signatures.
	KeyringPath string
	ExtractTool string
	CacheTool   string
	Packages    []catalog.PackageSpec
}

// applyDefaults fills unset fields.
func (c *Config) applyDefaults() {
	if c.InstallDir == "" {
		c.InstallDir = DefaultInstallDir()
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if len(c.FontExtensions) == 0 {
		c.FontExtensions = append([]string(nil), DefaultFontExtensions...)
	}
	if c.ExtractTool == "" {
		c.ExtractTool = DefaultExtractTool
	}
	if c.CacheTool == "" {
		c.CacheTool = DefaultCacheTool
	}

	for i, ext := range c.FontExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		c.FontExtensions[i] = ext
	}
}

// Validate checks the config for values the installer cannot work with.
func (c *Config) Validate() error {
	var errs []error

	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive, got %s", c.Timeout))
	}
	if c.Retries < 0 {
		errs = append(errs, fmt.Errorf("retries must not be negative, got %d", c.Retries))
	}
	for _, ext := range c.FontExtensions {
		if ext == "" || ext == "." {
			errs = append(errs, errors.New("font_extensions contains an empty entry"))
			break
		}
	}
	if len(c.Packages) == 0 {
		errs = append(errs, errors.New("packages must list at least one package"))
	}
	if _, err := catalog.New(c.Packages); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Catalog builds the package catalog described by the config.
func (c *Config) Catalog() (*catalog.Catalog, error) {
	return catalog.New(c.Packages)
}
