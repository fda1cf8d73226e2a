package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/HarveyDevel/fonts-installer/internal/catalog"
	"github.com/HarveyDevel/fonts-installer/internal/platform"
	lua "github.com/yuin/gopher-lua"
)

//go:embed default.lua
var defaultConfig string

// Lua field names.
const (
	luaGlobalFonts      = "fonts"
	luaFieldInstallDir  = "install_dir"
	luaFieldTimeout     = "timeout"
	luaFieldRetries     = "retries"
	luaFieldExtensions  = "font_extensions"
	luaFieldKeyring     = "keyring"
	luaFieldTools       = "tools"
	luaFieldExtractTool = "extract"
	luaFieldCacheTool   = "cache"
	luaFieldPackages    = "packages"
	luaFieldID          = "id"
	luaFieldName        = "name"
	luaFieldURL         = "url"
	luaFieldSHA256      = "sha256"
	luaFieldSignature   = "signature_url"
)

// Parser evaluates config files with platform information injected.
type Parser struct {
	detector platform.Detector
}

// NewParser creates a parser. A nil detector leaves the platform table unset.
func NewParser(detector platform.Detector) *Parser {
	return &Parser{detector: detector}
}

// ParseError is a config error with a short message and the raw Lua detail.
type ParseError struct {
	Message string
	Detail  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Message, e.Detail)
}

// Load reads the config at path. An empty path means DefaultConfigPath, and
// falls back to the embedded default catalog when that file does not exist.
func (p *Parser) Load(ctx context.Context, path string) (*Config, error) {
	if path == "" {
		cfg, err := p.ParseFile(ctx, DefaultConfigPath())
		if errors.Is(err, fs.ErrNotExist) {
			return p.ParseDefault(ctx)
		}
		return cfg, err
	}
	return p.ParseFile(ctx, path)
}

// ParseDefault parses the embedded default catalog.
func (p *Parser) ParseDefault(ctx context.Context) (*Config, error) {
	return p.ParseString(ctx, defaultConfig)
}

// ParseFile parses the Lua file at path.
func (p *Parser) ParseFile(ctx context.Context, path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return p.ParseString(ctx, string(data))
}

// ParseString parses Lua source.
func (p *Parser) ParseString(ctx context.Context, luaCode string) (*Config, error) {
	L := newSandboxedVM()
	defer L.Close()
	L.SetContext(ctx)

	if p.detector != nil {
		info, err := p.detector.Detect(ctx)
		if err != nil {
			return nil, fmt.Errorf("platform detection failed: %w", err)
		}
		if err := platform.InjectPlatformTable(L, info); err != nil {
			return nil, fmt.Errorf("inject platform table: %w", err)
		}
	}

	if err := L.DoString(luaCode); err != nil {
		return nil, &ParseError{
			Message: "Lua error",
			Detail:  err.Error(),
		}
	}

	cfg, err := extractConfig(L)
	if err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, &ParseError{
			Message: "config validation failed",
			Detail:  err.Error(),
		}
	}

	return cfg, nil
}

func extractConfig(L *lua.LState) (*Config, error) {
	global := L.GetGlobal(luaGlobalFonts)
	table, ok := global.(*lua.LTable)
	if !ok {
		return nil, &ParseError{
			Message: "missing or invalid 'fonts' table",
			Detail:  fmt.Sprintf("expected table, got %s", global.Type()),
		}
	}

	cfg := &Config{
		InstallDir:  optString(table, luaFieldInstallDir),
		KeyringPath: optString(table, luaFieldKeyring),
	}

	if v, ok := table.RawGetString(luaFieldTimeout).(lua.LNumber); ok {
		cfg.Timeout = time.Duration(float64(v) * float64(time.Second))
	}
	if v, ok := table.RawGetString(luaFieldRetries).(lua.LNumber); ok {
		cfg.Retries = int(v)
	}
	if exts, ok := table.RawGetString(luaFieldExtensions).(*lua.LTable); ok {
		cfg.FontExtensions = stringList(exts)
	}
	if tools, ok := table.RawGetString(luaFieldTools).(*lua.LTable); ok {
		cfg.ExtractTool = optString(tools, luaFieldExtractTool)
		cfg.CacheTool = optString(tools, luaFieldCacheTool)
	}

	pkgs, ok := table.RawGetString(luaFieldPackages).(*lua.LTable)
	if !ok {
		return nil, &ParseError{
			Message: "missing or invalid 'packages' list",
			Detail:  fmt.Sprintf("expected table, got %s", table.RawGetString(luaFieldPackages).Type()),
		}
	}
	specs, err := extractPackages(pkgs)
	if err != nil {
		return nil, err
	}
	cfg.Packages = specs

	return cfg, nil
}

// extractPackages reads the packages array in order. Nil entries (from
// platform.when) are skipped.
func extractPackages(table *lua.LTable) ([]catalog.PackageSpec, error) {
	var specs []catalog.PackageSpec

	for i := 1; i <= table.Len(); i++ {
		value := table.RawGetInt(i)
		switch entry := value.(type) {
		case *lua.LNilType:
			continue
		case *lua.LTable:
			specs = append(specs, catalog.PackageSpec{
				ID:           optString(entry, luaFieldID),
				Name:         optString(entry, luaFieldName),
				URL:          optString(entry, luaFieldURL),
				SHA256:       optString(entry, luaFieldSHA256),
				SignatureURL: optString(entry, luaFieldSignature),
			})
		default:
			return nil, &ParseError{
				Message: "invalid package entry",
				Detail:  fmt.Sprintf("packages[%d]: expected table, got %s", i, value.Type()),
			}
		}
	}

	return specs, nil
}

func optString(table *lua.LTable, field string) string {
	if v, ok := table.RawGetString(field).(lua.LString); ok {
		return strings.TrimSpace(string(v))
	}
	return ""
}

func stringList(table *lua.LTable) []string {
	var out []string
	for i := 1; i <= table.Len(); i++ {
		if v, ok := table.RawGetInt(i).(lua.LString); ok {
			out = append(out, string(v))
		}
	}
	return out
}

// FormatError renders err for the terminal. Without verbose, Lua stack
// tracebacks are cut off.
func FormatError(err error, verbose bool) string {
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		return err.Error()
	}
	if verbose {
		return fmt.Sprintf("%s\n\nDetails:\n%s", parseErr.Message, parseErr.Detail)
	}
	detail := parseErr.Detail
	if idx := strings.Index(detail, "stack traceback"); idx > 0 {
		detail = strings.TrimSpace(detail[:idx])
	}
	return fmt.Sprintf("%s: %s", parseErr.Message, detail)
}
