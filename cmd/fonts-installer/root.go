package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/HarveyDevel/fonts-installer/internal/config"
	"github.com/HarveyDevel/fonts-installer/internal/fontcache"
	"github.com/HarveyDevel/fonts-installer/internal/fontpkg"
	"github.com/HarveyDevel/fonts-installer/internal/installer"
	"github.com/HarveyDevel/fonts-installer/internal/platform"
	"github.com/spf13/cobra"
)

// rootOptions holds the persistent flags and the command's I/O.
type rootOptions struct {
	configPath string
	installDir string
	verbose    bool
	noProgress bool

	in     io.Reader
	out    io.Writer
	errOut io.Writer
}

func newRootCmd(in io.Reader, out, errOut io.Writer) *cobra.Command {
	opts := &rootOptions{in: in, out: out, errOut: errOut}

	cmd := &cobra.Command{
		Use:   "fonts-installer",
		Short: "Download and install the Microsoft core fonts",
		Long: `fonts-installer downloads the Microsoft core fonts packages, verifies
them, extracts the TrueType files with 7z and installs them into your
user font directory, then refreshes the fontconfig cache.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetIn(in)
	cmd.SetOut(out)
	cmd.SetErr(errOut)

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "config file (default $XDG_CONFIG_HOME/fonts-installer/fonts.lua)")
	flags.StringVar(&opts.installDir, "install-dir", "", "directory to install fonts into (overrides the config)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	flags.BoolVar(&opts.noProgress, "no-progress", false, "disable download progress bars")

	cmd.AddCommand(
		newInstallCmd(opts),
		newListCmd(opts),
		newRemoveAllCmd(opts),
	)

	return cmd
}

// logger returns the slog-backed debug logger with --verbose, and a no-op
// logger otherwise; user-facing output goes through the event stream.
func (o *rootOptions) logger() config.Logger {
	if !o.verbose {
		return config.NopLogger()
	}
	handler := slog.NewTextHandler(o.errOut, &slog.HandlerOptions{Level: slog.LevelDebug})
	return config.NewSlogLogger(slog.New(handler))
}

// environment is everything a subcommand needs after loading the config.
type environment struct {
	cfg      *config.Config
	platform *platform.Info
	logger   config.Logger
}

func (o *rootOptions) load(ctx context.Context) (*environment, error) {
	logger := o.logger()

	info, err := platform.NewDetector().Detect(ctx)
	if err != nil {
		return nil, fmt.Errorf("detect platform: %w", err)
	}

	cfg, err := config.NewParser(platform.StaticDetector{Info: info}).Load(ctx, o.configPath)
	if err != nil {
		return nil, errors.New(config.FormatError(err, o.verbose))
	}
	if o.installDir != "" {
		cfg.InstallDir = o.installDir
	}
	logger.Debug("configuration loaded",
		"install_dir", cfg.InstallDir,
		"packages", len(cfg.Packages),
		"platform", info.String(),
	)

	return &environment{cfg: cfg, platform: info, logger: logger}, nil
}

// pipeline wires the installer with the real downloader, 7z and fc-cache.
func (o *rootOptions) pipeline(env *environment) (*installer.Pipeline, error) {
	cat, err := env.cfg.Catalog()
	if err != nil {
		return nil, err
	}

	verifier := fontpkg.NewVerifier(nil)
	if env.cfg.KeyringPath != "" {
		keyring, err := fontpkg.LoadKeyring(env.cfg.KeyringPath)
		if err != nil {
			return nil, err
		}
		verifier = fontpkg.NewVerifier(keyring)
	}

	dlOpts := fontpkg.DownloaderOptions{
		Timeout: env.cfg.Timeout,
		Retries: env.cfg.Retries,
	}
	if !o.noProgress {
		dlOpts.Progress = newProgressFunc(o.errOut)
	}

	return installer.New(installer.Options{
		Catalog:        cat,
		InstallDir:     env.cfg.InstallDir,
		FontExtensions: env.cfg.FontExtensions,
		StateDir:       config.StateDir(),
		Fetcher:        fontpkg.NewDownloader(dlOpts),
		Verifier:       verifier,
		Extractor:      fontpkg.NewExtractor(env.cfg.ExtractTool),
		Cache:          fontcache.NewClient(env.cfg.CacheTool),
		Logger:         env.logger,
		Platform:       env.platform,
	})
}
