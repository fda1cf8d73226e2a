package main

import (
	"errors"

	"github.com/HarveyDevel/fonts-installer/internal/installer"
	"github.com/spf13/cobra"
)

// errReported marks a failure that was already printed to the user.
var errReported = errors.New("failure already reported")

func newInstallCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "install [package-id...]",
		Short: "Install font packages (all packages when none are named)",
		Long: `Download, verify and extract the named font packages into the install
directory, then refresh the font cache. Without arguments every package in
the catalog is installed. Run "fonts-installer list" to see package IDs.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstall(cmd, opts, args)
		},
	}
}

func runInstall(cmd *cobra.Command, opts *rootOptions, args []string) error {
	ctx := cmd.Context()

	env, err := opts.load(ctx)
	if err != nil {
		return err
	}

	selection := args
	if len(selection) == 0 {
		cat, err := env.cfg.Catalog()
		if err != nil {
			return err
		}
		selection = cat.IDs()
	}

	pipeline, err := opts.pipeline(env)
	if err != nil {
		return err
	}

	events, err := pipeline.Start(ctx, selection)
	if err != nil {
		return err
	}

	out := newPrinter(opts.out, opts.errOut)
	var report *installer.RunReport
	for ev := range events {
		switch ev.Kind {
		case installer.EventLog:
			out.event(ev)
		case installer.EventDone:
			report = ev.Report
		}
	}

	if report == nil || !report.Success {
		if report != nil && report.Err != nil {
			env.logger.Debug("install run error", "error", report.Err)
		}
		return errReported
	}
	return nil
}
