package main

import (
	"errors"
	"fmt"
	"io/fs"
	"text/tabwriter"

	"github.com/HarveyDevel/fonts-installer/internal/config"
	"github.com/HarveyDevel/fonts-installer/internal/transaction"
	"github.com/spf13/cobra"
)

func newListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the packages in the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, opts)
		},
	}
}

func runList(cmd *cobra.Command, opts *rootOptions) error {
	env, err := opts.load(cmd.Context())
	if err != nil {
		return err
	}
	cat, err := env.cfg.Catalog()
	if err != nil {
		return err
	}

	installed := lastInstalled(env)

	tw := tabwriter.NewWriter(opts.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCHECKSUM\tSTATUS")
	for _, spec := range cat.All() {
		checksum := "-"
		if spec.HasChecksum() {
			checksum = "sha256"
		}
		if spec.HasSignature() {
			checksum += "+sig"
		}
		status := "-"
		if installed[spec.ID] {
			status = "installed"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", spec.ID, spec.DisplayName(), checksum, status)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(opts.out, "\nInstall directory: %s\n", env.cfg.InstallDir)
	return nil
}

// lastInstalled returns the packages the most recent run installed into the
// configured directory. A later remove-all clears them.
func lastInstalled(env *environment) map[string]bool {
	journal, err := transaction.LoadLast(config.StateDir())
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			env.logger.Warn("failed to read last run journal", "error", err)
		}
		return nil
	}
	if journal.Operation != transaction.OperationInstall || journal.InstallDir != env.cfg.InstallDir {
		return nil
	}
	return journal.InstalledIDs()
}
