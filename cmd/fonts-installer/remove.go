package main

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/HarveyDevel/fonts-installer/internal/installer"
	"github.com/spf13/cobra"
)

func newRemoveAllCmd(opts *rootOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "remove-all",
		Short: "Delete the install directory and refresh the font cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemoveAll(cmd, opts, yes)
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")

	return cmd
}

func runRemoveAll(cmd *cobra.Command, opts *rootOptions, yes bool) error {
	ctx := cmd.Context()

	env, err := opts.load(ctx)
	if err != nil {
		return err
	}
	pipeline, err := opts.pipeline(env)
	if err != nil {
		return err
	}

	dir := pipeline.InstallDir()
	out := newPrinter(opts.out, opts.errOut)

	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(opts.out, "%s does not exist. No changes were made.\n", dir)
		return nil
	}

	if !yes {
		fmt.Fprintf(opts.out, "%s will be deleted. Are you sure you wish to proceed? [y/N]: ", dir)
		reader := bufio.NewReader(opts.in)
		response, err := reader.ReadString('\n')
		if err != nil && response == "" {
			fmt.Fprintln(opts.out)
			fmt.Fprintln(opts.out, "Cancelled.")
			return nil
		}
		response = strings.ToLower(strings.TrimSpace(response))
		if response != "y" && response != "yes" {
			fmt.Fprintln(opts.out, "Cancelled.")
			return nil
		}
	}

	if err := pipeline.RemoveAll(ctx); err != nil {
		if errors.Is(err, installer.ErrNothingToRemove) {
			fmt.Fprintf(opts.out, "%s does not exist. No changes were made.\n", dir)
			return nil
		}
		out.error(err.Error())
		return errReported
	}

	out.success("Folder deleted and font cache updated.")
	return nil
}
