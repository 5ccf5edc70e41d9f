package main

import (
	"github.com/spf13/cobra"
)

type rootFlags struct {
	path    string
	dryRun  bool
	write   bool
	release bool
}

func newRootCmd(app *AppContext) *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "semrel",
		Short:         "semrel derives the next release version from commit history and runs the release pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRelease(cmd, app, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.path, "path", "p", ".", "project root to release")
	cmd.Flags().BoolVar(&flags.dryRun, "dry", false, "force dry-run mode regardless of CI detection")
	cmd.Flags().BoolVar(&flags.write, "write", false, "force write mode regardless of CI detection")
	cmd.Flags().BoolVar(&flags.release, "release", true, "run steps after commit (publish, notify); --release=false stops the pipeline after commit")

	cmd.AddCommand(newVersionCmd())

	return cmd
}
