package main

import (
	"github.com/spf13/cobra"

	"github.com/wu-lang/wu/internal/manifest"
)

func newGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:                   "get",
		Short:                 "fetch dependencies listed in wu.toml",
		DisableFlagsInUseLine: true,
		Args:                  cobra.NoArgs,
		SilenceErrors:         true,
		SilenceUsage:          true,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := manifest.ParseFile("wu.toml")
			if err != nil {
				return err
			}
			return manifest.Fetch(cmd.Context(), ".", m)
		},
	}
}
