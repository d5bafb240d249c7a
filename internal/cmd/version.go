package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tribunales-evau/bundler/internal/version"
)

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Print the bundler version, git commit, build date and the Go and CUE SDK versions it was built with.`,
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			fmt.Fprintln(c.OutOrStdout(), version.Get().String())
			return nil
		},
	}
}
