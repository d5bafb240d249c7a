package cmd

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/tribunales-evau/bundler/internal/build/emit"
	"github.com/tribunales-evau/bundler/internal/diff"
	oerrors "github.com/tribunales-evau/bundler/internal/errors"
	"github.com/tribunales-evau/bundler/internal/output"
)

// NewDiffCmd creates the diff command.
func NewDiffCmd(_ *GlobalConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "diff <old-manifest> <new-manifest>",
		Short: "Compare two build manifests",
		Long: `Compare two manifest.yaml files chunk by chunk.

Chunks are reported as added, removed or modified. Modified chunks show a
field-level diff of their files, digest and module list.

Examples:
  # Compare a release build against the current one
  bundler diff release/manifest.yaml dist/manifest.yaml`,
		Args: cobra.ExactArgs(2),
		RunE: func(c *cobra.Command, args []string) error {
			osFs := afero.NewOsFs()
			manifests := make([]*emit.Manifest, 2)
			for i, path := range args {
				m, err := emit.LoadManifest(osFs, path)
				if errors.Is(err, fs.ErrNotExist) {
					return exitError(oerrors.NewNotFoundError("manifest does not exist", path, "pass the manifest.yaml of a build"), false)
				}
				if err != nil {
					return exitError(oerrors.NewValidationError(err.Error(), path, ""), false)
				}
				manifests[i] = m
			}

			res, err := diff.Manifests(manifests[0], manifests[1], output.IsTTY())
			if err != nil {
				return exitError(err, false)
			}
			fmt.Fprint(c.OutOrStdout(), res.String())
			return nil
		},
	}
}
