package cmd

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/tribunales-evau/bundler/internal/build"
	"github.com/tribunales-evau/bundler/internal/build/emit"
	"github.com/tribunales-evau/bundler/internal/config"
	"github.com/tribunales-evau/bundler/internal/diff"
	"github.com/tribunales-evau/bundler/internal/output"
)

// buildFlags are the local flags of the build command.
type buildFlags struct {
	outDir string
	naming string
	clean  bool
	dryRun bool
}

// NewBuildCmd creates the build command.
func NewBuildCmd(g *GlobalConfig) *cobra.Command {
	var f buildFlags

	c := &cobra.Command{
		Use:   "build",
		Short: "Build every entry point",
		Long: `Build one bundle per configured entry point.

The module graph is loaded and transformed first; nothing is written
unless every module resolves, parses and transforms. Artifacts are then
written to the output directory, followed by manifest.yaml.

Output settings are resolved with precedence:
  flag > BUNDLER_OUT_DIR / BUNDLER_NAMING_TEMPLATE > bundler.yaml > default

Examples:
  # Build with bundler.yaml from the working directory
  bundler build

  # Build into a fresh directory with content-hashed names
  bundler build --clean --out-dir dist --naming "{name}.{hash}.{ext}"

  # Show what would be written
  bundler build --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			return runBuild(c, g, f)
		},
	}

	c.Flags().StringVar(&f.outDir, "out-dir", "", "output directory (env: BUNDLER_OUT_DIR)")
	c.Flags().StringVar(&f.naming, "naming", "", "artifact naming template with {name}, {hash}, {ext} (env: BUNDLER_NAMING_TEMPLATE)")
	c.Flags().BoolVar(&f.clean, "clean", false, "remove the output directory before writing")
	c.Flags().BoolVar(&f.dryRun, "dry-run", false, "plan artifacts without writing them")
	return c
}

func runBuild(c *cobra.Command, g *GlobalConfig, f buildFlags) error {
	cfg, err := g.RequireConfig()
	if err != nil {
		return exitError(err, false)
	}

	resolved := config.ResolveOutput(cfg, config.OutputOverrides{OutDir: f.outDir, NamingTemplate: f.naming})
	config.LogResolvedValues(resolved)

	validator, err := config.NewValidator()
	if err != nil {
		return exitError(err, false)
	}
	if err := validator.Validate(cfg); err != nil {
		output.Error("invalid configuration", "path", cfg.Path)
		output.Details(err.Error())
		return exitError(err, true)
	}

	var res *build.Result
	action := func(ctx context.Context) error {
		var runErr error
		res, runErr = build.New(afero.NewOsFs()).Run(ctx, build.Options{
			Config: cfg,
			Clean:  f.clean,
			DryRun: f.dryRun,
		})
		return runErr
	}
	title := fmt.Sprintf("Building %d entry points", len(cfg.EntryPoints))
	if err := output.RunWithSpinner(c.Context(), action, output.WithTitle(title), output.WithSpinner(!g.Verbose)); err != nil {
		return reportBuildError(err)
	}

	return writeBuildSummary(c.OutOrStdout(), res, f.dryRun, g.Verbose)
}

func writeBuildSummary(w io.Writer, res *build.Result, dryRun, verbose bool) error {
	rows := make([]output.ArtifactRow, 0, len(res.Emit.Artifacts))
	for _, ch := range res.Emit.Chunks {
		for i, a := range ch.Artifacts {
			row := output.ArtifactRow{Chunk: ch.Name, Path: a.Path, Kind: a.Kind, Size: len(a.Content)}
			if i == 0 {
				row.Modules = len(ch.Modules)
			}
			rows = append(rows, row)
		}
	}
	fmt.Fprintln(w, output.RenderArtifactTable(rows))

	status := output.StatusWritten
	if dryRun {
		status = "planned"
	}
	if verbose {
		for _, a := range res.Emit.Artifacts {
			output.Info(output.FormatArtifactLine(filepath.ToSlash(filepath.Join(filepath.Base(res.OutDir), a.Path)), status))
		}
	}

	if res.Previous != nil {
		changes, err := diff.Manifests(res.Previous, emit.NewManifest(res.Emit.Chunks), output.IsTTY())
		if err != nil {
			return exitError(err, false)
		}
		if !changes.IsEmpty() || verbose {
			fmt.Fprintln(w, changes.String())
		}
	}

	verb := "Wrote"
	if dryRun {
		verb = "Planned"
	}
	fmt.Fprintln(w, output.FormatCheckmark(fmt.Sprintf("%s %d artifacts for %d chunks to %s",
		verb, len(res.Emit.Artifacts), len(res.Emit.Chunks), res.OutDir)))
	return nil
}
