// Package cmd provides the bundler command tree.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/tribunales-evau/bundler/internal/config"
	"github.com/tribunales-evau/bundler/internal/output"
)

// GlobalConfig holds CLI-wide state resolved during PersistentPreRunE and
// passed into every sub-command constructor.
type GlobalConfig struct {
	// ConfigFlag is the raw --config value.
	ConfigFlag string

	Verbose    bool
	Timestamps bool

	// Config is the loaded project configuration, nil if loading failed.
	Config *config.Config

	// LoadErr is the reason Config is nil.
	LoadErr error
}

// RequireConfig returns the project configuration or the error that
// prevented loading it.
func (g *GlobalConfig) RequireConfig() (*config.Config, error) {
	if g.Config == nil {
		if g.LoadErr != nil {
			return nil, g.LoadErr
		}
		cfg, err := config.NewLoader().Load(g.ConfigFlag)
		if err != nil {
			return nil, err
		}
		g.Config = cfg
	}
	return g.Config, nil
}

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	g := &GlobalConfig{}

	rootCmd := &cobra.Command{
		Use:   "bundler",
		Short: "Build front-end bundles from a module graph",
		Long: `bundler resolves the module graph of each configured entry point,
runs every module through the configured plugin pipeline and writes one
bundle per entry point to the output directory.

It provides commands to:
  - Build bundles and a manifest of what was written
  - Inspect the module graph
  - Compare two build manifests
  - Create and validate bundler.yaml`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initializeGlobals(cmd, g)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&g.ConfigFlag, "config", "c", "", "path to bundler.yaml (default: search the working directory)")
	rootCmd.PersistentFlags().BoolVarP(&g.Verbose, "verbose", "v", false, "enable debug output")
	rootCmd.PersistentFlags().BoolVar(&g.Timestamps, "timestamps", true, "show timestamps in log output")

	rootCmd.AddCommand(NewBuildCmd(g))
	rootCmd.AddCommand(NewGraphCmd(g))
	rootCmd.AddCommand(NewDiffCmd(g))
	rootCmd.AddCommand(NewInitCmd())
	rootCmd.AddCommand(NewConfigCmd(g))
	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}

// initializeGlobals loads the project configuration and sets up logging.
// A missing or broken config is not fatal here; commands that need one
// report it through RequireConfig.
func initializeGlobals(cmd *cobra.Command, g *GlobalConfig) error {
	cfg, err := config.NewLoader().Load(g.ConfigFlag)
	if err != nil {
		g.LoadErr = err
	} else {
		g.Config = cfg
	}

	logCfg := output.LogConfig{Verbose: g.Verbose}

	// Timestamps: flag (if explicitly set) > config > default (nil = true)
	if cmd.Flags().Changed("timestamps") {
		logCfg.Timestamps = output.BoolPtr(g.Timestamps)
	} else if g.Config != nil && g.Config.Log.Timestamps != nil {
		logCfg.Timestamps = g.Config.Log.Timestamps
	}
	output.SetupLogging(logCfg)

	if g.Config != nil {
		output.Debug("configuration loaded",
			"path", g.Config.Path,
			"root", g.Config.Root,
			"entries", len(g.Config.EntryPoints),
			"plugins", len(g.Config.Plugins),
		)
	} else {
		output.Debug("no configuration loaded", "error", err)
	}
	return nil
}
