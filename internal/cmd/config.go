package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tribunales-evau/bundler/internal/build/plugin"
	"github.com/tribunales-evau/bundler/internal/config"
	oerrors "github.com/tribunales-evau/bundler/internal/errors"
	"github.com/tribunales-evau/bundler/internal/output"
)

// NewConfigCmd creates the config command group.
func NewConfigCmd(g *GlobalConfig) *cobra.Command {
	c := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  `Create and validate bundler.yaml.`,
	}

	c.AddCommand(NewConfigInitCmd(g))
	c.AddCommand(NewConfigVetCmd(g))
	return c
}

// NewConfigInitCmd creates the config init command.
func NewConfigInitCmd(g *GlobalConfig) *cobra.Command {
	var force bool

	c := &cobra.Command{
		Use:   "init",
		Short: "Write a default bundler.yaml",
		Long: `Write a default bundler.yaml to the working directory, or to the
path given with --config.

The default configuration builds src/main.js with the vue and css plugins
and injects the styles into the bundle.

Examples:
  # Create bundler.yaml
  bundler config init

  # Overwrite an existing file
  bundler config init --force`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			path := g.ConfigFlag
			if path == "" {
				cwd, err := os.Getwd()
				if err != nil {
					return exitError(err, false)
				}
				path = filepath.Join(cwd, config.ConfigFileNames[0])
			}
			if err := writeDefaultConfig(path, force); err != nil {
				return exitError(err, false)
			}
			fmt.Fprintln(c.OutOrStdout(), output.FormatCheckmark("Configuration written to "+path))
			fmt.Fprintln(c.OutOrStdout(), "Validate with: bundler config vet")
			return nil
		},
	}

	c.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing configuration")
	return c
}

func writeDefaultConfig(path string, force bool) error {
	expanded, err := config.ExpandPath(path)
	if err != nil {
		return err
	}

	exists, err := config.ConfigFileExists(expanded)
	if err != nil {
		return err
	}
	if exists && !force {
		return &oerrors.DetailError{
			Type:     "validation failed",
			Message:  "configuration already exists",
			Location: expanded,
			Hint:     "Use --force to overwrite existing configuration.",
			Cause:    oerrors.ErrValidation,
		}
	}

	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return oerrors.NewPermissionError("could not create configuration directory",
			map[string]string{"dir": filepath.Dir(expanded)}, "")
	}
	if err := os.WriteFile(expanded, []byte(config.DefaultConfigTemplate), 0o644); err != nil {
		return oerrors.NewPermissionError("could not write configuration",
			map[string]string{"path": expanded}, "")
	}
	return nil
}

// NewConfigVetCmd creates the config vet command.
func NewConfigVetCmd(g *GlobalConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "vet",
		Short: "Validate bundler.yaml",
		Long: `Validate the project configuration.

Checks performed:
  1. The config file exists (--config, or bundler.yaml in the working directory)
  2. The file parses as YAML, JSON or TOML
  3. Values satisfy the configuration schema
  4. Every configured plugin exists and accepts its options

Examples:
  bundler config vet
  bundler config vet --config web/bundler.yaml`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			return runConfigVet(c, g)
		},
	}
}

func runConfigVet(c *cobra.Command, g *GlobalConfig) error {
	validator, err := config.NewValidator()
	if err != nil {
		return exitError(err, false)
	}

	cfg, err := validator.ValidateFile(g.ConfigFlag)
	if cfg == nil {
		return exitError(err, false)
	}
	if err != nil {
		output.Error("invalid configuration", "path", cfg.Path)
		output.Details(err.Error())
		return exitError(err, true)
	}

	if _, err := plugin.NewRegistry().Pipeline(cfg.Plugins); err != nil {
		return exitError(err, false)
	}

	fmt.Fprintln(c.OutOrStdout(), output.FormatCheckmark("Configuration is valid: "+cfg.Path))
	return nil
}
