// Package config provides configuration loading and management.
package config

import (
	"path/filepath"
	"runtime"
	"sort"
)

// AliasRule rewrites import specifiers starting with Prefix to Target.
type AliasRule struct {
	// Prefix is matched against the start of an import specifier.
	Prefix string `mapstructure:"prefix" json:"prefix"`

	// Target replaces Prefix. Relative targets resolve against Root.
	Target string `mapstructure:"target" json:"target"`
}

// PluginRef selects a registered plugin and configures it.
type PluginRef struct {
	// Name is the registry name of the plugin (e.g. "vue", "exec").
	Name string `mapstructure:"name" json:"name"`

	// Include narrows the plugin to module paths matching any of these globs.
	Include []string `mapstructure:"include" json:"include,omitempty"`

	// Exclude removes module paths matching any of these globs.
	Exclude []string `mapstructure:"exclude" json:"exclude,omitempty"`

	// Options are passed verbatim to the plugin factory.
	// Keys are lowercased by the loader.
	Options map[string]any `mapstructure:"options" json:"options,omitempty"`
}

// LogConfig contains logging-related settings.
type LogConfig struct {
	// Timestamps controls whether timestamps are shown in log output.
	// Default: true. Override with --timestamps flag.
	Timestamps *bool `mapstructure:"timestamps" json:"timestamps,omitempty"`
}

// Config represents a bundler project configuration.
// Loaded from bundler.yaml, validated against the embedded CUE schema.
type Config struct {
	// Root is the project root. Defaults to the config file's directory.
	// Env: BUNDLER_ROOT
	Root string `mapstructure:"root" json:"root,omitempty"`

	// EntryPoints maps logical chunk names to source files.
	EntryPoints map[string]string `mapstructure:"entryPoints" json:"entryPoints"`

	// Aliases are applied in order; the first matching prefix wins.
	Aliases []AliasRule `mapstructure:"aliases" json:"aliases,omitempty"`

	// Plugins form the transform pipeline, in order.
	Plugins []PluginRef `mapstructure:"plugins" json:"plugins,omitempty"`

	// OutDir is where artifacts are written. Relative paths resolve against Root.
	// Env: BUNDLER_OUT_DIR
	OutDir string `mapstructure:"outDir" json:"outDir"`

	// NamingTemplate computes artifact file names. Supports {name}, {hash}, {ext}.
	// Env: BUNDLER_NAMING_TEMPLATE
	NamingTemplate string `mapstructure:"namingTemplate" json:"namingTemplate"`

	// Extensions is the lookup order for extensionless specifiers.
	Extensions []string `mapstructure:"extensions" json:"extensions,omitempty"`

	// Clean empties OutDir before emitting.
	// Env: BUNDLER_CLEAN
	Clean bool `mapstructure:"clean" json:"clean,omitempty"`

	// Manifest controls writing manifest.yaml. Default: true.
	Manifest *bool `mapstructure:"manifest" json:"manifest,omitempty"`

	// Concurrency bounds parallel module loads. Zero means runtime.NumCPU().
	// Env: BUNDLER_CONCURRENCY
	Concurrency int `mapstructure:"concurrency" json:"concurrency,omitempty"`

	// Log contains logging-related settings.
	Log LogConfig `mapstructure:"log" json:"log,omitempty"`

	// Path is the file this configuration was loaded from.
	Path string `mapstructure:"-" json:"-"`
}

// Default values.
const (
	DefaultNamingTemplate = "{name}.{ext}"
	DefaultOutDir         = "dist"
)

// DefaultExtensions is the extension lookup order used when none is configured.
var DefaultExtensions = []string{".js", ".mjs", ".ts", ".vue", ".json", ".css"}

// DefaultConfig returns a Config with all default values populated.
func DefaultConfig() *Config {
	return &Config{
		EntryPoints:    map[string]string{},
		OutDir:         DefaultOutDir,
		NamingTemplate: DefaultNamingTemplate,
		Extensions:     append([]string(nil), DefaultExtensions...),
		Manifest:       boolPtr(true),
		Concurrency:    runtime.NumCPU(),
	}
}

// WithDefaults returns a copy of c with unset fields filled from DefaultConfig.
// OutDir and NamingTemplate are left alone; ResolveOutput applies their
// defaults so the value source can be reported.
func (c *Config) WithDefaults() *Config {
	out := *c
	def := DefaultConfig()

	if out.EntryPoints == nil {
		out.EntryPoints = def.EntryPoints
	}
	if len(out.Extensions) == 0 {
		out.Extensions = def.Extensions
	}
	if out.Manifest == nil {
		out.Manifest = def.Manifest
	}
	if out.Concurrency <= 0 {
		out.Concurrency = def.Concurrency
	}
	if out.Root == "" && out.Path != "" {
		out.Root = filepath.Dir(out.Path)
	}
	return &out
}

// EntryNames returns entry point names in sorted order.
func (c *Config) EntryNames() []string {
	names := make([]string, 0, len(c.EntryPoints))
	for name := range c.EntryPoints {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AbsPath resolves p against the configured Root after expanding ~.
func (c *Config) AbsPath(p string) (string, error) {
	expanded, err := ExpandPath(p)
	if err != nil {
		return "", err
	}
	if filepath.IsAbs(expanded) {
		return filepath.Clean(expanded), nil
	}
	root := c.Root
	if root == "" {
		root = "."
	}
	return filepath.Abs(filepath.Join(root, expanded))
}

// WriteManifest reports whether manifest.yaml should be written.
func (c *Config) WriteManifest() bool {
	return c.Manifest == nil || *c.Manifest
}

func boolPtr(b bool) *bool {
	return &b
}
