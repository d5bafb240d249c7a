package config

import (
	"os"

	"github.com/tribunales-evau/bundler/internal/output"
)

// ConfigSource indicates where a configuration value came from.
type ConfigSource string

const (
	// SourceFlag indicates value came from command-line flag.
	SourceFlag ConfigSource = "flag"
	// SourceEnv indicates value came from environment variable.
	SourceEnv ConfigSource = "env"
	// SourceConfig indicates value came from config file.
	SourceConfig ConfigSource = "config"
	// SourceDefault indicates value is the built-in default.
	SourceDefault ConfigSource = "default"
)

// ResolvedValue is a configuration value with its provenance.
type ResolvedValue struct {
	// Key is the configuration key.
	Key string
	// Value is the winning value.
	Value string
	// Source indicates where Value came from.
	Source ConfigSource
	// Shadowed contains values that were overridden by higher precedence.
	Shadowed map[ConfigSource]string
}

// ResolveOptions holds the candidate values for one key.
type ResolveOptions struct {
	Key          string
	FlagValue    string
	EnvVar       string
	ConfigValue  string
	DefaultValue string
}

// Resolve picks a value using precedence flag > env > config > default.
// Lower-precedence values that were set are recorded as shadowed.
func Resolve(opts ResolveOptions) ResolvedValue {
	result := ResolvedValue{
		Key:      opts.Key,
		Shadowed: make(map[ConfigSource]string),
	}

	var envValue string
	if opts.EnvVar != "" {
		envValue = os.Getenv(opts.EnvVar)
	}

	candidates := []struct {
		source ConfigSource
		value  string
	}{
		{SourceFlag, opts.FlagValue},
		{SourceEnv, envValue},
		{SourceConfig, opts.ConfigValue},
		{SourceDefault, opts.DefaultValue},
	}

	for _, c := range candidates {
		if c.value == "" {
			continue
		}
		if result.Source == "" {
			result.Value = c.value
			result.Source = c.source
			continue
		}
		if c.source != SourceDefault {
			result.Shadowed[c.source] = c.value
		}
	}

	return result
}

// OutputOverrides carries the command-line flags that affect output layout.
type OutputOverrides struct {
	OutDir         string
	NamingTemplate string
}

// ResolveOutput applies flag and environment overrides to cfg's outDir and
// namingTemplate and returns the resolved values for logging.
func ResolveOutput(cfg *Config, overrides OutputOverrides) []ResolvedValue {
	outDir := Resolve(ResolveOptions{
		Key:          "outDir",
		FlagValue:    overrides.OutDir,
		EnvVar:       "BUNDLER_OUT_DIR",
		ConfigValue:  cfg.OutDir,
		DefaultValue: DefaultOutDir,
	})
	naming := Resolve(ResolveOptions{
		Key:          "namingTemplate",
		FlagValue:    overrides.NamingTemplate,
		EnvVar:       "BUNDLER_NAMING_TEMPLATE",
		ConfigValue:  cfg.NamingTemplate,
		DefaultValue: DefaultNamingTemplate,
	})

	cfg.OutDir = outDir.Value
	cfg.NamingTemplate = naming.Value

	return []ResolvedValue{outDir, naming}
}

// LogResolvedValues logs configuration resolution at DEBUG level.
func LogResolvedValues(values []ResolvedValue) {
	for _, v := range values {
		output.Debug("config value resolved",
			"key", v.Key,
			"value", v.Value,
			"source", v.Source,
		)
		for source, shadowed := range v.Shadowed {
			output.Debug("  shadowed by higher precedence",
				"key", v.Key,
				"shadowed_source", source,
				"shadowed_value", shadowed,
			)
		}
	}
}
