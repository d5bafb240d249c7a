package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
	"sigs.k8s.io/yaml"

	oerrors "github.com/tribunales-evau/bundler/internal/errors"
)

// Environment variable prefix for bundler configuration.
const envPrefix = "BUNDLER"

// Loader handles loading and merging configuration from a file and the
// environment.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	v := viper.New()

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// outDir and namingTemplate are resolved with source tracking by
	// ResolveOutput, so only the remaining scalars are bound here.
	_ = v.BindEnv("root", "BUNDLER_ROOT")
	_ = v.BindEnv("clean", "BUNDLER_CLEAN")
	_ = v.BindEnv("concurrency", "BUNDLER_CONCURRENCY")

	return &Loader{v: v}
}

// Load reads configuration from configFile. If configFile is empty, the
// working directory is searched for one of ConfigFileNames. The format is
// chosen by file extension. The returned config has defaults applied and
// Root made absolute.
func (l *Loader) Load(configFile string) (*Config, error) {
	if configFile == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting working directory: %w", err)
		}
		found, ok := FindConfigFile(cwd)
		if !ok {
			return nil, oerrors.NewNotFoundError(
				"no bundler configuration found",
				cwd,
				"Create one with 'bundler config init' or pass --config.",
			)
		}
		configFile = found
	}

	expandedPath, err := ExpandPath(configFile)
	if err != nil {
		return nil, fmt.Errorf("expanding config path: %w", err)
	}
	absPath, err := filepath.Abs(expandedPath)
	if err != nil {
		return nil, fmt.Errorf("resolving config path: %w", err)
	}

	l.v.SetConfigFile(absPath)
	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || os.IsNotExist(err) {
			return nil, oerrors.NewNotFoundError("configuration file does not exist", absPath, "")
		}
		return nil, &oerrors.DetailError{
			Type:     "validation failed",
			Message:  fmt.Sprintf("reading config file: %v", err),
			Location: absPath,
			Cause:    oerrors.ErrValidation,
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, oerrors.NewValidationError(
			fmt.Sprintf("decoding config: %v", err), absPath, "")
	}
	entries, err := entryPointsFromFile(absPath)
	if err != nil {
		return nil, oerrors.NewValidationError(
			fmt.Sprintf("decoding entryPoints: %v", err), absPath, "")
	}
	cfg.EntryPoints = entries
	cfg.Path = absPath

	out := cfg.WithDefaults()
	if !filepath.IsAbs(out.Root) {
		root, err := filepath.Abs(filepath.Join(filepath.Dir(absPath), out.Root))
		if err != nil {
			return nil, fmt.Errorf("resolving root: %w", err)
		}
		out.Root = root
	}
	return out, nil
}

// entryPointsFromFile decodes entryPoints straight from the file. Viper
// folds map keys to lower case, and entry names become chunk names, so
// AdminPanel has to stay AdminPanel. YAML and JSON go through
// sigs.k8s.io/yaml.
func entryPointsFromFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw struct {
		EntryPoints map[string]string `json:"entryPoints" toml:"entryPoints"`
	}
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		err = toml.Unmarshal(data, &raw)
	} else {
		err = yaml.Unmarshal(data, &raw)
	}
	if err != nil {
		return nil, err
	}
	return raw.EntryPoints, nil
}

// ConfigFileExists checks if the config file exists.
func ConfigFileExists(configFile string) (bool, error) {
	expandedPath, err := ExpandPath(configFile)
	if err != nil {
		return false, err
	}

	_, err = os.Stat(expandedPath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
