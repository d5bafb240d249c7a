package config

import (
	"fmt"
	"sort"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"

	oerrors "github.com/tribunales-evau/bundler/internal/errors"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}

	var sb strings.Builder
	sb.WriteString("config validation failed:\n")
	for _, err := range e {
		sb.WriteString(fmt.Sprintf("  %s: %s\n", err.Field, err.Message))
	}
	return sb.String()
}

// Unwrap lets errors.Is match ErrValidation.
func (e ValidationErrors) Unwrap() error {
	return oerrors.ErrValidation
}

// Validator validates configuration against the embedded CUE schema.
type Validator struct {
	ctx    *cue.Context
	schema cue.Value
}

// NewValidator creates a new configuration validator.
func NewValidator() (*Validator, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileBytes(configSchemaCUE, cue.Filename("schema.cue"))
	if schema.Err() != nil {
		return nil, fmt.Errorf("compiling schema: %w", schema.Err())
	}

	return &Validator{
		ctx:    ctx,
		schema: schema.LookupPath(cue.ParsePath("#Config")),
	}, nil
}

// Validate validates the given configuration. Schema violations and
// cross-field checks are reported together.
func (v *Validator) Validate(cfg *Config) error {
	var errs ValidationErrors

	encoded := *cfg
	if encoded.EntryPoints == nil {
		encoded.EntryPoints = map[string]string{}
	}

	value := v.schema.Unify(v.ctx.Encode(encoded))
	if err := value.Validate(cue.Concrete(true)); err != nil {
		for _, e := range cueerrors.Errors(err) {
			format, args := e.Msg()
			errs = append(errs, ValidationError{
				Field:   fieldPath(e.Path()),
				Message: fmt.Sprintf(format, args...),
			})
		}
	}

	if len(cfg.EntryPoints) == 0 {
		errs = append(errs, ValidationError{
			Field:   "entryPoints",
			Message: "at least one entry point is required",
		})
	}

	seen := make(map[string]int, len(cfg.Aliases))
	for i, a := range cfg.Aliases {
		if j, dup := seen[a.Prefix]; dup {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("aliases.%d.prefix", i),
				Message: fmt.Sprintf("duplicate of aliases.%d; the later rule can never match", j),
			})
			continue
		}
		seen[a.Prefix] = i
	}

	if len(errs) == 0 {
		return nil
	}

	sort.SliceStable(errs, func(i, j int) bool { return errs[i].Field < errs[j].Field })
	return dedupe(errs)
}

// ValidateFile loads and validates the configuration file at path.
func (v *Validator) ValidateFile(path string) (*Config, error) {
	cfg, err := NewLoader().Load(path)
	if err != nil {
		return nil, err
	}
	ResolveOutput(cfg, OutputOverrides{})
	return cfg, v.Validate(cfg)
}

func fieldPath(path []string) string {
	if len(path) > 0 && path[0] == "#Config" {
		path = path[1:]
	}
	if len(path) == 0 {
		return "(root)"
	}
	return strings.Join(path, ".")
}

func dedupe(errs ValidationErrors) ValidationErrors {
	out := errs[:0]
	for i, e := range errs {
		if i > 0 && e == errs[i-1] {
			continue
		}
		out = append(out, e)
	}
	return out
}
