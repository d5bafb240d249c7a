package plugin

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tribunales-evau/bundler/internal/config"
	oerrors "github.com/tribunales-evau/bundler/internal/errors"
)

// Factory creates a plugin from its configured options.
type Factory func(opts Options) (Plugin, error)

// Registry maps plugin names to factories. There is no process-wide
// registry: each build creates its own with NewRegistry.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry returns a registry holding the built-in plugins.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]Factory)}
	r.mustRegister(VueName, NewVue)
	r.mustRegister(CSSName, NewCSS)
	r.mustRegister(JSONName, NewJSON)
	r.mustRegister(DefineName, NewDefine)
	r.mustRegister(ExecName, NewExec)
	r.mustRegister(CSSInjectName, NewCSSInject)
	return r
}

// Register adds a factory. Names must be unique.
func (r *Registry) Register(name string, f Factory) error {
	if name == "" {
		return fmt.Errorf("plugin name must not be empty")
	}
	if _, dup := r.factories[name]; dup {
		return fmt.Errorf("plugin %q already registered", name)
	}
	r.factories[name] = f
	return nil
}

func (r *Registry) mustRegister(name string, f Factory) {
	if err := r.Register(name, f); err != nil {
		panic(err)
	}
}

// Names returns the registered plugin names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Pipeline instantiates refs in order and returns the resulting pipeline.
// Unknown names and invalid options are validation errors.
func (r *Registry) Pipeline(refs []config.PluginRef) (*Pipeline, error) {
	stages := make([]Plugin, 0, len(refs))
	for i, ref := range refs {
		location := fmt.Sprintf("plugins[%d]", i)

		factory, ok := r.factories[ref.Name]
		if !ok {
			return nil, oerrors.NewValidationError(
				fmt.Sprintf("unknown plugin %q", ref.Name),
				location,
				"Available plugins: "+strings.Join(r.Names(), ", "),
			)
		}

		p, err := factory(Options(ref.Options))
		if err != nil {
			return nil, oerrors.NewValidationError(
				fmt.Sprintf("plugin %q: %v", ref.Name, err), location, "")
		}

		p, err = WithFilter(p, ref.Include, ref.Exclude)
		if err != nil {
			return nil, oerrors.NewValidationError(err.Error(), location, "")
		}
		stages = append(stages, p)
	}
	return NewPipeline(stages...), nil
}
