// Package build runs a complete bundler build: configuration to module graph
// to written artifacts.
package build

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/tribunales-evau/bundler/internal/build/alias"
	"github.com/tribunales-evau/bundler/internal/build/emit"
	"github.com/tribunales-evau/bundler/internal/build/graph"
	"github.com/tribunales-evau/bundler/internal/build/module"
	"github.com/tribunales-evau/bundler/internal/build/plugin"
	"github.com/tribunales-evau/bundler/internal/build/resolve"
	"github.com/tribunales-evau/bundler/internal/config"
	oerrors "github.com/tribunales-evau/bundler/internal/errors"
	"github.com/tribunales-evau/bundler/internal/output"
)

// Options configures one build run.
type Options struct {
	// Config is the project configuration. Root must be set.
	Config *config.Config

	// OutDir overrides Config.OutDir when non-empty.
	OutDir string

	// NamingTemplate overrides Config.NamingTemplate when non-empty.
	NamingTemplate string

	// Clean removes the output directory before writing.
	Clean bool

	// DryRun plans every artifact without writing anything.
	DryRun bool
}

// Validate checks the options before any work is done.
func (o Options) Validate() error {
	if o.Config == nil {
		return oerrors.NewValidationError("no configuration", "", "run 'bundler config init' to create one")
	}
	if o.Config.Root == "" {
		return oerrors.NewValidationError("project root is not set", "root", "")
	}
	if len(o.Config.EntryPoints) == 0 {
		return oerrors.NewValidationError("no entry points configured", "entryPoints",
			"add at least one entry, e.g. entryPoints: {main: src/main.js}")
	}
	for _, name := range o.Config.EntryNames() {
		if o.Config.EntryPoints[name] == "" {
			return oerrors.NewValidationError(fmt.Sprintf("entry point %q has no path", name), "entryPoints."+name, "")
		}
	}
	if o.outDir() == "" {
		return oerrors.NewValidationError("output directory is not set", "outDir", "")
	}
	if t := o.namingTemplate(); !strings.Contains(t, emit.PlaceholderName) {
		return oerrors.NewValidationError(
			fmt.Sprintf("naming template %q has no %s placeholder", t, emit.PlaceholderName),
			"namingTemplate", "")
	}
	return nil
}

func (o Options) outDir() string {
	if o.OutDir != "" {
		return o.OutDir
	}
	return o.Config.OutDir
}

func (o Options) namingTemplate() string {
	if o.NamingTemplate != "" {
		return o.NamingTemplate
	}
	if o.Config.NamingTemplate != "" {
		return o.Config.NamingTemplate
	}
	return config.DefaultNamingTemplate
}

// Result is the outcome of a successful run.
type Result struct {
	Graph *graph.Graph
	Emit  *emit.Result

	// OutDir is the absolute output directory.
	OutDir string

	// Previous is the manifest found in OutDir before the run, if any.
	Previous *emit.Manifest

	// Added, Removed and Modified compare chunk digests against Previous.
	Added    []string
	Removed  []string
	Modified []string
}

// Orchestrator runs builds. A zero Orchestrator uses the OS filesystem and
// the built-in plugins.
type Orchestrator struct {
	// Fs is used for sources and artifacts.
	Fs afero.Fs

	// Registry resolves configured plugins. Nil means plugin.NewRegistry().
	Registry *plugin.Registry
}

// New returns an Orchestrator over fs.
func New(fs afero.Fs) *Orchestrator {
	return &Orchestrator{Fs: fs}
}

// Run executes a build.
//
// Phase sequence:
//  1. VALIDATE:  check options, build the plugin pipeline
//  2. GRAPH:     load every module reachable from the entry points
//  3. CLEAN:     remove the output directory when requested
//  4. EMIT:      assemble chunks, write artifacts, write the manifest
//
// Any failure aborts the run; nothing is written unless phases 1 and 2
// succeed.
func (o *Orchestrator) Run(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	cfg := opts.Config.WithDefaults()

	outDir, err := cfg.AbsPath(opts.outDir())
	if err != nil {
		return nil, oerrors.NewValidationError(err.Error(), "outDir", "")
	}

	// Phase 1: VALIDATE. Plugins are instantiated before any file is read.
	pipeline, err := o.registry().Pipeline(cfg.Plugins)
	if err != nil {
		return nil, err
	}
	output.Debug("plugin pipeline", "stages", strings.Join(pipeline.Names(), ","))

	// Phase 2: GRAPH
	g, err := o.Graph(ctx, cfg, pipeline)
	if err != nil {
		return nil, err
	}

	emitter := emit.New(emit.Options{
		Fs:             o.fs(),
		OutDir:         outDir,
		NamingTemplate: opts.namingTemplate(),
		Manifest:       cfg.WriteManifest(),
		Finalizers:     pipeline.Finalizers(),
	})

	plan, err := emitter.Plan(ctx, g)
	if err != nil {
		return nil, err
	}
	res := &Result{Graph: g, Emit: plan, OutDir: outDir}

	prev, err := emit.ReadManifest(o.fs(), outDir)
	if err != nil {
		output.Warn("ignoring unreadable manifest", "dir", outDir, "err", err)
	}
	res.Previous = prev
	res.Added, res.Removed, res.Modified = emit.Changes(prev, emit.NewManifest(plan.Chunks))

	if opts.DryRun {
		return res, nil
	}

	// Phase 3: CLEAN
	if opts.Clean || cfg.Clean {
		if err := checkCleanTarget(cfg.Root, outDir); err != nil {
			return nil, err
		}
		if err := emitter.Clean(); err != nil {
			return nil, err
		}
		output.Debug("output directory cleaned", "dir", outDir)
	}

	// Phase 4: EMIT
	if err := emitter.Write(ctx, plan); err != nil {
		return nil, err
	}
	output.Debug("build complete",
		"chunks", len(plan.Chunks),
		"artifacts", len(plan.Artifacts),
		"modules", len(g.Modules),
	)
	return res, nil
}

// Graph loads the module graph of cfg. A nil pipeline is built from
// cfg.Plugins.
func (o *Orchestrator) Graph(ctx context.Context, cfg *config.Config, pipeline *plugin.Pipeline) (*graph.Graph, error) {
	cfg = cfg.WithDefaults()
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, oerrors.NewValidationError(err.Error(), "root", "")
	}
	if pipeline == nil {
		if pipeline, err = o.registry().Pipeline(cfg.Plugins); err != nil {
			return nil, err
		}
	}

	aliases := alias.New(root, cfg.Aliases)
	builder := graph.NewBuilder(graph.Options{
		Fs:          o.fs(),
		Root:        root,
		Resolver:    resolve.New(o.fs(), root, aliases, cfg.Extensions),
		Pipeline:    pipeline,
		Concurrency: cfg.Concurrency,
	})
	return builder.Build(ctx, EntryPoints(cfg))
}

// checkCleanTarget refuses to clean a directory that contains the project.
func checkCleanTarget(root, outDir string) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return oerrors.NewValidationError(err.Error(), "root", "")
	}
	rel, err := filepath.Rel(outDir, absRoot)
	if err == nil && (rel == "." || !strings.HasPrefix(rel, "..")) {
		return oerrors.NewValidationError(
			fmt.Sprintf("refusing to clean %s: it contains the project root", outDir),
			"outDir", "point outDir at a dedicated build directory such as dist")
	}
	return nil
}

// EntryPoints converts the configured entry map to a slice sorted by name.
func EntryPoints(cfg *config.Config) []module.EntryPoint {
	names := cfg.EntryNames()
	eps := make([]module.EntryPoint, len(names))
	for i, name := range names {
		eps[i] = module.EntryPoint{Name: name, Path: cfg.EntryPoints[name]}
	}
	return eps
}

func (o *Orchestrator) fs() afero.Fs {
	if o.Fs == nil {
		o.Fs = afero.NewOsFs()
	}
	return o.Fs
}

func (o *Orchestrator) registry() *plugin.Registry {
	if o.Registry == nil {
		o.Registry = plugin.NewRegistry()
	}
	return o.Registry
}
