package graph

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/tribunales-evau/bundler/internal/build/module"
	"github.com/tribunales-evau/bundler/internal/build/plugin"
	"github.com/tribunales-evau/bundler/internal/build/resolve"
	"github.com/tribunales-evau/bundler/internal/build/scan"
	"github.com/tribunales-evau/bundler/internal/output"
)

// Options configures a Builder.
type Options struct {
	// Fs is the filesystem sources are read from.
	Fs afero.Fs

	// Root is the project root.
	Root string

	// Resolver maps specifiers to files.
	Resolver *resolve.Resolver

	// Pipeline transforms each module before it is scanned.
	Pipeline *plugin.Pipeline

	// Concurrency bounds the number of modules processed at once.
	// Zero means runtime.NumCPU().
	Concurrency int
}

// Builder loads modules and links them into a Graph.
type Builder struct {
	opts Options
}

// NewBuilder creates a Builder.
func NewBuilder(opts Options) *Builder {
	if opts.Concurrency <= 0 {
		opts.Concurrency = runtime.NumCPU()
	}
	if opts.Pipeline == nil {
		opts.Pipeline = plugin.NewPipeline()
	}
	return &Builder{opts: opts}
}

// Build loads every module reachable from entries.
//
// Each distinct module is read, transformed and scanned exactly once, no
// matter how many importers reach it or how concurrently. Modules are
// processed in parallel but the returned Graph does not depend on
// scheduling. The first failure cancels outstanding work and is returned:
// *module.NotFoundError, *module.ParseError or *module.TransformError.
func (b *Builder) Build(ctx context.Context, entries []module.EntryPoint) (*Graph, error) {
	sorted := append([]module.EntryPoint(nil), entries...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	resolved := make([]Entry, len(sorted))
	for i, e := range sorted {
		id, err := b.opts.Resolver.Resolve("", entryPath(b.opts.Root, e.Path))
		if err != nil {
			return nil, err
		}
		resolved[i] = Entry{EntryPoint: e, ID: id}
	}

	g, gctx := errgroup.WithContext(ctx)
	r := &run{
		opts:    b.opts,
		ctx:     gctx,
		group:   g,
		sem:     semaphore.NewWeighted(int64(b.opts.Concurrency)),
		claimed: make(map[string]bool),
		modules: make(map[string]*module.Module),
	}
	for _, e := range resolved {
		r.enqueue(e.ID, "", nil, "")
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	graph := &Graph{
		Root:    b.opts.Root,
		Entries: resolved,
		Modules: r.modules,
	}
	graph.computeOrder()

	output.Debug("module graph built",
		"entries", len(graph.Entries),
		"modules", len(graph.Modules),
	)
	return graph, nil
}

// entryPath makes an entry point path absolute against root. Entry paths
// name files, so "src/main.js" is not looked up in node_modules.
func entryPath(root, p string) string {
	p = filepath.FromSlash(p)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

// run is the state of one Build call.
type run struct {
	opts  Options
	ctx   context.Context
	group *errgroup.Group
	sem   *semaphore.Weighted

	mu      sync.Mutex
	claimed map[string]bool
	modules map[string]*module.Module
}

// enqueue schedules id for loading unless some caller already claimed it.
// virtual carries the content of injected modules; origin is the file an
// injected module resolves its imports against.
func (r *run) enqueue(id, importer string, virtual *plugin.VirtualModule, origin string) {
	r.mu.Lock()
	if r.claimed[id] {
		r.mu.Unlock()
		return
	}
	r.claimed[id] = true
	r.mu.Unlock()

	r.group.Go(func() error {
		return r.load(id, importer, virtual, origin)
	})
}

func (r *run) load(id, importer string, virtual *plugin.VirtualModule, origin string) error {
	if err := r.sem.Acquire(r.ctx, 1); err != nil {
		return err
	}
	m, injected, err := r.process(id, importer, virtual, origin)
	r.sem.Release(1)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.modules[id] = m
	r.mu.Unlock()

	for _, dep := range m.Deps {
		if v, ok := injected[dep.ID]; ok {
			r.enqueue(dep.ID, id, &v, m.Origin)
			continue
		}
		r.enqueue(dep.ID, id, nil, "")
	}
	return nil
}

// process reads, transforms, scans and resolves one module.
func (r *run) process(id, importer string, virtual *plugin.VirtualModule, origin string) (*module.Module, map[string]plugin.VirtualModule, error) {
	m := &module.Module{ID: id, Origin: id}

	if virtual != nil {
		m.Source = virtual.Code
		m.Lang = virtual.Lang
		m.Origin = origin
	} else {
		src, err := afero.ReadFile(r.opts.Fs, id)
		if err != nil {
			return nil, nil, &module.NotFoundError{Importer: importer, Specifier: id, Cause: err}
		}
		m.Source = src
		m.Lang = module.LangFromPath(id)
	}

	meta := plugin.Meta{Path: id, ID: module.RelID(r.opts.Root, id), Lang: m.Lang}
	out, err := r.opts.Pipeline.Apply(r.ctx, meta, m.Source)
	if err != nil {
		return nil, nil, err
	}
	m.Code, m.Lang, m.Assets = out.Code, out.Lang, out.Assets

	if m.Lang != module.LangJS && m.Lang != module.LangCSS {
		return nil, nil, &module.TransformError{
			File:  id,
			Cause: fmt.Errorf("no configured plugin turns %s modules into js", m.Lang),
		}
	}

	scanned, err := scan.Scan(id, m.Lang, m.Code)
	if err != nil {
		return nil, nil, err
	}
	m.Imports, m.Exports = scanned.Imports, scanned.Exports

	injected := make(map[string]plugin.VirtualModule, len(out.Inject))
	for _, v := range out.Inject {
		injected[v.ID] = v
	}

	referenced := make(map[string]bool)
	m.Deps = make([]module.Dep, 0, len(m.Imports)+len(out.Inject))
	for _, imp := range m.Imports {
		if _, ok := injected[imp.Specifier]; ok {
			referenced[imp.Specifier] = true
			m.Deps = append(m.Deps, module.Dep{Specifier: imp.Specifier, ID: imp.Specifier})
			continue
		}
		depID, err := r.opts.Resolver.Resolve(m.Origin, imp.Specifier)
		if err != nil {
			return nil, nil, err
		}
		m.Deps = append(m.Deps, module.Dep{Specifier: imp.Specifier, ID: depID})
	}
	for _, v := range out.Inject {
		if !referenced[v.ID] {
			m.Deps = append(m.Deps, module.Dep{ID: v.ID})
		}
	}

	output.Debug("module loaded",
		"module", meta.ID,
		"lang", m.Lang,
		"imports", len(m.Imports),
		"assets", len(m.Assets),
	)
	return m, injected, nil
}
