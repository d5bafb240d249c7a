// Package emit turns a module graph into chunk artifacts and writes them to
// the output directory.
package emit

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"

	"github.com/tribunales-evau/bundler/internal/build/graph"
	"github.com/tribunales-evau/bundler/internal/build/module"
	"github.com/tribunales-evau/bundler/internal/build/plugin"
	"github.com/tribunales-evau/bundler/internal/build/scan"
	"github.com/tribunales-evau/bundler/internal/output"
)

// Artifact kinds.
const (
	KindJS       = "js"
	KindCSS      = "css"
	KindManifest = "manifest"
)

// ManifestFile is the name of the manifest written next to the chunks.
const ManifestFile = "manifest.yaml"

// Options configures an Emitter.
type Options struct {
	// Fs is the filesystem artifacts are written to.
	Fs afero.Fs

	// OutDir is the absolute output directory.
	OutDir string

	// NamingTemplate maps a chunk to its artifact path, e.g. "{name}.{hash}.js".
	NamingTemplate string

	// Manifest enables writing ManifestFile after the chunks.
	Manifest bool

	// Finalizers run on every assembled chunk in order.
	Finalizers []plugin.ChunkFinalizer
}

// Artifact is one file of the build output.
type Artifact struct {
	// Chunk is the owning chunk name, empty for the manifest.
	Chunk string `json:"chunk,omitempty" yaml:"chunk,omitempty"`

	// Path is relative to the output directory, in slash form.
	Path string `json:"path" yaml:"path"`

	Kind string `json:"kind" yaml:"kind"`

	Content []byte `json:"-" yaml:"-"`
}

// Chunk is the output of one entry point.
type Chunk struct {
	Name string `json:"name" yaml:"name"`

	// Entry is the project-relative ID of the entry module.
	Entry string `json:"entry" yaml:"entry"`

	// Modules lists the bundled module IDs in execution order.
	Modules []string `json:"modules" yaml:"modules"`

	Artifacts []Artifact `json:"artifacts" yaml:"artifacts"`
}

// Result is a planned or written build output.
type Result struct {
	Chunks []*Chunk

	// Artifacts lists every file in write order: chunk artifacts by chunk
	// name, then the manifest.
	Artifacts []Artifact
}

// Emitter assembles and writes chunks.
type Emitter struct {
	opts Options
}

// New returns an Emitter. Fs defaults to the OS filesystem.
func New(opts Options) *Emitter {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	return &Emitter{opts: opts}
}

// Emit plans the output of g and writes it.
func (e *Emitter) Emit(ctx context.Context, g *graph.Graph) (*Result, error) {
	res, err := e.Plan(ctx, g)
	if err != nil {
		return nil, err
	}
	if err := e.Write(ctx, res); err != nil {
		return res, err
	}
	return res, nil
}

// Plan assembles every chunk of g without touching the filesystem.
// The same graph and options always produce byte-identical artifacts.
func (e *Emitter) Plan(ctx context.Context, g *graph.Graph) (*Result, error) {
	res := &Result{}
	seen := make(map[string]string)

	entries := make([]graph.Entry, len(g.Entries))
	copy(entries, g.Entries)
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		chunk, err := e.assemble(ctx, g, entry)
		if err != nil {
			return nil, err
		}
		for _, a := range chunk.Artifacts {
			if owner, ok := seen[a.Path]; ok {
				return nil, &module.EmitError{
					File:  e.outPath(a.Path),
					Cause: fmt.Errorf("chunks %q and %q produce the same file", owner, chunk.Name),
				}
			}
			seen[a.Path] = chunk.Name
		}
		res.Chunks = append(res.Chunks, chunk)
		res.Artifacts = append(res.Artifacts, chunk.Artifacts...)
	}

	if e.opts.Manifest {
		if _, ok := seen[ManifestFile]; ok {
			return nil, &module.EmitError{
				File:  e.outPath(ManifestFile),
				Cause: fmt.Errorf("chunk %q produces the manifest file name", seen[ManifestFile]),
			}
		}
		content, err := NewManifest(res.Chunks).Marshal()
		if err != nil {
			return nil, &module.EmitError{File: e.outPath(ManifestFile), Cause: err}
		}
		res.Artifacts = append(res.Artifacts, Artifact{Path: ManifestFile, Kind: KindManifest, Content: content})
	}
	return res, nil
}

// assemble bundles the modules reachable from entry. Modules are emitted
// dependencies first so each is registered before the entry runs.
func (e *Emitter) assemble(ctx context.Context, g *graph.Graph, entry graph.Entry) (*Chunk, error) {
	order := executionOrder(g, entry.ID)
	chunk := &Chunk{Name: entry.Name, Entry: g.RelID(entry.ID)}

	var js bytes.Buffer
	var css bytes.Buffer
	others := make(map[string]*bytes.Buffer)

	js.WriteString(prelude)
	for _, id := range order {
		m := g.Module(id)
		key := g.RelID(id)
		chunk.Modules = append(chunk.Modules, key)

		if m.Lang == module.LangCSS {
			appendStyle(&css, key, cssBody(m))
		} else {
			js.WriteString("  ")
			js.WriteString(scan.Quote(key))
			js.WriteString(moduleOpen)
			js.Write(rewriteModule(m, scriptKey(g)))
			js.WriteString(moduleClose)
		}

		for _, a := range m.Assets {
			if a.Kind == KindCSS {
				appendStyle(&css, key, bytes.TrimSpace(a.Content))
				continue
			}
			buf, ok := others[a.Kind]
			if !ok {
				buf = &bytes.Buffer{}
				others[a.Kind] = buf
			}
			buf.Write(a.Content)
		}
	}
	js.WriteString("}, ")
	js.WriteString(scan.Quote(chunk.Entry))
	js.WriteString(");\n")

	pc := &plugin.Chunk{Name: entry.Name, JS: js.Bytes(), CSS: css.Bytes()}
	for _, f := range e.opts.Finalizers {
		if err := f.FinalizeChunk(ctx, pc); err != nil {
			name := fmt.Sprintf("%T", f)
			if p, ok := f.(plugin.Plugin); ok {
				name = p.Name()
			}
			return nil, &module.TransformError{File: chunk.Entry, Plugin: name, Cause: err}
		}
	}

	if err := e.addArtifact(chunk, KindJS, pc.JS); err != nil {
		return nil, err
	}
	if len(pc.CSS) > 0 {
		if err := e.addArtifact(chunk, KindCSS, pc.CSS); err != nil {
			return nil, err
		}
	}
	kinds := make([]string, 0, len(others))
	for k := range others {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		if err := e.addArtifact(chunk, k, others[k].Bytes()); err != nil {
			return nil, err
		}
	}

	output.ChunkLogger(entry.Name).Debug("chunk assembled", "modules", len(chunk.Modules), "artifacts", len(chunk.Artifacts))
	return chunk, nil
}

func (e *Emitter) addArtifact(chunk *Chunk, kind string, content []byte) error {
	name, err := ArtifactName(e.opts.NamingTemplate, chunk.Name, kind, content)
	if err != nil {
		return &module.EmitError{File: e.opts.OutDir, Cause: err}
	}
	chunk.Artifacts = append(chunk.Artifacts, Artifact{Chunk: chunk.Name, Path: name, Kind: kind, Content: content})
	return nil
}

// Write creates every artifact of res under the output directory in order.
// Existing files are overwritten. The first failure is returned and
// artifacts already written are left in place.
func (e *Emitter) Write(ctx context.Context, res *Result) error {
	for _, a := range res.Artifacts {
		if err := ctx.Err(); err != nil {
			return err
		}
		target := e.outPath(a.Path)
		if err := e.opts.Fs.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return &module.EmitError{File: target, Cause: err}
		}
		if err := afero.WriteFile(e.opts.Fs, target, a.Content, 0o644); err != nil {
			return &module.EmitError{File: target, Cause: err}
		}
		output.Debug("artifact written", "path", a.Path, "size", len(a.Content))
	}
	return nil
}

// Clean removes the output directory and everything in it.
func (e *Emitter) Clean() error {
	if err := e.opts.Fs.RemoveAll(e.opts.OutDir); err != nil && !os.IsNotExist(err) {
		return &module.EmitError{File: e.opts.OutDir, Cause: err}
	}
	return nil
}

func (e *Emitter) outPath(rel string) string {
	return filepath.Join(e.opts.OutDir, filepath.FromSlash(rel))
}

// executionOrder lists the modules reachable from id in post-order:
// every module after its dependencies, cycles broken at the back edge.
func executionOrder(g *graph.Graph, id string) []string {
	var order []string
	state := make(map[string]bool)
	var visit func(id string)
	visit = func(id string) {
		if _, ok := state[id]; ok {
			return
		}
		m := g.Module(id)
		if m == nil {
			return
		}
		state[id] = false
		for _, dep := range m.Deps {
			visit(dep.ID)
		}
		state[id] = true
		order = append(order, id)
	}
	visit(id)
	return order
}

// scriptKey returns the registry key of modules emitted into the script.
func scriptKey(g *graph.Graph) keyFunc {
	return func(id string) (string, bool) {
		m := g.Module(id)
		if m == nil || m.Lang == module.LangCSS {
			return "", false
		}
		return g.RelID(id), true
	}
}

func appendStyle(buf *bytes.Buffer, key string, content []byte) {
	if len(content) == 0 {
		return
	}
	if buf.Len() > 0 {
		buf.WriteByte('\n')
	}
	fmt.Fprintf(buf, "/* %s */\n", key)
	buf.Write(content)
	buf.WriteByte('\n')
}
