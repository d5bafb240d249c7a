// Package plugin defines the transform stages a module passes through and
// the registry they are created from.
package plugin

import (
	"context"
	"fmt"

	"github.com/tribunales-evau/bundler/internal/build/module"
	"github.com/tribunales-evau/bundler/internal/output"
)

// Meta describes the module a stage is applied to.
type Meta struct {
	// Path is the absolute file path, or the virtual ID.
	Path string

	// ID is the project-relative slash path used in bundles and globs.
	ID string

	// Lang is the language of the code as the stage receives it.
	Lang module.Lang
}

// VirtualModule is a module a stage injects into the graph as a dependency
// of the module being transformed. ID must start with module.VirtualPrefix.
type VirtualModule struct {
	ID   string
	Lang module.Lang
	Code []byte
}

// Result is what a stage returns. Zero fields leave the module unchanged.
type Result struct {
	// Code replaces the module code when non-nil.
	Code []byte

	// Lang replaces the module language when non-empty.
	Lang module.Lang

	// SideAsset is attached to the module when non-nil.
	SideAsset *module.Asset

	// Inject lists virtual modules to add as dependencies.
	Inject []VirtualModule
}

// Plugin is one transform stage.
type Plugin interface {
	// Name identifies the plugin in errors and logs.
	Name() string

	// Match reports whether the stage applies to a module in its current form.
	Match(meta Meta) bool

	// Transform rewrites the module code. A nil Result means no change.
	Transform(ctx context.Context, code []byte, meta Meta) (*Result, error)
}

// Chunk is an assembled bundle handed to finalizers before it is written.
type Chunk struct {
	Name string
	JS   []byte
	CSS  []byte
}

// ChunkFinalizer is implemented by plugins that rewrite whole chunks.
type ChunkFinalizer interface {
	FinalizeChunk(ctx context.Context, chunk *Chunk) error
}

// Outcome is the state of a module after every stage ran.
type Outcome struct {
	Code   []byte
	Lang   module.Lang
	Assets []module.Asset
	Inject []VirtualModule
}

// Pipeline runs stages in order. It is immutable and safe for concurrent use.
type Pipeline struct {
	stages []Plugin
}

// NewPipeline creates a pipeline running stages in the given order.
func NewPipeline(stages ...Plugin) *Pipeline {
	return &Pipeline{stages: stages}
}

// Names returns the stage names in order.
func (p *Pipeline) Names() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name()
	}
	return names
}

// Apply runs every matching stage over code. Each stage sees the code and
// language left by the previous one. A stage failure is returned as a
// *module.TransformError and stops the pipeline.
func (p *Pipeline) Apply(ctx context.Context, meta Meta, code []byte) (*Outcome, error) {
	out := &Outcome{Code: code, Lang: meta.Lang}

	for _, stage := range p.stages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		meta.Lang = out.Lang
		if !stage.Match(meta) {
			continue
		}

		res, err := stage.Transform(ctx, out.Code, meta)
		if err != nil {
			return nil, &module.TransformError{File: meta.Path, Plugin: stage.Name(), Cause: err}
		}
		if res == nil {
			continue
		}

		if res.Code != nil {
			out.Code = res.Code
		}
		if res.Lang != "" {
			out.Lang = res.Lang
		}
		for _, v := range res.Inject {
			if !module.IsVirtual(v.ID) {
				return nil, &module.TransformError{
					File:   meta.Path,
					Plugin: stage.Name(),
					Cause:  fmt.Errorf("injected module %q must have the %q prefix", v.ID, module.VirtualPrefix),
				}
			}
		}
		if res.SideAsset != nil {
			out.Assets = append(out.Assets, *res.SideAsset)
		}
		out.Inject = append(out.Inject, res.Inject...)

		output.Debug("transformed",
			"module", meta.ID,
			"plugin", stage.Name(),
			"lang", out.Lang,
		)
	}
	return out, nil
}

// Finalizers returns the stages that also finalize chunks, in order.
func (p *Pipeline) Finalizers() []ChunkFinalizer {
	var out []ChunkFinalizer
	for _, s := range p.stages {
		if f, ok := s.(*filtered); ok {
			s = f.Plugin
		}
		if cf, ok := s.(ChunkFinalizer); ok {
			out = append(out, cf)
		}
	}
	return out
}
