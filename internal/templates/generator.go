package templates

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/tribunales-evau/bundler/internal/output"
)

// DefaultOutDir is written to bundler.yaml when GenerateOptions.OutDir is empty.
const DefaultOutDir = "dist"

// Generator creates projects from templates.
type Generator struct {
	opts GenerateOptions
}

// NewGenerator creates a new generator with the given options.
func NewGenerator(opts GenerateOptions) *Generator {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.TemplateName == "" {
		opts.TemplateName = DefaultTemplateName
	}
	if opts.OutDir == "" {
		opts.OutDir = DefaultOutDir
	}
	return &Generator{opts: opts}
}

// Generate creates a new project from a template. Nothing is written if
// the target directory is not empty, unless Force is set.
func (g *Generator) Generate() (*GenerateResult, error) {
	tmpl, err := Get(g.opts.TemplateName)
	if err != nil {
		return nil, err
	}

	name := g.opts.ProjectName
	if name == "" {
		abs, err := filepath.Abs(g.opts.TargetDir)
		if err != nil {
			return nil, fmt.Errorf("resolving target directory: %w", err)
		}
		name = filepath.Base(abs)
	}
	if err := ValidateProjectName(name); err != nil {
		return nil, err
	}

	if err := g.checkTargetDir(); err != nil {
		return nil, err
	}

	data := TemplateData{
		ProjectName:   name,
		ComponentName: ComponentName(name),
		OutDir:        g.opts.OutDir,
	}

	output.Debug("generating project",
		"template", tmpl.Name,
		"name", name,
		"target", g.opts.TargetDir)

	files, err := NewRenderer(data).RenderTemplate(tmpl.Name)
	if err != nil {
		return nil, fmt.Errorf("rendering template: %w", err)
	}

	created := make([]string, 0, len(files))
	for _, f := range files {
		target := filepath.Join(g.opts.TargetDir, filepath.FromSlash(f.TargetPath))

		if err := g.opts.Fs.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return nil, fmt.Errorf("creating directory %s: %w", filepath.Dir(target), err)
		}
		if err := afero.WriteFile(g.opts.Fs, target, f.Content, 0o644); err != nil {
			return nil, fmt.Errorf("writing %s: %w", target, err)
		}

		output.Debug("created file", "path", f.TargetPath)
		created = append(created, f.TargetPath)
	}

	return &GenerateResult{
		Files:        created,
		TemplateName: tmpl.Name,
		TargetDir:    g.opts.TargetDir,
	}, nil
}

func (g *Generator) checkTargetDir() error {
	info, err := g.opts.Fs.Stat(g.opts.TargetDir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("checking target directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", g.opts.TargetDir)
	}

	empty, err := afero.IsEmpty(g.opts.Fs, g.opts.TargetDir)
	if err != nil {
		return fmt.Errorf("reading target directory: %w", err)
	}
	if !empty && !g.opts.Force {
		return fmt.Errorf("directory %s is not empty; use --force to overwrite existing files", g.opts.TargetDir)
	}
	return nil
}
