package templates

import (
	"bytes"
	"fmt"
	"io/fs"
	"strings"
	"text/template"
)

// Renderer renders template files with data substitution.
type Renderer struct {
	data TemplateData
}

// NewRenderer creates a new renderer with the given template data.
func NewRenderer(data TemplateData) *Renderer {
	return &Renderer{data: data}
}

// RenderFile renders a single template file and returns the content.
func (r *Renderer) RenderFile(name string, content []byte) ([]byte, error) {
	tmpl, err := template.New(name).Delims(leftDelim, rightDelim).Option("missingkey=error").Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("parsing template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, r.data); err != nil {
		return nil, fmt.Errorf("executing template: %w", err)
	}
	return buf.Bytes(), nil
}

// TemplateFile is a file generated from a template.
type TemplateFile struct {
	// SourcePath is the path within TemplateFS.
	SourcePath string

	// TargetPath is the slash-separated output path with .tmpl removed.
	TargetPath string

	// Content is the rendered content.
	Content []byte
}

// RenderTemplate renders every .tmpl file of a template, in lexical order.
func (r *Renderer) RenderTemplate(templateName string) ([]TemplateFile, error) {
	var files []TemplateFile

	err := walkTemplate(templateName, func(path, target string) error {
		content, err := fs.ReadFile(TemplateFS, path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		rendered, err := r.RenderFile(path, content)
		if err != nil {
			return fmt.Errorf("rendering %s: %w", path, err)
		}
		files = append(files, TemplateFile{SourcePath: path, TargetPath: target, Content: rendered})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking template %s: %w", templateName, err)
	}
	return files, nil
}

// ListTemplateFiles returns the output paths of a template without rendering.
func ListTemplateFiles(templateName string) ([]string, error) {
	var files []string
	err := walkTemplate(templateName, func(_, target string) error {
		files = append(files, target)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing template %s: %w", templateName, err)
	}
	return files, nil
}

func walkTemplate(templateName string, fn func(path, target string) error) error {
	return fs.WalkDir(TemplateFS, templateName, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".tmpl") {
			return nil
		}
		target := strings.TrimSuffix(strings.TrimPrefix(path, templateName+"/"), ".tmpl")
		return fn(path, target)
	})
}
