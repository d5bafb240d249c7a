package templates

import "github.com/spf13/afero"

// Template represents a project template with its metadata.
type Template struct {
	// Name is the template identifier (spa, library).
	Name string

	// Description explains the template's purpose.
	Description string

	// Default indicates if this is the default template when --template is omitted.
	Default bool
}

// TemplateData holds the data passed to template rendering.
type TemplateData struct {
	// ProjectName is the project name (from --name or the directory name).
	ProjectName string

	// ComponentName is ProjectName in PascalCase, used as the Vue component name.
	ComponentName string

	// OutDir is the output directory written to bundler.yaml.
	OutDir string
}

// GenerateOptions configures project generation.
type GenerateOptions struct {
	// Fs is the filesystem written to. Defaults to the OS filesystem.
	Fs afero.Fs

	// TargetDir is the directory to generate the project in.
	TargetDir string

	// TemplateName is the template to use.
	TemplateName string

	// ProjectName overrides the directory-derived project name.
	ProjectName string

	// OutDir is the bundle output directory. Defaults to "dist".
	OutDir string

	// Force allows writing into a non-empty directory and overwriting files.
	Force bool
}

// GenerateResult contains the result of project generation.
type GenerateResult struct {
	// Files is the list of files created, relative to TargetDir.
	Files []string

	// TemplateName is the template that was used.
	TemplateName string

	// TargetDir is the directory where files were created.
	TargetDir string
}
