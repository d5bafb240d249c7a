package templates

import (
	"fmt"
	"strings"
)

// DefaultTemplateName is the template used when --template is not specified.
const DefaultTemplateName = "spa"

var templates = map[string]Template{
	"spa": {
		Name:        "spa",
		Description: "Vue single-page application with injected styles",
		Default:     true,
	},
	"library": {
		Name:        "library",
		Description: "Plain JavaScript library with content-hashed output",
	},
}

// Get returns a template by name.
func Get(name string) (Template, error) {
	t, ok := templates[name]
	if !ok {
		return Template{}, fmt.Errorf("unknown template %q; valid templates: %s", name, strings.Join(Names(), ", "))
	}
	return t, nil
}

// List returns all available templates, default first.
func List() []Template {
	return []Template{templates["spa"], templates["library"]}
}

// Names returns all template names.
func Names() []string {
	return []string{"spa", "library"}
}
