// Package templates provides the embedded project templates used by
// bundler init.
package templates

import "embed"

// TemplateFS holds one directory per template. Files ending in .tmpl are
// rendered with text/template using [[ ]] delimiters, so {{ }} in Vue
// templates passes through untouched.
//
//go:embed spa library
var TemplateFS embed.FS

const (
	leftDelim  = "[["
	rightDelim = "]]"
)
