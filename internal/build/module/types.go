// Package module defines the units the build graph is made of and the
// errors a build can fail with.
package module

import (
	"path"
	"path/filepath"
	"strings"
)

// Lang names the current form of a module's code.
type Lang string

// Languages understood by the built-in scanner and plugins.
const (
	LangJS   Lang = "js"
	LangTS   Lang = "ts"
	LangCSS  Lang = "css"
	LangVue  Lang = "vue"
	LangJSON Lang = "json"
)

// LangFromPath derives the initial language of a file from its extension.
// .mjs and .cjs are plain JavaScript.
func LangFromPath(p string) Lang {
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(filepath.ToSlash(p))), ".")
	switch ext {
	case "mjs", "cjs", "jsx":
		return LangJS
	case "":
		return LangJS
	}
	return Lang(ext)
}

// VirtualPrefix marks IDs of modules injected by plugins rather than read
// from disk.
const VirtualPrefix = "virtual:"

// IsVirtual reports whether id names an injected module.
func IsVirtual(id string) bool {
	return strings.HasPrefix(id, VirtualPrefix)
}

// Span is a half-open byte range [Start, End) into a module's code.
type Span struct {
	Start int
	End   int
}

// ImportKind classifies how a module refers to a dependency.
type ImportKind int

const (
	// ImportStatic is an ES import declaration: import ... from "x" or import "x".
	ImportStatic ImportKind = iota
	// ImportReexport is an export declaration with a from clause.
	ImportReexport
	// ImportDynamic is an import("x") call.
	ImportDynamic
	// ImportRequire is a CommonJS require("x") call.
	ImportRequire
	// ImportCSS is a stylesheet @import.
	ImportCSS
)

func (k ImportKind) String() string {
	switch k {
	case ImportStatic:
		return "import"
	case ImportReexport:
		return "reexport"
	case ImportDynamic:
		return "dynamic"
	case ImportRequire:
		return "require"
	case ImportCSS:
		return "css"
	}
	return "unknown"
}

// Binding is one name introduced by an import or export clause.
// For imports, Imported is the exported name of the dependency ("default"
// or "*" for namespaces) and Local is the name bound in this module. For
// exports, Local is the name in this module and Imported the exported name.
type Binding struct {
	Imported string
	Local    string
}

// Import is one dependency reference found in a module's code.
type Import struct {
	// Specifier is the literal string the module imports.
	Specifier string

	// Kind tells the emitter how to rewrite the reference.
	Kind ImportKind

	// Spec is the span of the specifier string literal, quotes included.
	Spec Span

	// Stmt is the span of the whole statement or call expression.
	Stmt Span

	// Bindings lists the names bound by the clause, in source order.
	Bindings []Binding
}

// ExportKind classifies an export declaration without a from clause.
type ExportKind int

const (
	// ExportDefault is export default <expr>.
	ExportDefault ExportKind = iota
	// ExportDecl is export const|let|var|function|class <name>.
	ExportDecl
	// ExportList is export { a, b as c }.
	ExportList
)

// Export is an export declaration of the module's own bindings.
type Export struct {
	Kind ExportKind

	// Keyword is the span the emitter replaces: "export default" for
	// ExportDefault, "export" for ExportDecl, the whole statement for
	// ExportList.
	Keyword Span

	Bindings []Binding
}

// EntryPoint is a named root of the graph. Each one becomes a chunk.
type EntryPoint struct {
	Name string
	Path string
}

// Asset is a non-code artifact produced while transforming a module.
type Asset struct {
	// Kind is the artifact kind, e.g. "css".
	Kind string

	// Content is the raw artifact content.
	Content []byte
}

// Dep is a resolved dependency edge. Specifier is empty for modules
// injected by a plugin that the code does not reference directly.
type Dep struct {
	Specifier string
	ID        string
}

// Module is one node of the build graph.
// It is created on first resolution and never re-created within a run.
type Module struct {
	// ID is the absolute path of the source file, or a virtual ID.
	ID string

	// Origin is the file relative imports resolve against. It equals ID
	// for files and names the injecting file for virtual modules.
	Origin string

	// Source is the content as read, before any plugin ran.
	Source []byte

	// Code is the content after the plugin pipeline.
	Code []byte

	// Lang is the language of Code.
	Lang Lang

	// Imports are the references found in Code, in source order.
	Imports []Import

	// Exports are the module's own export declarations, in source order.
	Exports []Export

	// Deps holds one entry per Imports element, in the same order,
	// followed by injected dependencies.
	Deps []Dep

	// Assets are side artifacts produced by plugins.
	Assets []Asset
}

// IsVirtual reports whether the module was injected by a plugin.
func (m *Module) IsVirtual() bool {
	return IsVirtual(m.ID)
}

// DepIDs returns the resolved IDs of all dependencies in edge order.
func (m *Module) DepIDs() []string {
	ids := make([]string, len(m.Deps))
	for i, d := range m.Deps {
		ids[i] = d.ID
	}
	return ids
}

// RelID returns id relative to root in slash form. Virtual IDs and paths
// outside root are returned unchanged (outside paths in slash form).
func RelID(root, id string) string {
	if IsVirtual(id) || root == "" {
		return filepath.ToSlash(id)
	}
	rel, err := filepath.Rel(root, id)
	if err != nil || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || rel == ".." {
		return filepath.ToSlash(id)
	}
	return filepath.ToSlash(rel)
}
