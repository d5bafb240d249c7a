package emit

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/tribunales-evau/bundler/internal/build/module"
	"github.com/tribunales-evau/bundler/internal/build/scan"
)

type edit struct {
	span module.Span
	text string
}

type getter struct {
	name string
	expr string
}

// keyFunc maps a module ID to its registry key. ok is false for modules
// that have no script, such as plain stylesheets.
type keyFunc func(id string) (key string, ok bool)

// rewriteModule turns module code into a registry function body: import
// declarations become require calls, export declarations become getters on
// exports and specifiers are replaced by module keys.
//
// Import and re-export declarations are hoisted. Their require calls run at
// the top of the body in source order, after the export getters are
// defined, and the declarations are cut from the code with only their line
// breaks kept.
func rewriteModule(m *module.Module, keyOf keyFunc) []byte {
	if m.Lang == module.LangCSS {
		return nil
	}

	var edits []edit
	var hoisted []string
	var getters []getter
	esm := false
	vars := 0
	nextVar := func() string {
		v := fmt.Sprintf("__bundler_m%d", vars)
		vars++
		return v
	}

	for i, imp := range m.Imports {
		if i >= len(m.Deps) {
			break
		}
		k, ok := keyOf(m.Deps[i].ID)
		key := scan.Quote(k)

		switch imp.Kind {
		case module.ImportRequire, module.ImportDynamic:
			switch {
			case !ok:
				edits = append(edits, edit{span: imp.Stmt, text: emptyImport(imp)})
			case imp.Kind == module.ImportRequire:
				edits = append(edits, edit{span: imp.Spec, text: key})
			default:
				edits = append(edits, edit{span: imp.Stmt, text: "__bundler.dynamic(" + key + ")"})
			}
			continue
		case module.ImportStatic:
			if ok {
				hoisted = append(hoisted, importStatement(imp, key, nextVar))
			} else {
				hoisted = append(hoisted, emptyImport(imp))
			}
		case module.ImportReexport:
			esm = true
			if ok {
				hoisted = append(hoisted, reexportStatement(imp, key, nextVar))
			}
		}
		edits = append(edits, edit{span: imp.Stmt, text: lineBreaks(m.Code, imp.Stmt)})
	}

	for _, exp := range m.Exports {
		esm = true
		switch exp.Kind {
		case module.ExportDefault:
			local := exp.Bindings[0].Local
			if local == "" {
				edits = append(edits, edit{span: exp.Keyword, text: "var __bundler_default ="})
				local = "__bundler_default"
			} else {
				edits = append(edits, edit{span: exp.Keyword})
			}
			getters = append(getters, getter{name: "default", expr: local})
		case module.ExportDecl, module.ExportList:
			edits = append(edits, edit{span: exp.Keyword})
			for _, b := range exp.Bindings {
				getters = append(getters, getter{name: b.Imported, expr: b.Local})
			}
		}
	}

	var out bytes.Buffer
	if esm {
		out.WriteString(defineCall(getters))
		out.WriteString(";\n")
	}
	for _, stmt := range hoisted {
		if stmt != "" {
			out.WriteString(stmt)
			out.WriteByte('\n')
		}
	}
	out.Write(applyEdits(m.Code, edits))
	if out.Len() > 0 && !bytes.HasSuffix(out.Bytes(), []byte("\n")) {
		out.WriteByte('\n')
	}
	return out.Bytes()
}

func importStatement(imp module.Import, key string, nextVar func() string) string {
	if len(imp.Bindings) == 0 {
		return "require(" + key + ");"
	}

	mv := nextVar()
	parts := []string{fmt.Sprintf("%s = require(%s)", mv, key)}
	for _, b := range imp.Bindings {
		parts = append(parts, fmt.Sprintf("%s = %s", b.Local, importedExpr(mv, b.Imported)))
	}
	return "var " + strings.Join(parts, ", ") + ";"
}

// lineBreaks returns the line breaks inside span, so cutting a declaration
// keeps the lines of the code after it.
func lineBreaks(code []byte, span module.Span) string {
	return strings.Repeat("\n", bytes.Count(code[span.Start:span.End], []byte("\n")))
}

// emptyImport replaces a reference to a module without a script. Its
// bindings are left undefined.
func emptyImport(imp module.Import) string {
	switch imp.Kind {
	case module.ImportRequire:
		return "({})"
	case module.ImportDynamic:
		return "Promise.resolve({})"
	case module.ImportReexport:
		return ""
	}
	if len(imp.Bindings) == 0 {
		return ""
	}
	parts := make([]string, len(imp.Bindings))
	for i, b := range imp.Bindings {
		parts[i] = b.Local + " = void 0"
	}
	return "var " + strings.Join(parts, ", ") + ";"
}

func reexportStatement(imp module.Import, key string, nextVar func() string) string {
	if len(imp.Bindings) == 1 && imp.Bindings[0].Imported == "*" && imp.Bindings[0].Local == "" {
		return "__bundler.star(exports, require(" + key + "));"
	}

	mv := nextVar()
	getters := make([]getter, 0, len(imp.Bindings))
	for _, b := range imp.Bindings {
		getters = append(getters, getter{name: b.Local, expr: importedExpr(mv, b.Imported)})
	}
	return fmt.Sprintf("var %s = require(%s); %s;", mv, key, defineCall(getters))
}

// importedExpr reads export name from the module object held in mv.
func importedExpr(mv, name string) string {
	switch name {
	case "*":
		return mv
	case "default":
		return "__bundler.interop(" + mv + ")"
	}
	if isIdentifier(name) {
		return mv + "." + name
	}
	return mv + "[" + scan.Quote(name) + "]"
}

func defineCall(getters []getter) string {
	if len(getters) == 0 {
		return "__bundler.define(exports, {})"
	}
	parts := make([]string, len(getters))
	for i, g := range getters {
		parts[i] = fmt.Sprintf("%s: function () { return %s; }", scan.Quote(g.name), g.expr)
	}
	return "__bundler.define(exports, { " + strings.Join(parts, ", ") + " })"
}

// applyEdits replaces each span in code. Overlapping edits after the first
// are dropped.
func applyEdits(code []byte, edits []edit) []byte {
	if len(edits) == 0 {
		return code
	}
	sort.SliceStable(edits, func(i, j int) bool { return edits[i].span.Start < edits[j].span.Start })

	var out bytes.Buffer
	last := 0
	for _, e := range edits {
		if e.span.Start < last || e.span.End > len(code) {
			continue
		}
		out.Write(code[last:e.span.Start])
		out.WriteString(e.text)
		last = e.span.End
	}
	out.Write(code[last:])
	return out.Bytes()
}

// cssBody returns stylesheet code with its @import rules removed; the
// imported sheets are emitted before it as separate modules.
func cssBody(m *module.Module) []byte {
	edits := make([]edit, 0, len(m.Imports))
	for _, imp := range m.Imports {
		edits = append(edits, edit{span: imp.Stmt})
	}
	return bytes.TrimSpace(applyEdits(m.Code, edits))
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, c := range s {
		switch {
		case c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z'):
		case i > 0 && c >= '0' && c <= '9':
		default:
			return false
		}
	}
	return true
}
