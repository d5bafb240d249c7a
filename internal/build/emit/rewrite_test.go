package emit

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tribunales-evau/bundler/internal/build/module"
	"github.com/tribunales-evau/bundler/internal/build/scan"
)

// scanned builds a module whose dependencies resolve to their specifier
// with the leading "./" removed.
func scanned(t *testing.T, code string) *module.Module {
	t.Helper()
	res, err := scan.JS("m.js", []byte(code))
	require.NoError(t, err)
	m := &module.Module{ID: "m.js", Code: []byte(code), Lang: module.LangJS, Imports: res.Imports, Exports: res.Exports}
	for _, imp := range res.Imports {
		m.Deps = append(m.Deps, module.Dep{Specifier: imp.Specifier, ID: strings.TrimPrefix(imp.Specifier, "./")})
	}
	return m
}

func identityKey(id string) (string, bool) {
	return id, !strings.HasSuffix(id, ".css")
}

func TestRewriteModule(t *testing.T) {
	tests := []struct {
		name string
		code string
		want string
	}{
		{
			name: "side effect import",
			code: "import './a.js';\nrun();",
			want: "require(\"a.js\");\n\nrun();\n",
		},
		{
			name: "default and named bindings",
			code: "import A, { b, c as d } from './a.js'\nA(b, d)",
			want: "var __bundler_m0 = require(\"a.js\"), A = __bundler.interop(__bundler_m0), b = __bundler_m0.b, d = __bundler_m0.c;\n\nA(b, d)\n",
		},
		{
			name: "namespace import",
			code: "import * as ns from './a.js';",
			want: "var __bundler_m0 = require(\"a.js\"), ns = __bundler_m0;\n",
		},
		{
			name: "imports are hoisted above code that uses them",
			code: "globalThis.out = [f()];\nimport { f } from './x.js';",
			want: "var __bundler_m0 = require(\"x.js\"), f = __bundler_m0.f;\nglobalThis.out = [f()];\n",
		},
		{
			name: "hoisting keeps line breaks",
			code: "import {\n  a,\n} from './a.js'\nrun(a)",
			want: "var __bundler_m0 = require(\"a.js\"), a = __bundler_m0.a;\n\n\n\nrun(a)\n",
		},
		{
			name: "getters are defined before imports run",
			code: "import { b } from './b.js';\nexport const a = b;",
			want: "__bundler.define(exports, { \"a\": function () { return a; } });\nvar __bundler_m0 = require(\"b.js\"), b = __bundler_m0.b;\n\n const a = b;\n",
		},
		{
			name: "require keeps the call",
			code: "const x = require('./a.js');",
			want: "const x = require(\"a.js\");\n",
		},
		{
			name: "dynamic import",
			code: "import('./a.js').then(go);",
			want: "__bundler.dynamic(\"a.js\").then(go);\n",
		},
		{
			name: "export default expression",
			code: "export default 42;",
			want: "__bundler.define(exports, { \"default\": function () { return __bundler_default; } });\nvar __bundler_default = 42;\n",
		},
		{
			name: "export default named function",
			code: "export default function main() {}",
			want: "__bundler.define(exports, { \"default\": function () { return main; } });\n function main() {}\n",
		},
		{
			name: "export declaration and list",
			code: "export const a = 1;\nconst b = 2;\nexport { b as c };",
			want: "__bundler.define(exports, { \"a\": function () { return a; }, \"c\": function () { return b; } });\n const a = 1;\nconst b = 2;\n",
		},
		{
			name: "star reexport",
			code: "export * from './a.js';",
			want: "__bundler.define(exports, {});\n__bundler.star(exports, require(\"a.js\"));\n",
		},
		{
			name: "named reexport",
			code: "export { x as y, default as z } from './a.js';",
			want: "__bundler.define(exports, {});\nvar __bundler_m0 = require(\"a.js\"); __bundler.define(exports, { \"y\": function () { return __bundler_m0.x; }, \"z\": function () { return __bundler.interop(__bundler_m0); } });\n",
		},
		{
			name: "stylesheet import is dropped",
			code: "import './a.css';\nimport s from './b.css';\nrun();",
			want: "var s = void 0;\n\n\nrun();\n",
		},
		{
			name: "commonjs module is left alone",
			code: "module.exports = 1;\n",
			want: "module.exports = 1;\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rewriteModule(scanned(t, tt.code), identityKey)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestRewriteModule_StylesheetHasNoScript(t *testing.T) {
	m := &module.Module{ID: "a.css", Code: []byte(".a {}"), Lang: module.LangCSS}
	assert.Nil(t, rewriteModule(m, identityKey))
}

func TestCSSBody(t *testing.T) {
	code := "@import './b.css';\n.a { color: red; }\n"
	res, err := scan.CSS("a.css", []byte(code))
	require.NoError(t, err)

	m := &module.Module{Code: []byte(code), Lang: module.LangCSS, Imports: res.Imports}
	assert.Equal(t, ".a { color: red; }", string(cssBody(m)))
}

func TestImportedExpr(t *testing.T) {
	assert.Equal(t, "m", importedExpr("m", "*"))
	assert.Equal(t, "__bundler.interop(m)", importedExpr("m", "default"))
	assert.Equal(t, "m.foo", importedExpr("m", "foo"))
	assert.Equal(t, `m["a-b"]`, importedExpr("m", "a-b"))
}
