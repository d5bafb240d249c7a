package scan

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tribunales-evau/bundler/internal/build/module"
	oerrors "github.com/tribunales-evau/bundler/internal/errors"
)

func specifiers(imps []module.Import) []string {
	out := make([]string, len(imps))
	for i, imp := range imps {
		out[i] = imp.Specifier
	}
	return out
}

func TestJS_Imports(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		want     []string
		kinds    []module.ImportKind
		bindings [][]module.Binding
	}{
		{
			name:  "side effect import",
			code:  `import "./polyfill.js";`,
			want:  []string{"./polyfill.js"},
			kinds: []module.ImportKind{module.ImportStatic},
		},
		{
			name:     "default import",
			code:     `import Vue from 'vue'`,
			want:     []string{"vue"},
			bindings: [][]module.Binding{{{Imported: "default", Local: "Vue"}}},
		},
		{
			name: "default and named",
			code: `import App, { mount, h as createElement } from "@/App.vue";`,
			want: []string{"@/App.vue"},
			bindings: [][]module.Binding{{
				{Imported: "default", Local: "App"},
				{Imported: "mount", Local: "mount"},
				{Imported: "h", Local: "createElement"},
			}},
		},
		{
			name:     "namespace",
			code:     `import * as api from "./api"`,
			want:     []string{"./api"},
			bindings: [][]module.Binding{{{Imported: "*", Local: "api"}}},
		},
		{
			name: "multiline named with trailing comma",
			code: "import {\n  a,\n  b,\n} from './ab';\n",
			want: []string{"./ab"},
			bindings: [][]module.Binding{{
				{Imported: "a", Local: "a"},
				{Imported: "b", Local: "b"},
			}},
		},
		{
			name:  "dynamic import",
			code:  `const Page = () => import("./pages/Home.vue");`,
			want:  []string{"./pages/Home.vue"},
			kinds: []module.ImportKind{module.ImportDynamic},
		},
		{
			name:  "require",
			code:  `var axios = require('axios'); module.exports = {}`,
			want:  []string{"axios"},
			kinds: []module.ImportKind{module.ImportRequire},
		},
		{
			name:  "re-exports",
			code:  "export * from './a';\nexport { b as c } from './b';\nexport * as ns from './n'",
			want:  []string{"./a", "./b", "./n"},
			kinds: []module.ImportKind{module.ImportReexport, module.ImportReexport, module.ImportReexport},
			bindings: [][]module.Binding{
				{{Imported: "*", Local: ""}},
				{{Imported: "b", Local: "c"}},
				{{Imported: "*", Local: "ns"}},
			},
		},
		{
			name: "source order across kinds",
			code: "import a from './a'\nconst b = require('./b')\nimport('./c')\nimport d from './d'",
			want: []string{"./a", "./b", "./c", "./d"},
		},
		{
			name: "ignores comments and strings",
			code: "// import x from './line'\n/* require('./block') */\nconst s = \"import y from './str'\";\nimport z from './real'",
			want: []string{"./real"},
		},
		{
			name: "ignores template text but scans substitutions",
			code: "const t = `import a from './tpl' ${require('./inner')} done`;",
			want: []string{"./inner"},
		},
		{
			name: "ignores regex containing quotes",
			code: "const re = /['\"]/g;\nimport x from './after-regex'",
			want: []string{"./after-regex"},
		},
		{
			name: "division is not a regex",
			code: "const half = total / 2; const q = a / b / c;\nimport x from './after-div'",
			want: []string{"./after-div"},
		},
		{
			name: "ignores member calls and non-literal arguments",
			code: "obj.require('./no'); loader.import('./no'); require(name); import(`./x/${n}`)",
			want: []string{},
		},
		{
			name: "ignores import.meta",
			code: "console.log(import.meta.url)\nimport x from './x'",
			want: []string{"./x"},
		},
		{
			name: "regex after a closing paren",
			code: "if (ok) /['\"]/.test(s) && run()\nimport x from './after-paren'",
			want: []string{"./after-paren"},
		},
		{
			name: "optional chaining is a member access",
			code: "obj?.require('./no')\nconst y = require('./yes')",
			want: []string{"./yes"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := JS("/p/a.js", []byte(tt.code))
			require.NoError(t, err)
			assert.Equal(t, tt.want, append([]string{}, specifiers(res.Imports)...))
			for i, k := range tt.kinds {
				assert.Equal(t, k, res.Imports[i].Kind, "import %d kind", i)
			}
			for i, b := range tt.bindings {
				assert.Equal(t, b, res.Imports[i].Bindings, "import %d bindings", i)
			}
		})
	}
}

func TestJS_Spans(t *testing.T) {
	code := `import x from "./x";` + "\n" + `const y = require('./y');`
	res, err := JS("/p/a.js", []byte(code))
	require.NoError(t, err)
	require.Len(t, res.Imports, 2)

	x := res.Imports[0]
	assert.Equal(t, `"./x"`, code[x.Spec.Start:x.Spec.End])
	assert.Equal(t, `import x from "./x";`, code[x.Stmt.Start:x.Stmt.End])

	y := res.Imports[1]
	assert.Equal(t, `'./y'`, code[y.Spec.Start:y.Spec.End])
	assert.Equal(t, `require('./y')`, code[y.Stmt.Start:y.Stmt.End])
}

func TestJS_Exports(t *testing.T) {
	code := `export default {
  name: "App",
  data() { return { n: 1 } }
}
export const version = "1.0";
export function helper() {}
export async function load() {}
export class Store {}
const a = 1, b = 2;
export { a, b as bee };
export const x = 1, y = 2;
export let { p, q: [r, ...s], ...rest } = obj;
`
	res, err := JS("/p/a.js", []byte(code))
	require.NoError(t, err)
	require.Len(t, res.Exports, 8)

	assert.Equal(t, module.ExportDefault, res.Exports[0].Kind)
	assert.Equal(t, "export default", code[res.Exports[0].Keyword.Start:res.Exports[0].Keyword.End])
	assert.Equal(t, []module.Binding{{Imported: "default", Local: ""}}, res.Exports[0].Bindings)

	names := []string{"version", "helper", "load", "Store"}
	for i, name := range names {
		e := res.Exports[i+1]
		assert.Equal(t, module.ExportDecl, e.Kind)
		assert.Equal(t, "export", code[e.Keyword.Start:e.Keyword.End])
		assert.Equal(t, []module.Binding{{Imported: name, Local: name}}, e.Bindings)
	}

	list := res.Exports[5]
	assert.Equal(t, module.ExportList, list.Kind)
	assert.Equal(t, "export { a, b as bee };", code[list.Keyword.Start:list.Keyword.End])
	assert.Equal(t, []module.Binding{{Local: "a", Imported: "a"}, {Local: "b", Imported: "bee"}}, list.Bindings)

	multi := res.Exports[6]
	assert.Equal(t, module.ExportDecl, multi.Kind)
	assert.Equal(t, []module.Binding{{Imported: "x", Local: "x"}, {Imported: "y", Local: "y"}}, multi.Bindings)

	var names []string
	for _, b := range res.Exports[7].Bindings {
		names = append(names, b.Local)
	}
	assert.Equal(t, []string{"p", "r", "s", "rest"}, names)
}

func TestJS_NamedDefaultExport(t *testing.T) {
	res, err := JS("/p/a.js", []byte("export default function App() {}\n"))
	require.NoError(t, err)
	require.Len(t, res.Exports, 1)
	assert.Equal(t, []module.Binding{{Imported: "default", Local: "App"}}, res.Exports[0].Bindings)
}

func TestJS_NestedDeclarationsIgnored(t *testing.T) {
	code := "function f() {\n  const o = { import: 1, export: 2 };\n}\n"
	res, err := JS("/p/a.js", []byte(code))
	require.NoError(t, err)
	assert.Empty(t, res.Imports)
	assert.Empty(t, res.Exports)
}

func TestJS_ParseErrors(t *testing.T) {
	tests := []struct {
		name string
		code string
		line int
		msg  string
	}{
		{name: "unterminated string", code: "const a = 1;\nconst s = 'oops\n", line: 2, msg: "unterminated string literal"},
		{name: "unterminated comment", code: "/* never closed", line: 1, msg: "comment"},
		{name: "unterminated template", code: "const t = `abc", line: 1, msg: "unterminated template literal"},
		{name: "unterminated regex", code: "x = /abc\n", line: 1, msg: "regular expression"},
		{name: "malformed import", code: "import { a from './a'", line: 1, msg: "import statement"},
		{name: "import without from", code: "import a './a'", line: 1, msg: "import statement"},
		{name: "syntax error on a later line", code: "const a = 1;\n\nlet = = 2;\n", line: 3},
		{name: "import attributes", code: `import data from "./data.json" with { type: "json" };`, line: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := JS("/p/bad.js", []byte(tt.code))
			require.Error(t, err)
			assert.True(t, errors.Is(err, oerrors.ErrParse))

			var pe *module.ParseError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, "/p/bad.js", pe.File)
			assert.Equal(t, tt.line, pe.Line)
			assert.Positive(t, pe.Column)
			assert.Contains(t, pe.Msg, tt.msg)
		})
	}
}

func TestLexicalJS_TypeScript(t *testing.T) {
	code := "import type { Props } from './types'\n" +
		"import { type A, b } from './mixed'\n" +
		"export interface P { a: string }\n" +
		"export const n: number = 1\n" +
		"export default defineComponent({ props: {} as Props })\n"

	res, err := lexicalJS("/p/a.ts", []byte(code))
	require.NoError(t, err)
	assert.Equal(t, []string{"./mixed"}, specifiers(res.Imports))
	assert.Equal(t, []module.Binding{{Imported: "b", Local: "b"}}, res.Imports[0].Bindings)
	require.Len(t, res.Exports, 1)
	assert.Equal(t, module.ExportDefault, res.Exports[0].Kind)
}

func TestDefaultExport(t *testing.T) {
	tests := []struct {
		name  string
		lang  module.Lang
		code  string
		kind  module.ExportKind
		local string
	}{
		{name: "export default", lang: module.LangJS, code: "export default { name: 'A' }", kind: module.ExportDefault},
		{name: "named function", lang: module.LangJS, code: "export default function App() {}", kind: module.ExportDefault, local: "App"},
		{name: "export list", lang: module.LangJS, code: "const comp = {}\nexport { comp as default, comp as named }", kind: module.ExportList, local: "comp"},
		{name: "typescript", lang: module.LangTS, code: "const n: number = 1\nexport default { n }", kind: module.ExportDefault},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := DefaultExport("/p/a.js", tt.lang, []byte(tt.code))
			require.NoError(t, err)
			require.NotNil(t, e)
			assert.Equal(t, tt.kind, e.Kind)
			assert.Contains(t, e.Bindings, module.Binding{Imported: "default", Local: tt.local})
		})
	}

	e, err := DefaultExport("/p/a.js", module.LangJS, []byte("export const a = 1"))
	require.NoError(t, err)
	assert.Nil(t, e)
}

func TestUnquote(t *testing.T) {
	assert.Equal(t, "./a", unquote([]byte(`"./a"`)))
	assert.Equal(t, "it's", unquote([]byte(`'it\'s'`)))
	assert.Equal(t, "é", unquote([]byte(`"é"`)))
}

func TestQuote(t *testing.T) {
	assert.Equal(t, `"<div class=\"a\">&amp;</div>"`, Quote(`<div class="a">&amp;</div>`))
	assert.Equal(t, `"line\nnext"`, Quote("line\nnext"))
	assert.Equal(t, `"\u2028"`, Quote("\u2028"))
	assert.Equal(t, "./a", unquote([]byte(Quote("./a"))))
}
