package scan

import (
	"errors"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/js"

	"github.com/tribunales-evau/bundler/internal/build/module"
)

// JS scans a JavaScript module for import and export declarations, import()
// calls with a literal argument and require() calls.
//
// The code is parsed first. Syntax errors are reported with their position,
// and the names bound by an exported declaration, destructuring patterns
// included, are taken from the syntax tree. Declaration spans come from a
// second pass over the tokens.
func JS(file string, code []byte) (*Result, error) {
	src := terminated(code)
	tree, err := js.Parse(parse.NewInputBytes(src), js.Options{})
	if err != nil {
		return nil, syntaxError(file, src, err)
	}

	regexps := regexStarts(tree)
	toks, err := tokenize(file, src, func(_ token, off int) bool { return regexps[&src[off]] })
	if err != nil {
		return nil, err
	}

	p := &jsParser{cursor: cursor{file: file, src: src, toks: toks}, decls: exportedNames(tree)}
	if err := p.run(); err != nil {
		return nil, err
	}
	return &p.res, nil
}

// DefaultExport returns the statement that provides the default export of a
// script, or nil when there is none. TypeScript is read token by token
// since the parser has no type syntax.
func DefaultExport(file string, lang module.Lang, code []byte) (*module.Export, error) {
	var res *Result
	var err error
	if lang == module.LangTS {
		res, err = lexicalJS(file, code)
	} else {
		res, err = JS(file, code)
	}
	if err != nil {
		return nil, err
	}

	for i, e := range res.Exports {
		if e.Kind == module.ExportDefault {
			return &res.Exports[i], nil
		}
		for _, b := range e.Bindings {
			if e.Kind == module.ExportList && b.Imported == "default" {
				return &res.Exports[i], nil
			}
		}
	}
	return nil, nil
}

// lexicalJS runs the recognizer without the parser. Exported variable
// statements are not reported.
func lexicalJS(file string, code []byte) (*Result, error) {
	src := terminated(code)
	toks, err := tokenize(file, src, lexicalRegex(src))
	if err != nil {
		return nil, err
	}
	p := &jsParser{cursor: cursor{file: file, src: src, toks: toks}}
	if err := p.run(); err != nil {
		return nil, err
	}
	return &p.res, nil
}

// terminated copies code with room for the terminating NUL the parse
// package appends, so every pass slices the same array.
func terminated(code []byte) []byte {
	src := make([]byte, len(code), len(code)+1)
	copy(src, code)
	return src
}

func syntaxError(file string, src []byte, err error) error {
	var pe *parse.Error
	if errors.As(err, &pe) {
		return &module.ParseError{File: file, Line: pe.Line, Column: pe.Column, Msg: pe.Message}
	}
	return errorAt(file, src, 0, err.Error())
}

// regexVisitor collects the first byte of every regular expression literal.
// Literals alias the source array, so the lexer pass can match them by
// address.
type regexVisitor map[*byte]bool

func (v regexVisitor) Enter(n js.INode) js.IVisitor {
	if lit, ok := n.(*js.LiteralExpr); ok && lit.TokenType == js.RegExpToken && len(lit.Data) > 0 {
		v[&lit.Data[0]] = true
	}
	return v
}

func (v regexVisitor) Exit(js.INode) {}

func regexStarts(tree *js.AST) map[*byte]bool {
	v := regexVisitor{}
	js.Walk(v, tree)
	return v
}

// exportedNames lists, for each top-level export statement in source order,
// the names its declaration binds. Statements without a named declaration
// get an empty entry.
func exportedNames(tree *js.AST) [][]string {
	out := [][]string{}
	for _, stmt := range tree.List {
		exp, ok := stmt.(*js.ExportStmt)
		if !ok {
			continue
		}
		out = append(out, declNames(exp.Decl))
	}
	return out
}

func declNames(decl js.IExpr) []string {
	switch d := decl.(type) {
	case *js.VarDecl:
		var names []string
		for _, el := range d.List {
			names = bindingNames(el.Binding, names)
		}
		return names
	case *js.FuncDecl:
		if d.Name != nil {
			return []string{string(d.Name.Data)}
		}
	case *js.ClassDecl:
		if d.Name != nil {
			return []string{string(d.Name.Data)}
		}
	}
	return nil
}

func bindingNames(b js.IBinding, names []string) []string {
	switch b := b.(type) {
	case *js.Var:
		names = append(names, string(b.Name()))
	case *js.BindingArray:
		for _, el := range b.List {
			names = bindingNames(el.Binding, names)
		}
		if b.Rest != nil {
			names = bindingNames(b.Rest, names)
		}
	case *js.BindingObject:
		for _, item := range b.List {
			names = bindingNames(item.Value.Binding, names)
		}
		if b.Rest != nil {
			names = append(names, string(b.Rest.Name()))
		}
	}
	return names
}

// jsParser recognizes declarations in the token stream. decls holds the
// parser's names per export statement and is nil for lexical scans.
type jsParser struct {
	cursor
	decls   [][]string
	exports int
	res     Result
}

func (p *jsParser) run() error {
	for {
		prev := p.prev
		top := p.topLevel()

		t := p.next()
		if t.tt == js.ErrorToken {
			return nil
		}
		if !js.IsIdentifierName(t.tt) || prev.tt == js.DotToken || prev.tt == js.OptChainToken {
			continue
		}

		var err error
		switch {
		case t.tt == js.ImportToken:
			err = p.parseImport(t, top)
		case t.tt == js.ExportToken && top:
			err = p.parseExport(t)
		case p.text(t) == "require":
			err = p.parseRequire(t)
		}
		if err != nil {
			return err
		}
	}
}

func (p *jsParser) parseImport(kw token, top bool) error {
	save := p.save()
	t := p.next()

	switch {
	case t.tt == js.OpenParenToken:
		return p.parseDynamicImport(kw, save)
	case t.tt == js.DotToken:
		// import.meta
		return nil
	case !top:
		p.restore(save)
		return nil
	}

	imp := module.Import{Kind: module.ImportStatic}
	if t.tt == js.StringToken {
		return p.finishFrom(kw, t, imp)
	}

	if t.tt == js.IdentifierToken && p.text(t) == "type" {
		s := p.save()
		n := p.next()
		if n.tt == js.OpenBraceToken || n.tt == js.MulToken || (js.IsIdentifierName(n.tt) && n.tt != js.FromToken) {
			// import type ... : erased by the TypeScript compiler
			p.restore(save)
			return nil
		}
		p.restore(s)
	}

	if js.IsIdentifierName(t.tt) {
		imp.Bindings = append(imp.Bindings, module.Binding{Imported: "default", Local: p.text(t)})
		t = p.next()
		switch t.tt {
		case js.CommaToken:
			t = p.next()
		case js.FromToken:
			return p.expectSpecifier(kw, imp)
		default:
			return p.errorf(t.start, "unexpected %q in import declaration", p.text(t))
		}
	}

	switch t.tt {
	case js.MulToken:
		local, err := p.parseNamespaceAlias()
		if err != nil {
			return err
		}
		imp.Bindings = append(imp.Bindings, module.Binding{Imported: "*", Local: local})
	case js.OpenBraceToken:
		pairs, err := p.parseNamedList("import")
		if err != nil {
			return err
		}
		for _, pr := range pairs {
			imp.Bindings = append(imp.Bindings, module.Binding{Imported: pr[0], Local: pr[1]})
		}
	default:
		return p.errorf(t.start, "unexpected %q in import declaration", p.text(t))
	}

	if t = p.next(); t.tt != js.FromToken {
		return p.errorf(t.start, "expected 'from' in import declaration")
	}
	return p.expectSpecifier(kw, imp)
}

func (p *jsParser) parseDynamicImport(kw token, save cursorState) error {
	t := p.next()
	if t.tt != js.StringToken {
		p.restore(save)
		return nil
	}
	closeTok := p.next()
	if closeTok.tt != js.CloseParenToken {
		p.restore(save)
		return nil
	}
	p.res.Imports = append(p.res.Imports, module.Import{
		Specifier: p.unquote(t),
		Kind:      module.ImportDynamic,
		Spec:      module.Span{Start: t.start, End: t.end},
		Stmt:      module.Span{Start: kw.start, End: closeTok.end},
	})
	return nil
}

func (p *jsParser) parseRequire(kw token) error {
	save := p.save()
	if open := p.next(); open.tt != js.OpenParenToken {
		p.restore(save)
		return nil
	}
	t := p.next()
	closeTok := p.next()
	if t.tt != js.StringToken || closeTok.tt != js.CloseParenToken {
		p.restore(save)
		return nil
	}
	p.res.Imports = append(p.res.Imports, module.Import{
		Specifier: p.unquote(t),
		Kind:      module.ImportRequire,
		Spec:      module.Span{Start: t.start, End: t.end},
		Stmt:      module.Span{Start: kw.start, End: closeTok.end},
	})
	return nil
}

func (p *jsParser) parseExport(kw token) error {
	idx := p.exports
	p.exports++

	save := p.save()
	t := p.next()

	switch {
	case t.tt == js.DefaultToken:
		p.res.Exports = append(p.res.Exports, module.Export{
			Kind:     module.ExportDefault,
			Keyword:  module.Span{Start: kw.start, End: t.end},
			Bindings: []module.Binding{{Imported: "default", Local: p.defaultName(idx)}},
		})
		return nil

	case t.tt == js.OpenBraceToken:
		pairs, err := p.parseNamedList("export")
		if err != nil {
			return err
		}
		s := p.save()
		if n := p.next(); n.tt == js.FromToken {
			imp := module.Import{Kind: module.ImportReexport}
			for _, pr := range pairs {
				imp.Bindings = append(imp.Bindings, module.Binding{Imported: pr[0], Local: pr[1]})
			}
			return p.expectSpecifier(kw, imp)
		}
		p.restore(s)
		exp := module.Export{Kind: module.ExportList}
		for _, pr := range pairs {
			exp.Bindings = append(exp.Bindings, module.Binding{Local: pr[0], Imported: pr[1]})
		}
		exp.Keyword = module.Span{Start: kw.start, End: p.optionalSemicolon(p.prev.end)}
		p.res.Exports = append(p.res.Exports, exp)
		return nil

	case t.tt == js.MulToken:
		imp := module.Import{Kind: module.ImportReexport}
		n := p.next()
		local := ""
		if n.tt == js.AsToken {
			var err error
			if local, err = p.bindingName(); err != nil {
				return err
			}
			n = p.next()
		}
		if n.tt != js.FromToken {
			return p.errorf(n.start, "expected 'from' in export declaration")
		}
		imp.Bindings = []module.Binding{{Imported: "*", Local: local}}
		return p.expectSpecifier(kw, imp)

	case js.IsIdentifierName(t.tt):
		switch p.text(t) {
		case "type", "interface", "enum", "declare", "abstract", "namespace":
			p.restore(save)
			return nil
		}
		p.restore(save)
		names, err := p.declaredNames(idx, t)
		if err != nil || len(names) == 0 {
			return err
		}
		exp := module.Export{Kind: module.ExportDecl, Keyword: module.Span{Start: kw.start, End: kw.end}}
		for _, name := range names {
			exp.Bindings = append(exp.Bindings, module.Binding{Imported: name, Local: name})
		}
		p.res.Exports = append(p.res.Exports, exp)
		return nil
	}

	return p.errorf(t.start, "unexpected %q after export", p.text(t))
}

// declaredNames returns the names bound by the declaration after "export".
// Lexical scans only name functions and classes.
func (p *jsParser) declaredNames(idx int, t token) ([]string, error) {
	if p.decls != nil {
		if idx >= len(p.decls) || len(p.decls[idx]) == 0 {
			return nil, p.errorf(t.start, "unsupported export declaration")
		}
		return p.decls[idx], nil
	}

	switch t.tt {
	case js.VarToken, js.LetToken, js.ConstToken:
		return nil, nil
	}
	name := p.declName()
	if name == "" {
		return nil, p.errorf(t.start, "unsupported export declaration")
	}
	return []string{name}, nil
}

// defaultName returns the name of a function or class declared by export
// default, or "" for an expression.
func (p *jsParser) defaultName(idx int) string {
	if p.decls != nil {
		if idx < len(p.decls) && len(p.decls[idx]) == 1 {
			return p.decls[idx][0]
		}
		return ""
	}
	return p.declName()
}

// declName peeks at a function or class declaration and returns its name.
// The cursor is left where it started so the body is still scanned.
func (p *jsParser) declName() string {
	save := p.save()
	defer p.restore(save)

	t := p.next()
	if t.tt == js.AsyncToken {
		if t = p.next(); t.tt != js.FunctionToken {
			return ""
		}
	}

	switch t.tt {
	case js.FunctionToken:
		n := p.next()
		if n.tt == js.MulToken {
			n = p.next()
		}
		if js.IsIdentifierName(n.tt) {
			return p.text(n)
		}
	case js.ClassToken:
		if n := p.next(); js.IsIdentifierName(n.tt) && n.tt != js.ExtendsToken {
			return p.text(n)
		}
	}
	return ""
}

// parseNamedList parses the inside of "{ a, b as c }" after the opening
// brace and returns [name, alias] pairs. alias equals name when absent.
func (p *jsParser) parseNamedList(what string) ([][2]string, error) {
	var pairs [][2]string
	for {
		t := p.next()
		if t.tt == js.CloseBraceToken {
			return pairs, nil
		}
		if !js.IsIdentifierName(t.tt) && t.tt != js.StringToken {
			return nil, p.errorf(t.start, "unexpected %q in %s list", p.text(t), what)
		}
		name := p.nameOf(t)
		t = p.next()

		// { type Foo } names a TypeScript type and binds nothing at runtime.
		typeOnly := false
		if name == "type" && js.IsIdentifierName(t.tt) && t.tt != js.AsToken {
			typeOnly = true
			name = p.text(t)
			t = p.next()
		}

		alias := name
		if t.tt == js.AsToken {
			var err error
			if alias, err = p.bindingName(); err != nil {
				return nil, err
			}
			t = p.next()
		}
		if !typeOnly {
			pairs = append(pairs, [2]string{name, alias})
		}

		switch t.tt {
		case js.CloseBraceToken:
			return pairs, nil
		case js.CommaToken:
		default:
			return nil, p.errorf(t.start, "unexpected %q in %s list", p.text(t), what)
		}
	}
}

func (p *jsParser) parseNamespaceAlias() (string, error) {
	if t := p.next(); t.tt != js.AsToken {
		return "", p.errorf(t.start, "expected 'as' after '*'")
	}
	return p.bindingName()
}

func (p *jsParser) bindingName() (string, error) {
	t := p.next()
	if !js.IsIdentifierName(t.tt) && t.tt != js.StringToken {
		return "", p.errorf(t.start, "expected a name, found %q", p.text(t))
	}
	return p.nameOf(t), nil
}

// expectSpecifier reads the module string that ends an import or re-export
// declaration and records the import.
func (p *jsParser) expectSpecifier(kw token, imp module.Import) error {
	t := p.next()
	if t.tt != js.StringToken {
		return p.errorf(t.start, "expected module specifier string")
	}
	return p.finishFrom(kw, t, imp)
}

func (p *jsParser) finishFrom(kw, spec token, imp module.Import) error {
	imp.Specifier = p.unquote(spec)
	imp.Spec = module.Span{Start: spec.start, End: spec.end}
	imp.Stmt = module.Span{Start: kw.start, End: p.optionalSemicolon(spec.end)}
	p.res.Imports = append(p.res.Imports, imp)
	return nil
}

// optionalSemicolon consumes a ";" directly following the statement and
// returns the statement end.
func (p *jsParser) optionalSemicolon(end int) int {
	s := p.save()
	if t := p.next(); t.tt == js.SemicolonToken {
		return t.end
	}
	p.restore(s)
	return end
}

func (p *jsParser) nameOf(t token) string {
	if t.tt == js.StringToken {
		return p.unquote(t)
	}
	return p.text(t)
}

func (p *jsParser) unquote(t token) string {
	return unquote(p.src[t.start:t.end])
}
