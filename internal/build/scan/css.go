package scan

import (
	"bytes"
	"errors"
	"io"
	"strings"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"

	"github.com/tribunales-evau/bundler/internal/build/module"
)

type cssToken struct {
	tt    css.TokenType
	start int
	end   int
}

// CSS scans a stylesheet for @import rules. Imports of absolute URLs
// (http:, https:, data:, protocol-relative) are left to the browser and
// not reported.
func CSS(file string, code []byte) (*Result, error) {
	src := terminated(code)
	toks, err := cssTokens(file, src)
	if err != nil {
		return nil, err
	}

	res := &Result{}
	for i, t := range toks {
		if t.tt != css.AtKeywordToken || !strings.EqualFold(string(src[t.start:t.end]), "@import") {
			continue
		}
		imp, err := parseCSSImport(file, src, toks[i:])
		if err != nil {
			return nil, err
		}
		if imp != nil {
			res.Imports = append(res.Imports, *imp)
		}
	}
	return res, nil
}

// cssTokens lexes src without whitespace and comments. The css lexer is
// forgiving, so unterminated comments, strings and url() are checked here.
func cssTokens(file string, src []byte) ([]cssToken, error) {
	in := parse.NewInputBytes(src)
	defer in.Restore()
	lx := css.NewLexer(in)

	var toks []cssToken
	off := 0
	for {
		start := off
		tt, data := lx.Next()
		off += len(data)

		switch tt {
		case css.ErrorToken:
			if err := lx.Err(); err != nil && !errors.Is(err, io.EOF) {
				return nil, errorAt(file, src, start, err.Error())
			}
			return toks, nil
		case css.WhitespaceToken:
			continue
		case css.CommentToken:
			if len(data) < 4 || !bytes.HasSuffix(data, []byte("*/")) {
				return nil, errorAt(file, src, start, "unterminated comment")
			}
			continue
		case css.BadStringToken:
			return nil, errorAt(file, src, start, "unterminated string")
		}
		toks = append(toks, cssToken{tt: tt, start: start, end: off})
	}
}

// parseCSSImport parses the @import rule that starts toks. It returns nil
// for external URLs.
func parseCSSImport(file string, src []byte, toks []cssToken) (*module.Import, error) {
	at := toks[0]
	if len(toks) < 2 {
		return nil, errorAt(file, src, at.start, "expected a string or url() after @import")
	}

	var spec module.Span
	var specifier string

	switch t := toks[1]; t.tt {
	case css.StringToken:
		spec = module.Span{Start: t.start, End: t.end}
		specifier = unquote(src[t.start:t.end])
	case css.URLToken:
		raw := src[t.start:t.end]
		if !bytes.HasSuffix(raw, []byte(")")) {
			return nil, errorAt(file, src, at.start, "unterminated url() in @import")
		}
		inner := t.start + len("url(")
		end := t.end - 1
		for inner < end && isCSSSpace(src[inner]) {
			inner++
		}
		for end > inner && isCSSSpace(src[end-1]) {
			end--
		}
		spec = module.Span{Start: inner, End: end}
		specifier = string(src[inner:end])
		if c := src[inner]; end-inner >= 2 && (c == '"' || c == '\'') {
			specifier = unquote(src[inner:end])
		}
	case css.BadURLToken:
		return nil, errorAt(file, src, at.start, "malformed url() in @import")
	default:
		return nil, errorAt(file, src, at.start, "expected a string or url() after @import")
	}

	// Media queries and layer() may follow; the rule ends at ";".
	stmtEnd := len(src)
	for _, t := range toks[2:] {
		if t.tt == css.SemicolonToken {
			stmtEnd = t.end
			break
		}
	}

	if isExternalURL(specifier) {
		return nil, nil
	}
	return &module.Import{
		Specifier: specifier,
		Kind:      module.ImportCSS,
		Spec:      spec,
		Stmt:      module.Span{Start: at.start, End: stmtEnd},
	}, nil
}

func isExternalURL(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http:") ||
		strings.HasPrefix(lower, "https:") ||
		strings.HasPrefix(lower, "data:") ||
		strings.HasPrefix(lower, "//")
}

func isCSSSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}
