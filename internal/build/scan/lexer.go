package scan

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/js"

	"github.com/tribunales-evau/bundler/internal/build/module"
)

// token is one significant JavaScript token. top is set for tokens outside
// every bracket and template substitution.
type token struct {
	tt    js.TokenType
	start int
	end   int
	top   bool
}

// regexFunc reports whether the slash at off, following prev, starts a
// regular expression literal.
type regexFunc func(prev token, off int) bool

// keywords after which a slash starts a regular expression.
var regexKeywords = map[string]bool{
	"return": true, "typeof": true, "instanceof": true, "in": true, "of": true,
	"new":    true, "delete": true, "void": true, "throw": true, "case": true,
	"do":     true, "else": true, "yield": true, "await": true,
}

// tokenize splits src into significant tokens. Whitespace and comments are
// dropped. The js lexer cannot tell a regular expression from a division on
// its own, so isRegex decides at every slash.
func tokenize(file string, src []byte, isRegex regexFunc) ([]token, error) {
	if len(src) == 0 {
		return nil, nil
	}
	in := parse.NewInputBytes(src)
	defer in.Restore()

	off := 0
	if bytes.HasPrefix(src, []byte("#!")) {
		if off = bytes.IndexByte(src, '\n'); off < 0 {
			off = len(src)
		}
		in.Move(off)
		in.Skip()
	}

	lx := js.NewLexer(in)
	var toks []token
	var prev token
	depth, tmpl := 0, 0
	for {
		start := off
		tt, data := lx.Next()
		off += len(data)

		if (tt == js.DivToken || tt == js.DivEqToken) && isRegex(prev, start) {
			if tt, data = lx.RegExp(); tt == js.ErrorToken {
				return nil, errorAt(file, src, start, "unterminated regular expression")
			}
			off = start + len(data)
		}

		switch tt {
		case js.ErrorToken:
			err := lx.Err()
			if errors.Is(err, io.EOF) {
				return toks, nil
			}
			var pe *parse.Error
			if errors.As(err, &pe) {
				return nil, errorAt(file, src, start, pe.Message)
			}
			return nil, errorAt(file, src, start, err.Error())
		case js.WhitespaceToken, js.LineTerminatorToken, js.CommentToken, js.CommentLineTerminatorToken:
			continue
		}

		t := token{tt: tt, start: start, end: off, top: depth == 0 && tmpl == 0}
		switch tt {
		case js.OpenParenToken, js.OpenBracketToken, js.OpenBraceToken:
			depth++
		case js.CloseParenToken, js.CloseBracketToken, js.CloseBraceToken:
			if depth > 0 {
				depth--
			}
		case js.TemplateStartToken:
			tmpl++
		case js.TemplateEndToken:
			if tmpl > 0 {
				tmpl--
			}
		}
		toks = append(toks, t)
		prev = t
	}
}

// lexicalRegex guesses from the previous token, for code the js parser
// cannot read. A slash after ")" or "]" or "}" or after "++" and "--" is
// always taken as division.
func lexicalRegex(src []byte) regexFunc {
	return func(prev token, _ int) bool {
		switch {
		case prev.tt == js.ErrorToken:
			return true
		case js.IsIdentifierName(prev.tt):
			return regexKeywords[string(src[prev.start:prev.end])]
		case js.IsNumeric(prev.tt):
			return false
		}
		switch prev.tt {
		case js.StringToken, js.TemplateToken, js.TemplateEndToken, js.RegExpToken, js.PrivateIdentifierToken,
			js.CloseParenToken, js.CloseBracketToken, js.CloseBraceToken, js.IncrToken, js.DecrToken:
			return false
		}
		return true
	}
}

// cursor walks a token slice for the declaration recognizers.
type cursor struct {
	file string
	src  []byte
	toks []token
	i    int
	prev token
}

type cursorState struct {
	i    int
	prev token
}

func (c *cursor) save() cursorState { return cursorState{i: c.i, prev: c.prev} }

func (c *cursor) restore(s cursorState) { c.i, c.prev = s.i, s.prev }

// topLevel reports whether the next token is outside any bracket or
// template.
func (c *cursor) topLevel() bool {
	return c.i >= len(c.toks) || c.toks[c.i].top
}

// next returns the next token, or an ErrorToken at the end of input.
func (c *cursor) next() token {
	if c.i >= len(c.toks) {
		return token{tt: js.ErrorToken, start: len(c.src), end: len(c.src)}
	}
	t := c.toks[c.i]
	c.i++
	c.prev = t
	return t
}

func (c *cursor) text(t token) string {
	return string(c.src[t.start:t.end])
}

func (c *cursor) errorf(off int, format string, args ...any) error {
	return errorAt(c.file, c.src, off, fmt.Sprintf(format, args...))
}

func errorAt(file string, src []byte, off int, msg string) error {
	line, col := position(src, off)
	return &module.ParseError{File: file, Line: line, Column: col, Msg: msg}
}

// position converts a byte offset to a 1-based line and rune column.
func position(src []byte, off int) (int, int) {
	if off > len(src) {
		off = len(src)
	}
	line, lineStart := 1, 0
	for i := 0; i < off; i++ {
		if src[i] == '\n' {
			line++
			lineStart = i + 1
		}
	}
	return line, utf8.RuneCount(src[lineStart:off]) + 1
}
