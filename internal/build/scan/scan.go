// Package scan finds the dependency references and exports in module code.
//
// JavaScript is parsed with the tdewolff js parser for validation and
// exported names, then walked token by token for the byte spans the
// emitter rewrites. Stylesheets are tokenized with the tdewolff css lexer.
// Malformed code is reported as *module.ParseError with a line and column.
package scan

import (
	"github.com/tribunales-evau/bundler/internal/build/module"
)

// Result holds what a scanner found, in source order.
type Result struct {
	Imports []module.Import
	Exports []module.Export
}

// Scan dispatches on lang. Languages without a scanner yield an empty
// result. TypeScript has to be compiled by a transform plugin first.
func Scan(file string, lang module.Lang, code []byte) (*Result, error) {
	switch lang {
	case module.LangJS:
		return JS(file, code)
	case module.LangTS:
		return nil, &module.ParseError{
			File:   file,
			Line:   1,
			Column: 1,
			Msg:    "TypeScript must be compiled to JavaScript by a transform plugin (exec with lang: ts)",
		}
	case module.LangCSS:
		return CSS(file, code)
	}
	return &Result{}, nil
}
