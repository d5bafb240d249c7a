package plugin

import (
	"context"
	"fmt"

	"github.com/tribunales-evau/bundler/internal/build/module"
	"github.com/tribunales-evau/bundler/internal/build/scan"
)

// DefineName is the registry name of the compile-time constant plugin.
const DefineName = "define"

// Replacement is one define rule. From is an identifier or dotted path;
// To is inserted verbatim, so string values must carry their own quotes.
type Replacement struct {
	From string `mapstructure:"from"`
	To   string `mapstructure:"to"`
}

// Define substitutes compile-time constants in script modules.
type Define struct {
	replacements map[string]string
}

// NewDefine is the registry factory for Define.
//
//	options:
//	  replacements:
//	    - from: process.env.NODE_ENV
//	      to: '"production"'
func NewDefine(opts Options) (Plugin, error) {
	var cfg struct {
		Replacements []Replacement `mapstructure:"replacements"`
	}
	if err := opts.Decode(&cfg); err != nil {
		return nil, err
	}
	repl := make(map[string]string, len(cfg.Replacements))
	for i, r := range cfg.Replacements {
		if r.From == "" {
			return nil, fmt.Errorf("replacements[%d]: from must not be empty", i)
		}
		repl[r.From] = r.To
	}
	return &Define{replacements: repl}, nil
}

func (d *Define) Name() string { return DefineName }

func (d *Define) Match(meta Meta) bool {
	return len(d.replacements) > 0 && (meta.Lang == module.LangJS || meta.Lang == module.LangTS)
}

func (d *Define) Transform(_ context.Context, code []byte, meta Meta) (*Result, error) {
	out, err := scan.ReplaceDotted(meta.Path, code, d.replacements)
	if err != nil {
		return nil, err
	}
	return &Result{Code: out}, nil
}
