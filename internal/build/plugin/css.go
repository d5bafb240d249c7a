package plugin

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/tribunales-evau/bundler/internal/build/module"
	"github.com/tribunales-evau/bundler/internal/build/scan"
)

// CSSName is the registry name of the stylesheet plugin.
const CSSName = "css"

// CSS turns stylesheet modules into side assets. The module itself becomes
// a script importing the stylesheets it @imported, so they are bundled and
// ordered like any other dependency.
type CSS struct{}

// NewCSS is the registry factory for CSS. It takes no options.
func NewCSS(opts Options) (Plugin, error) {
	var cfg struct{}
	if err := opts.Decode(&cfg); err != nil {
		return nil, err
	}
	return &CSS{}, nil
}

func (c *CSS) Name() string { return CSSName }

func (c *CSS) Match(meta Meta) bool { return meta.Lang == module.LangCSS }

func (c *CSS) Transform(_ context.Context, code []byte, meta Meta) (*Result, error) {
	scanned, err := scan.CSS(meta.Path, code)
	if err != nil {
		return nil, err
	}

	var js, css bytes.Buffer
	last := 0
	for _, imp := range scanned.Imports {
		css.Write(code[last:imp.Stmt.Start])
		last = imp.Stmt.End
		fmt.Fprintf(&js, "import %s;\n", scan.Quote(cssSpecifier(imp.Specifier)))
	}
	css.Write(code[last:])

	content := bytes.TrimSpace(css.Bytes())
	if len(content) > 0 {
		content = append(content, '\n')
	}

	return &Result{
		Code:      js.Bytes(),
		Lang:      module.LangJS,
		SideAsset: &module.Asset{Kind: "css", Content: content},
	}, nil
}

// cssSpecifier maps a stylesheet URL to a module specifier. Plain names are
// relative in CSS; a leading "~" selects a package; "@" keeps alias and
// scoped package specifiers as they are.
func cssSpecifier(s string) string {
	switch {
	case strings.HasPrefix(s, "~"):
		return s[1:]
	case strings.HasPrefix(s, "./"), strings.HasPrefix(s, "../"), strings.HasPrefix(s, "/"), strings.HasPrefix(s, "@"):
		return s
	}
	return "./" + s
}
