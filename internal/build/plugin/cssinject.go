package plugin

import (
	"bytes"
	"context"
	"fmt"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/tribunales-evau/bundler/internal/build/scan"
)

// CSSInjectName is the registry name of the style injection plugin.
const CSSInjectName = "css-injected-by-js"

// CSSInject moves a chunk's stylesheet into its script, which adds a
// <style> element when it runs. No separate .css artifact is written for
// affected chunks.
type CSSInject struct {
	chunks  []string
	styleID string
}

// NewCSSInject is the registry factory for CSSInject.
//
//	options:
//	  chunks: ["main", "admin-*"]  # default: every chunk
//	  styleId: app-styles          # id attribute of the <style> element
func NewCSSInject(opts Options) (Plugin, error) {
	var cfg struct {
		Chunks  []string `mapstructure:"chunks"`
		StyleID string   `mapstructure:"styleId"`
	}
	if err := opts.Decode(&cfg); err != nil {
		return nil, err
	}
	for _, p := range cfg.Chunks {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid chunk glob %q", p)
		}
	}
	return &CSSInject{chunks: cfg.Chunks, styleID: cfg.StyleID}, nil
}

func (c *CSSInject) Name() string { return CSSInjectName }

// Match is always false: the plugin only acts on whole chunks.
func (c *CSSInject) Match(Meta) bool { return false }

func (c *CSSInject) Transform(context.Context, []byte, Meta) (*Result, error) {
	return nil, nil
}

// FinalizeChunk prepends the style injection to chunk.JS and clears
// chunk.CSS.
func (c *CSSInject) FinalizeChunk(_ context.Context, chunk *Chunk) error {
	if len(bytes.TrimSpace(chunk.CSS)) == 0 {
		return nil
	}
	if len(c.chunks) > 0 && !matchAny(c.chunks, chunk.Name) {
		return nil
	}

	var b bytes.Buffer
	b.WriteString("(function () {\n")
	b.WriteString("  try {\n")
	b.WriteString("    var style = document.createElement(\"style\");\n")
	if c.styleID != "" {
		fmt.Fprintf(&b, "    style.id = %s;\n", scan.Quote(c.styleID))
	}
	fmt.Fprintf(&b, "    style.setAttribute(\"data-chunk\", %s);\n", scan.Quote(chunk.Name))
	fmt.Fprintf(&b, "    style.appendChild(document.createTextNode(%s));\n", scan.Quote(string(chunk.CSS)))
	b.WriteString("    document.head.appendChild(style);\n")
	b.WriteString("  } catch (e) {\n")
	b.WriteString("    console.error(\"css-injected-by-js\", e);\n")
	b.WriteString("  }\n")
	b.WriteString("})();\n")
	b.Write(chunk.JS)

	chunk.JS = b.Bytes()
	chunk.CSS = nil
	return nil
}
