package plugin

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tribunales-evau/bundler/internal/build/module"
	"github.com/tribunales-evau/bundler/internal/build/scan"
)

// VueName is the registry name of the single-file component plugin.
const VueName = "vue"

// sfcVar holds the component options object inside a transformed SFC.
const sfcVar = "__sfc__"

// Vue splits .vue single-file components into plain modules.
//
// The <script> block becomes the module code and its default export the
// component options. The <template> block is attached as the "template"
// option string for the runtime compiler. Each <style> block is injected as
// a virtual module imported by the component. Template and style contents
// pass through untouched.
type Vue struct{}

// NewVue is the registry factory for Vue. It takes no options.
func NewVue(opts Options) (Plugin, error) {
	var cfg struct{}
	if err := opts.Decode(&cfg); err != nil {
		return nil, err
	}
	return &Vue{}, nil
}

func (v *Vue) Name() string { return VueName }

func (v *Vue) Match(meta Meta) bool { return meta.Lang == module.LangVue }

func (v *Vue) Transform(_ context.Context, code []byte, meta Meta) (*Result, error) {
	blocks, err := parseSFC(code)
	if err != nil {
		return nil, err
	}

	var script, template *sfcBlock
	var styles []sfcBlock
	for i := range blocks {
		b := &blocks[i]
		if _, ok := b.attrs["src"]; ok {
			return nil, fmt.Errorf("line %d: <%s src> is not supported", b.line, b.tag)
		}
		switch b.tag {
		case "script":
			if _, ok := b.attrs["setup"]; ok {
				return nil, fmt.Errorf("line %d: <script setup> needs the Vue compiler; run it through the exec plugin", b.line)
			}
			if script != nil {
				return nil, fmt.Errorf("line %d: more than one <script> block", b.line)
			}
			script = b
		case "template":
			if template != nil {
				return nil, fmt.Errorf("line %d: more than one <template> block", b.line)
			}
			template = b
		case "style":
			styles = append(styles, *b)
		}
	}

	res := &Result{Lang: module.LangJS}
	var out bytes.Buffer

	for i, st := range styles {
		lang := module.LangCSS
		if l := st.attrs["lang"]; l != "" {
			lang = module.Lang(l)
		}
		id := fmt.Sprintf("%s%s?vue&type=style&index=%d", module.VirtualPrefix, meta.ID, i)
		res.Inject = append(res.Inject, VirtualModule{ID: id, Lang: lang, Code: st.content})
		fmt.Fprintf(&out, "import %s;\n", scan.Quote(id))
	}

	if script != nil {
		if script.attrs["lang"] == "ts" {
			res.Lang = module.LangTS
		}
		body, err := rewriteDefaultExport(meta.Path, res.Lang, script)
		if err != nil {
			return nil, err
		}
		out.Write(body)
		if !bytes.HasSuffix(body, []byte("\n")) {
			out.WriteByte('\n')
		}
	} else {
		fmt.Fprintf(&out, "const %s = {};\n", sfcVar)
	}

	if template != nil {
		fmt.Fprintf(&out, "%s.template = %s;\n", sfcVar, scan.Quote(string(template.content)))
	}
	fmt.Fprintf(&out, "export default %s;\n", sfcVar)

	res.Code = out.Bytes()
	return res, nil
}

// rewriteDefaultExport binds the script's default export to sfcVar.
func rewriteDefaultExport(path string, lang module.Lang, script *sfcBlock) ([]byte, error) {
	e, err := scan.DefaultExport(path, lang, script.content)
	if err != nil {
		var pe *module.ParseError
		if errors.As(err, &pe) {
			pe.Line += script.line - 1
		}
		return nil, err
	}

	content := script.content
	var out bytes.Buffer
	switch {
	case e == nil:
		out.Write(content)
		fmt.Fprintf(&out, "\nconst %s = {};\n", sfcVar)
	case e.Kind == module.ExportDefault:
		out.Write(content[:e.Keyword.Start])
		fmt.Fprintf(&out, "const %s =", sfcVar)
		out.Write(content[e.Keyword.End:])
	default:
		// export { options as default }: the binding is read once the whole
		// script has run, so it may be declared after the list.
		local := ""
		var rest []string
		for _, b := range e.Bindings {
			if b.Imported == "default" {
				local = b.Local
				continue
			}
			rest = append(rest, exportSpecifier(b))
		}
		out.Write(content[:e.Keyword.Start])
		if len(rest) > 0 {
			fmt.Fprintf(&out, "export { %s };", strings.Join(rest, ", "))
		}
		out.Write(content[e.Keyword.End:])
		fmt.Fprintf(&out, "\nconst %s = %s;\n", sfcVar, local)
	}
	return out.Bytes(), nil
}

func exportSpecifier(b module.Binding) string {
	if b.Local == b.Imported {
		return b.Local
	}
	name := b.Imported
	if !isIdentName(name) {
		name = scan.Quote(name)
	}
	return b.Local + " as " + name
}

func isIdentName(s string) bool {
	for i, c := range s {
		switch {
		case c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z'):
		case i > 0 && c >= '0' && c <= '9':
		default:
			return false
		}
	}
	return s != ""
}

// sfcBlock is a top-level block of a single-file component.
type sfcBlock struct {
	tag     string
	attrs   map[string]string
	content []byte
	line    int // line of the first content byte
}

// parseSFC returns the top-level blocks of src in order. Nested <template>
// elements inside the template block are balanced; custom blocks are
// returned under their own tag name.
func parseSFC(src []byte) ([]sfcBlock, error) {
	var blocks []sfcBlock
	i := 0
	for i < len(src) {
		lt := bytes.IndexByte(src[i:], '<')
		if lt < 0 {
			break
		}
		i += lt

		if bytes.HasPrefix(src[i:], []byte("<!--")) {
			end := bytes.Index(src[i:], []byte("-->"))
			if end < 0 {
				return nil, fmt.Errorf("line %d: unterminated comment", lineAt(src, i))
			}
			i += end + 3
			continue
		}

		tag, attrs, openEnd, selfClosing, err := parseOpenTag(src, i)
		if err != nil {
			return nil, err
		}
		if tag == "" {
			i++
			continue
		}

		if selfClosing {
			blocks = append(blocks, sfcBlock{tag: tag, attrs: attrs, line: lineAt(src, openEnd)})
			i = openEnd
			continue
		}

		closeStart, closeEnd := findClose(src, openEnd, tag)
		if closeStart < 0 {
			return nil, fmt.Errorf("line %d: <%s> is never closed", lineAt(src, i), tag)
		}
		blocks = append(blocks, sfcBlock{
			tag:     tag,
			attrs:   attrs,
			content: src[openEnd:closeStart],
			line:    lineAt(src, openEnd),
		})
		i = closeEnd
	}
	return blocks, nil
}

// parseOpenTag parses "<tag attr=...>" at i. tag is empty when i does not
// start an opening tag.
func parseOpenTag(src []byte, i int) (tag string, attrs map[string]string, end int, selfClosing bool, err error) {
	j := i + 1
	for j < len(src) && isTagChar(src[j]) {
		j++
	}
	if j == i+1 {
		return "", nil, 0, false, nil
	}
	tag = strings.ToLower(string(src[i+1 : j]))
	attrs = map[string]string{}

	for {
		for j < len(src) && isSpace(src[j]) {
			j++
		}
		if j >= len(src) {
			return "", nil, 0, false, fmt.Errorf("line %d: unterminated <%s> tag", lineAt(src, i), tag)
		}
		switch {
		case src[j] == '>':
			return tag, attrs, j + 1, false, nil
		case src[j] == '/' && j+1 < len(src) && src[j+1] == '>':
			return tag, attrs, j + 2, true, nil
		}

		nameStart := j
		for j < len(src) && !isSpace(src[j]) && src[j] != '=' && src[j] != '>' && src[j] != '/' {
			j++
		}
		name := strings.ToLower(string(src[nameStart:j]))
		if name == "" {
			j++
			continue
		}

		value := ""
		if j < len(src) && src[j] == '=' {
			j++
			if j < len(src) && (src[j] == '"' || src[j] == '\'') {
				q := src[j]
				end := bytes.IndexByte(src[j+1:], q)
				if end < 0 {
					return "", nil, 0, false, fmt.Errorf("line %d: unterminated attribute value", lineAt(src, j))
				}
				value = string(src[j+1 : j+1+end])
				j += end + 2
			} else {
				start := j
				for j < len(src) && !isSpace(src[j]) && src[j] != '>' {
					j++
				}
				value = string(src[start:j])
			}
		}
		attrs[name] = value
	}
}

// findClose finds the closing tag matching an element opened before from.
// Same-name elements opened in between are balanced.
func findClose(src []byte, from int, tag string) (int, int) {
	open := []byte("<" + tag)
	closing := []byte("</" + tag)
	lower := bytes.ToLower(src)
	depth := 0

	for i := from; i < len(src); {
		next := bytes.IndexByte(lower[i:], '<')
		if next < 0 {
			return -1, -1
		}
		i += next

		switch {
		case bytes.HasPrefix(lower[i:], closing) && tagBoundary(lower, i+len(closing)):
			if depth == 0 {
				end := bytes.IndexByte(src[i:], '>')
				if end < 0 {
					return -1, -1
				}
				return i, i + end + 1
			}
			depth--
		case tag == "template" && bytes.HasPrefix(lower[i:], open) && tagBoundary(lower, i+len(open)):
			depth++
		}
		i++
	}
	return -1, -1
}

func tagBoundary(src []byte, i int) bool {
	return i >= len(src) || isSpace(src[i]) || src[i] == '>' || src[i] == '/'
}

func isTagChar(c byte) bool {
	return c == '-' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}

func lineAt(src []byte, off int) int {
	return bytes.Count(src[:off], []byte("\n")) + 1
}
