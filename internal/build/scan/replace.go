package scan

import (
	"bytes"
	"sort"
	"strings"

	"github.com/tdewolff/parse/v2/js"
)

// ReplaceDotted substitutes dotted identifier paths such as
// process.env.NODE_ENV with replacement text. Matches inside strings,
// comments and templates, and paths that are themselves property accesses
// (a.process.env) are left alone. Longer paths win over their prefixes.
//
// The code is tokenized without parsing so TypeScript can be rewritten too.
func ReplaceDotted(file string, code []byte, replacements map[string]string) ([]byte, error) {
	if len(replacements) == 0 {
		return code, nil
	}

	keys := make([][]string, 0, len(replacements))
	for k := range replacements {
		keys = append(keys, strings.Split(k, "."))
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return strings.Join(keys[i], ".") < strings.Join(keys[j], ".")
	})

	src := terminated(code)
	toks, err := tokenize(file, src, lexicalRegex(src))
	if err != nil {
		return nil, err
	}

	c := &cursor{file: file, src: src, toks: toks}
	var out bytes.Buffer
	last := 0

	for {
		prev := c.prev
		tok := c.next()
		if tok.tt == js.ErrorToken {
			break
		}
		if !js.IsIdentifierName(tok.tt) || prev.tt == js.DotToken || prev.tt == js.OptChainToken {
			continue
		}

		for _, parts := range keys {
			if parts[0] != c.text(tok) {
				continue
			}
			end, ok := matchPath(c, parts[1:])
			if !ok {
				continue
			}
			out.Write(code[last:tok.start])
			out.WriteString(replacements[strings.Join(parts, ".")])
			last = end
			break
		}
	}

	if last == 0 {
		return code, nil
	}
	out.Write(code[last:])
	return out.Bytes(), nil
}

// matchPath consumes ".a.b" for rest = [a b] and returns the end offset.
// On mismatch the cursor is left untouched.
func matchPath(c *cursor, rest []string) (int, bool) {
	save := c.save()
	end := c.prev.end
	for _, part := range rest {
		if dot := c.next(); dot.tt != js.DotToken {
			c.restore(save)
			return 0, false
		}
		if id := c.next(); !js.IsIdentifierName(id.tt) || c.text(id) != part {
			c.restore(save)
			return 0, false
		}
		end = id.end
	}

	// A longer path continuing with a call or member is still a match:
	// process.env.NODE_ENV.length keeps ".length".
	return end, true
}
