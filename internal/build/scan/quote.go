package scan

import (
	"encoding/json"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Quote returns s as a JavaScript string literal. Unlike json.Marshal it
// leaves <, > and & alone, so templates and stylesheets embedded in a
// bundle keep their markup.
func Quote(s string) string {
	var b strings.Builder
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	return strings.TrimSuffix(b.String(), "\n")
}

// unquote decodes a JavaScript string literal, quotes included.
func unquote(raw []byte) string {
	body := string(raw[1 : len(raw)-1])
	if !strings.Contains(body, `\`) {
		return body
	}

	var sb strings.Builder
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' || i+1 >= len(body) {
			sb.WriteByte(c)
			continue
		}
		i++
		switch body[i] {
		case 'n':
			sb.WriteByte('\n')
		case 't':
			sb.WriteByte('\t')
		case 'r':
			sb.WriteByte('\r')
		case '0':
			sb.WriteByte(0)
		case '\n':
			// line continuation
		case 'u':
			if i+4 < len(body) {
				if r, err := strconv.ParseUint(body[i+1:i+5], 16, 32); err == nil {
					sb.WriteRune(rune(r))
					i += 4
					continue
				}
			}
			sb.WriteByte('u')
		case 'x':
			if i+2 < len(body) {
				if r, err := strconv.ParseUint(body[i+1:i+3], 16, 8); err == nil {
					sb.WriteRune(rune(r))
					i += 2
					continue
				}
			}
			sb.WriteByte('x')
		default:
			sb.WriteByte(body[i])
		}
	}
	if !utf8.ValidString(sb.String()) {
		return body
	}
	return sb.String()
}
