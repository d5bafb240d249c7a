package templates

import (
	"fmt"
	"strings"
	"unicode"
)

// ValidateProjectName checks that name can be used as a project and
// directory name: letters, digits, '-', '_' and '.', starting with a letter.
func ValidateProjectName(name string) error {
	if name == "" {
		return fmt.Errorf("project name cannot be empty")
	}

	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' && r != '_' && r != '.' {
			return fmt.Errorf("invalid project name %q: contains invalid character %q", name, r)
		}
	}

	if !unicode.IsLetter(rune(name[0])) {
		return fmt.Errorf("invalid project name %q: must start with a letter", name)
	}
	return nil
}

// ComponentName converts a project name to a PascalCase component name.
// "admin-panel" becomes "AdminPanel".
func ComponentName(name string) string {
	var b strings.Builder
	upper := true
	for _, r := range name {
		switch {
		case r == '-' || r == '_' || r == '.':
			upper = true
		case upper:
			b.WriteRune(unicode.ToUpper(r))
			upper = false
		default:
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "App"
	}
	return b.String()
}
