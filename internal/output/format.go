package output

import "strings"

// Format specifies a structured output format.
type Format string

const (
	// FormatText outputs human-readable text.
	FormatText Format = "text"

	// FormatYAML outputs YAML.
	FormatYAML Format = "yaml"

	// FormatJSON outputs JSON.
	FormatJSON Format = "json"
)

// String returns the string representation of the format.
func (f Format) String() string {
	return string(f)
}

// ParseFormat parses a string into a Format. The boolean is false for
// unrecognized input.
func ParseFormat(s string) (Format, bool) {
	switch strings.ToLower(s) {
	case "", "text", "tree":
		return FormatText, true
	case "yaml", "yml":
		return FormatYAML, true
	case "json":
		return FormatJSON, true
	default:
		return "", false
	}
}

// ValidFormats returns the accepted format strings.
func ValidFormats() []string {
	return []string{"text", "yaml", "json"}
}
