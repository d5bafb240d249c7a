package output

import (
	"encoding/json"
	"fmt"
	"io"

	"sigs.k8s.io/yaml"
)

// WriteStructured encodes v as YAML or JSON. Field names follow json tags
// for both formats.
func WriteStructured(w io.Writer, v any, format Format) error {
	switch format {
	case FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(v)
	case FormatYAML:
		data, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Errorf("encoding YAML: %w", err)
		}
		_, err = w.Write(data)
		return err
	case FormatText:
		return fmt.Errorf("format %s not supported for structured output", format)
	}
	return fmt.Errorf("unknown format %q", format)
}
