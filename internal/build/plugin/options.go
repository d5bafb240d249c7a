package plugin

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// Options are the raw options of a configured plugin. Keys arrive
// lowercased from the config loader and are matched case-insensitively.
type Options map[string]any

// Decode decodes o into out, a pointer to a struct with mapstructure tags.
// Unknown keys are an error so typos do not go unnoticed.
func (o Options) Decode(out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(map[string]any(o)); err != nil {
		return fmt.Errorf("decoding options: %w", err)
	}
	return nil
}
