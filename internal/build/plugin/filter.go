package plugin

import (
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
)

// filtered narrows a plugin to module IDs matching include and not
// matching exclude.
type filtered struct {
	Plugin
	include []string
	exclude []string
}

// WithFilter wraps p so it only applies to modules whose project-relative
// ID matches one of include (all when empty) and none of exclude.
func WithFilter(p Plugin, include, exclude []string) (Plugin, error) {
	if len(include) == 0 && len(exclude) == 0 {
		return p, nil
	}
	for _, pattern := range append(append([]string{}, include...), exclude...) {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("plugin %q: invalid glob %q", p.Name(), pattern)
		}
	}
	return &filtered{Plugin: p, include: include, exclude: exclude}, nil
}

func (f *filtered) Match(meta Meta) bool {
	if len(f.include) > 0 && !matchAny(f.include, meta.ID) {
		return false
	}
	if matchAny(f.exclude, meta.ID) {
		return false
	}
	return f.Plugin.Match(meta)
}

func matchAny(patterns []string, name string) bool {
	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(pattern, name); ok {
			return true
		}
	}
	return false
}
