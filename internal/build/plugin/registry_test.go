package plugin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tribunales-evau/bundler/internal/config"
	oerrors "github.com/tribunales-evau/bundler/internal/errors"
)

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, []string{"css", "css-injected-by-js", "define", "exec", "json", "vue"}, r.Names())

	// Each call returns an independent registry.
	require.NoError(t, r.Register("custom", func(Options) (Plugin, error) { return &Vue{}, nil }))
	assert.NotContains(t, NewRegistry().Names(), "custom")

	assert.Error(t, r.Register("vue", NewVue))
	assert.Error(t, r.Register("", NewVue))
}

func TestRegistry_Pipeline(t *testing.T) {
	r := NewRegistry()

	p, err := r.Pipeline([]config.PluginRef{
		{Name: "vue"},
		{Name: "define", Include: []string{"src/**"}, Options: map[string]any{
			"replacements": []any{map[string]any{"from": "__DEV__", "to": "false"}},
		}},
		{Name: "css"},
		{Name: "css-injected-by-js"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"vue", "define", "css", "css-injected-by-js"}, p.Names())
	assert.Len(t, p.Finalizers(), 1)
}

func TestRegistry_PipelineErrors(t *testing.T) {
	tests := []struct {
		name string
		refs []config.PluginRef
		msg  string
	}{
		{name: "unknown plugin", refs: []config.PluginRef{{Name: "sass"}}, msg: `unknown plugin "sass"`},
		{name: "unknown option", refs: []config.PluginRef{{Name: "vue", Options: map[string]any{"compiler": "x"}}}, msg: "compiler"},
		{name: "exec without command", refs: []config.PluginRef{{Name: "exec", Options: map[string]any{"lang": "ts"}}}, msg: "command"},
		{name: "bad glob", refs: []config.PluginRef{{Name: "css", Exclude: []string{"[x"}}}, msg: "invalid glob"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry().Pipeline(tt.refs)
			require.Error(t, err)
			assert.ErrorIs(t, err, oerrors.ErrValidation)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}
