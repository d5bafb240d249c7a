package plugin

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tribunales-evau/bundler/internal/build/module"
	oerrors "github.com/tribunales-evau/bundler/internal/errors"
)

// stubPlugin records calls and applies fn.
type stubPlugin struct {
	name  string
	lang  module.Lang
	fn    func(code []byte, meta Meta) (*Result, error)
	calls []string
}

func (s *stubPlugin) Name() string         { return s.name }
func (s *stubPlugin) Match(meta Meta) bool { return s.lang == "" || meta.Lang == s.lang }
func (s *stubPlugin) Transform(_ context.Context, code []byte, meta Meta) (*Result, error) {
	s.calls = append(s.calls, meta.ID+":"+string(meta.Lang))
	return s.fn(code, meta)
}

func TestPipeline_Apply(t *testing.T) {
	upper := &stubPlugin{name: "upper", lang: module.LangVue, fn: func(code []byte, _ Meta) (*Result, error) {
		return &Result{Code: []byte(strings.ToUpper(string(code))), Lang: module.LangJS}, nil
	}}
	cssOnly := &stubPlugin{name: "css-only", lang: module.LangCSS, fn: func([]byte, Meta) (*Result, error) {
		return nil, errors.New("must not run")
	}}
	suffix := &stubPlugin{name: "suffix", lang: module.LangJS, fn: func(code []byte, _ Meta) (*Result, error) {
		return &Result{
			Code:      append(code, []byte(";")...),
			SideAsset: &module.Asset{Kind: "css", Content: []byte("a{}")},
			Inject:    []VirtualModule{{ID: "virtual:x", Lang: module.LangCSS}},
		}, nil
	}}
	noop := &stubPlugin{name: "noop", fn: func([]byte, Meta) (*Result, error) { return nil, nil }}

	p := NewPipeline(upper, cssOnly, suffix, noop)
	assert.Equal(t, []string{"upper", "css-only", "suffix", "noop"}, p.Names())

	out, err := p.Apply(context.Background(), Meta{Path: "/p/App.vue", ID: "App.vue", Lang: module.LangVue}, []byte("abc"))
	require.NoError(t, err)

	assert.Equal(t, "ABC;", string(out.Code))
	assert.Equal(t, module.LangJS, out.Lang)
	assert.Len(t, out.Assets, 1)
	assert.Len(t, out.Inject, 1)

	assert.Equal(t, []string{"App.vue:vue"}, upper.calls)
	assert.Empty(t, cssOnly.calls)
	assert.Equal(t, []string{"App.vue:js"}, suffix.calls, "later stages see the new language")
	assert.Equal(t, []string{"App.vue:js"}, noop.calls)
}

func TestPipeline_Error(t *testing.T) {
	cause := errors.New("compiler exploded")
	failing := &stubPlugin{name: "boom", fn: func([]byte, Meta) (*Result, error) { return nil, cause }}
	after := &stubPlugin{name: "after", fn: func([]byte, Meta) (*Result, error) { return nil, nil }}

	_, err := NewPipeline(failing, after).Apply(context.Background(), Meta{Path: "/p/a.js", ID: "a.js", Lang: module.LangJS}, nil)
	require.Error(t, err)

	var te *module.TransformError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "/p/a.js", te.File)
	assert.Equal(t, "boom", te.Plugin)
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, oerrors.ErrTransform)
	assert.Empty(t, after.calls)
}

func TestPipeline_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	stage := &stubPlugin{name: "s", fn: func([]byte, Meta) (*Result, error) { return nil, nil }}

	_, err := NewPipeline(stage).Apply(ctx, Meta{Lang: module.LangJS}, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, stage.calls)
}

func TestWithFilter(t *testing.T) {
	base := &stubPlugin{name: "s", fn: func([]byte, Meta) (*Result, error) { return nil, nil }}

	p, err := WithFilter(base, []string{"src/**/*.js"}, []string{"src/vendor/**"})
	require.NoError(t, err)

	assert.True(t, p.Match(Meta{ID: "src/main.js"}))
	assert.True(t, p.Match(Meta{ID: "src/a/b/c.js"}))
	assert.False(t, p.Match(Meta{ID: "src/vendor/lib.js"}))
	assert.False(t, p.Match(Meta{ID: "lib/other.js"}))

	same, err := WithFilter(base, nil, nil)
	require.NoError(t, err)
	assert.Same(t, base, same)

	_, err = WithFilter(base, []string{"src/[unclosed"}, nil)
	assert.Error(t, err)
}

func TestPipeline_FinalizersUnwrapFilter(t *testing.T) {
	inject, err := NewCSSInject(nil)
	require.NoError(t, err)
	filteredInject, err := WithFilter(inject, []string{"**/*.css"}, nil)
	require.NoError(t, err)

	p := NewPipeline(&Vue{}, filteredInject)
	fins := p.Finalizers()
	require.Len(t, fins, 1)
	assert.Same(t, inject, fins[0])
}

func TestPipeline_InjectNeedsVirtualPrefix(t *testing.T) {
	bad := &stubPlugin{name: "bad", fn: func([]byte, Meta) (*Result, error) {
		return &Result{Inject: []VirtualModule{{ID: "/p/real.css", Lang: module.LangCSS}}}, nil
	}}
	_, err := NewPipeline(bad).Apply(context.Background(), Meta{Path: "/p/a.js", Lang: module.LangJS}, nil)

	var te *module.TransformError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "bad", te.Plugin)
}
