package build

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tribunales-evau/bundler/internal/build/emit"
	"github.com/tribunales-evau/bundler/internal/build/module"
	"github.com/tribunales-evau/bundler/internal/config"
	oerrors "github.com/tribunales-evau/bundler/internal/errors"
)

func project(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for p, c := range files {
		require.NoError(t, afero.WriteFile(fs, p, []byte(c), 0o644))
	}
	return fs
}

func baseConfig() *config.Config {
	return &config.Config{
		Root:           "/p",
		EntryPoints:    map[string]string{"main": "src/main.js"},
		OutDir:         "dist",
		NamingTemplate: "{name}.{ext}",
		Concurrency:    4,
	}
}

func read(t *testing.T, fs afero.Fs, path string) string {
	t.Helper()
	b, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	return string(b)
}

func assertNothingWritten(t *testing.T, fs afero.Fs) {
	t.Helper()
	exists, err := afero.DirExists(fs, "/p/dist")
	require.NoError(t, err)
	assert.False(t, exists, "output directory must not be created")
}

func TestRun_WritesChunksAndManifest(t *testing.T) {
	fs := project(t, map[string]string{
		"/p/src/main.js":  "import App from './App.vue'\nimport { greet } from '@/util'\ngreet(App)\n",
		"/p/src/util.js":  "export function greet(x) { return x }\n",
		"/p/src/App.vue":  "<template><p>{{ msg }}</p></template>\n<script>\nexport default { name: 'App' }\n</script>\n<style>\np { color: red; }\n</style>\n",
		"/p/src/admin.js": "import { greet } from './util'\n",
	})
	cfg := baseConfig()
	cfg.EntryPoints["admin"] = "src/admin.js"
	cfg.Aliases = []config.AliasRule{{Prefix: "@", Target: "src"}}
	cfg.Plugins = []config.PluginRef{{Name: "vue"}}

	res, err := New(fs).Run(context.Background(), Options{Config: cfg})
	require.NoError(t, err)

	assert.Equal(t, "/p/dist", res.OutDir)
	assert.Equal(t, []string{"admin", "main"}, res.Added)
	require.Len(t, res.Emit.Chunks, 2)

	mainJS := read(t, fs, "/p/dist/main.js")
	assert.Contains(t, mainJS, `"src/util.js": function`)
	assert.Contains(t, mainJS, `"src/App.vue": function`)
	assert.Contains(t, mainJS, `__bundler.interop(__bundler_m0)`)
	assert.Contains(t, read(t, fs, "/p/dist/main.css"), "p { color: red; }")

	adminJS := read(t, fs, "/p/dist/admin.js")
	assert.NotContains(t, adminJS, "App.vue")
	exists, _ := afero.Exists(fs, "/p/dist/admin.css")
	assert.False(t, exists)

	m, err := emit.ReadManifest(fs, "/p/dist")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "main.js", m.Chunks["main"].File)
	assert.Equal(t, "main.css", m.Chunks["main"].CSS)
	assert.Equal(t, []string{"src/util.js", "src/admin.js"}, m.Chunks["admin"].Modules)
}

func TestRun_Deterministic(t *testing.T) {
	files := map[string]string{
		"/p/src/main.js": "import a from './a'\nimport b from './b'\nimport c from './c'\nimport './s.css'\n",
		"/p/src/a.js":    "import b from './b'\nexport default b\n",
		"/p/src/b.js":    "import c from './c'\nexport default c\n",
		"/p/src/c.js":    "export default 'c'\n",
		"/p/src/s.css":   "@import './t.css';\nbody {}\n",
		"/p/src/t.css":   "html {}\n",
	}
	cfg := baseConfig()
	cfg.NamingTemplate = "{name}.{hash}.{ext}"
	cfg.Plugins = []config.PluginRef{{Name: "css"}}

	var want map[string]string
	for i := 0; i < 5; i++ {
		fs := project(t, files)
		_, err := New(fs).Run(context.Background(), Options{Config: cfg})
		require.NoError(t, err)

		got := make(map[string]string)
		entries, err := afero.ReadDir(fs, "/p/dist")
		require.NoError(t, err)
		for _, e := range entries {
			got[e.Name()] = read(t, fs, "/p/dist/"+e.Name())
		}
		if want == nil {
			want = got
			continue
		}
		assert.Equal(t, want, got)
	}
	assert.Len(t, want, 3)
}

func TestRun_AliasPrecedence(t *testing.T) {
	fs := project(t, map[string]string{
		"/p/src/main.js":         "import x from '@/components/x'\n",
		"/p/src/components/x.js": "export default 'src'\n",
		"/p/lib/components/x.js": "export default 'lib'\n",
	})
	cfg := baseConfig()
	cfg.Aliases = []config.AliasRule{
		{Prefix: "@/components", Target: "lib/components"},
		{Prefix: "@", Target: "src"},
	}

	res, err := New(fs).Run(context.Background(), Options{Config: cfg})
	require.NoError(t, err)
	assert.Equal(t, []string{"lib/components/x.js", "src/main.js"}, res.Emit.Chunks[0].Modules)
}

func TestRun_FailuresWriteNothing(t *testing.T) {
	tests := []struct {
		name     string
		files    map[string]string
		plugins  []config.PluginRef
		sentinel error
		target   any
	}{
		{
			name:     "module not found",
			files:    map[string]string{"/p/src/main.js": "import './a'\n", "/p/src/a.js": "import 'missing-pkg'\n"},
			sentinel: oerrors.ErrNotFound,
			target:   new(*module.NotFoundError),
		},
		{
			name:     "parse error",
			files:    map[string]string{"/p/src/main.js": "import './a'\n", "/p/src/a.js": "const s = `open\n"},
			sentinel: oerrors.ErrParse,
			target:   new(*module.ParseError),
		},
		{
			name:     "transform error",
			files:    map[string]string{"/p/src/main.js": "import './data.json'\n", "/p/src/data.json": "{oops"},
			plugins:  []config.PluginRef{{Name: "json"}},
			sentinel: oerrors.ErrTransform,
			target:   new(*module.TransformError),
		},
		{
			name:     "unknown plugin",
			files:    map[string]string{"/p/src/main.js": ""},
			plugins:  []config.PluginRef{{Name: "nope"}},
			sentinel: oerrors.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := project(t, tt.files)
			cfg := baseConfig()
			cfg.Plugins = tt.plugins

			_, err := New(fs).Run(context.Background(), Options{Config: cfg, Clean: true})
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.sentinel), "got %v", err)
			if tt.target != nil {
				assert.True(t, errors.As(err, tt.target))
			}
			assertNothingWritten(t, fs)
		})
	}
}

func TestRun_NotFoundNamesImporter(t *testing.T) {
	fs := project(t, map[string]string{"/p/src/main.js": "import x from './nope'\n"})

	_, err := New(fs).Run(context.Background(), Options{Config: baseConfig()})

	var nf *module.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "/p/src/main.js", nf.Importer)
	assert.Equal(t, "./nope", nf.Specifier)
	assert.Equal(t, module.PhaseResolve, nf.Phase())
}

func TestRun_Clean(t *testing.T) {
	files := map[string]string{
		"/p/src/main.js":   "export default 1\n",
		"/p/dist/stale.js": "old",
	}

	t.Run("keeps stale files by default", func(t *testing.T) {
		fs := project(t, files)
		_, err := New(fs).Run(context.Background(), Options{Config: baseConfig()})
		require.NoError(t, err)
		exists, _ := afero.Exists(fs, "/p/dist/stale.js")
		assert.True(t, exists)
	})

	t.Run("removes stale files", func(t *testing.T) {
		fs := project(t, files)
		_, err := New(fs).Run(context.Background(), Options{Config: baseConfig(), Clean: true})
		require.NoError(t, err)
		exists, _ := afero.Exists(fs, "/p/dist/stale.js")
		assert.False(t, exists)
		exists, _ = afero.Exists(fs, "/p/dist/main.js")
		assert.True(t, exists)
	})

	t.Run("refuses to clean the project", func(t *testing.T) {
		fs := project(t, files)
		cfg := baseConfig()
		cfg.OutDir = "."
		_, err := New(fs).Run(context.Background(), Options{Config: cfg, Clean: true})
		require.Error(t, err)
		assert.True(t, errors.Is(err, oerrors.ErrValidation))
		exists, _ := afero.Exists(fs, "/p/src/main.js")
		assert.True(t, exists)
	})
}

func TestRun_DryRun(t *testing.T) {
	fs := project(t, map[string]string{"/p/src/main.js": "export default 1\n"})

	res, err := New(fs).Run(context.Background(), Options{Config: baseConfig(), DryRun: true, Clean: true})
	require.NoError(t, err)
	require.Len(t, res.Emit.Artifacts, 2)
	assertNothingWritten(t, fs)
}

func TestRun_Overrides(t *testing.T) {
	fs := project(t, map[string]string{"/p/src/main.js": "export default 1\n"})

	res, err := New(fs).Run(context.Background(), Options{
		Config:         baseConfig(),
		OutDir:         "/out",
		NamingTemplate: "js/{name}.bundle.js",
	})
	require.NoError(t, err)
	assert.Equal(t, "/out", res.OutDir)
	exists, _ := afero.Exists(fs, "/out/js/main.bundle.js")
	assert.True(t, exists)
}

func TestRun_ReportsModifiedChunks(t *testing.T) {
	fs := project(t, map[string]string{
		"/p/src/main.js":  "import './a'\n",
		"/p/src/a.js":     "export default 1\n",
		"/p/src/admin.js": "export default 2\n",
	})
	cfg := baseConfig()
	cfg.EntryPoints["admin"] = "src/admin.js"
	o := New(fs)

	_, err := o.Run(context.Background(), Options{Config: cfg})
	require.NoError(t, err)

	require.NoError(t, afero.WriteFile(fs, "/p/src/a.js", []byte("export default 3\n"), 0o644))
	res, err := o.Run(context.Background(), Options{Config: cfg})
	require.NoError(t, err)
	assert.Empty(t, res.Added)
	assert.Empty(t, res.Removed)
	assert.Equal(t, []string{"main"}, res.Modified)
}

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		opts   Options
		want   string
	}{
		{name: "no entries", mutate: func(c *config.Config) { c.EntryPoints = nil }, want: "no entry points"},
		{name: "empty entry path", mutate: func(c *config.Config) { c.EntryPoints["main"] = "" }, want: `entry point "main" has no path`},
		{name: "no root", mutate: func(c *config.Config) { c.Root = "" }, want: "project root"},
		{name: "no out dir", mutate: func(c *config.Config) { c.OutDir = "" }, want: "output directory"},
		{name: "template without name", mutate: func(c *config.Config) { c.NamingTemplate = "bundle.js" }, want: "{name}"},
		{name: "override template without name", opts: Options{NamingTemplate: "x.js"}, want: "{name}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseConfig()
			if tt.mutate != nil {
				tt.mutate(cfg)
			}
			opts := tt.opts
			opts.Config = cfg

			err := opts.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, oerrors.ErrValidation))
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	assert.Error(t, Options{}.Validate())
	assert.NoError(t, Options{Config: baseConfig()}.Validate())
}

func TestEntryPoints_SortedByName(t *testing.T) {
	cfg := &config.Config{EntryPoints: map[string]string{"z": "z.js", "a": "a.js", "m": "m.js"}}
	eps := EntryPoints(cfg)
	names := make([]string, len(eps))
	for i, e := range eps {
		names[i] = e.Name
	}
	assert.Equal(t, "a,m,z", strings.Join(names, ","))
}
