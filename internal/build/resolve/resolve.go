// Package resolve maps import specifiers to files using node-style lookup.
package resolve

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/afero"
	"golang.org/x/sync/singleflight"

	"github.com/tribunales-evau/bundler/internal/build/alias"
	"github.com/tribunales-evau/bundler/internal/build/module"
	"github.com/tribunales-evau/bundler/internal/output"
)

// Resolver turns (importer, specifier) pairs into absolute file paths.
//
// Lookup order: alias rules, then relative or absolute paths, then bare
// specifiers through node_modules directories walking up from the importer.
// Each candidate is tried as a file, with each configured extension, and as
// a directory (package.json "module" or "main", then index files).
//
// Results are cached per (directory, specifier) for the lifetime of the
// Resolver; concurrent identical lookups share one filesystem lookup.
type Resolver struct {
	fs         afero.Fs
	root       string
	aliases    *alias.Resolver
	extensions []string

	group singleflight.Group
	mu    sync.RWMutex
	cache map[string]string
}

// New creates a Resolver reading from fs. Entry points resolve against root.
func New(fs afero.Fs, root string, aliases *alias.Resolver, extensions []string) *Resolver {
	if aliases == nil {
		aliases = alias.New(root, nil)
	}
	return &Resolver{
		fs:         fs,
		root:       root,
		aliases:    aliases,
		extensions: extensions,
		cache:      make(map[string]string),
	}
}

// Resolve returns the absolute path importer's specifier refers to.
// An empty importer resolves against the project root. Failures are
// *module.NotFoundError.
func (r *Resolver) Resolve(importer, specifier string) (string, error) {
	dir := r.root
	if importer != "" {
		dir = filepath.Dir(importer)
	}
	key := dir + "\x00" + specifier

	r.mu.RLock()
	path, ok := r.cache[key]
	r.mu.RUnlock()
	if ok {
		return path, nil
	}

	v, err, _ := r.group.Do(key, func() (any, error) {
		return r.lookup(dir, specifier)
	})
	if err != nil {
		return "", &module.NotFoundError{Importer: importer, Specifier: specifier, Cause: err}
	}

	path = v.(string)
	r.mu.Lock()
	r.cache[key] = path
	r.mu.Unlock()
	return path, nil
}

func (r *Resolver) lookup(dir, specifier string) (string, error) {
	if specifier == "" {
		return "", fmt.Errorf("empty specifier")
	}

	if aliased, ok := r.aliases.Resolve(specifier); ok {
		output.Debug("alias applied", "specifier", specifier, "path", aliased)
		return r.loadPath(aliased)
	}

	if isPathLike(specifier) {
		p := filepath.FromSlash(specifier)
		if !filepath.IsAbs(p) {
			p = filepath.Join(dir, p)
		}
		return r.loadPath(p)
	}

	for d := dir; ; d = filepath.Dir(d) {
		if filepath.Base(d) != "node_modules" {
			candidate := filepath.Join(d, "node_modules", filepath.FromSlash(specifier))
			if p, err := r.loadPath(candidate); err == nil {
				return p, nil
			}
		}
		if parent := filepath.Dir(d); parent == d {
			break
		}
	}
	return "", fmt.Errorf("no node_modules entry for %q above %s", specifier, dir)
}

// loadPath tries p as a file, with extensions, then as a directory.
func (r *Resolver) loadPath(p string) (string, error) {
	if found, ok := r.loadFile(p); ok {
		return found, nil
	}
	if found, ok, err := r.loadDir(p); err != nil {
		return "", err
	} else if ok {
		return found, nil
	}
	return "", fmt.Errorf("%s: %w", p, os.ErrNotExist)
}

func (r *Resolver) loadFile(p string) (string, bool) {
	if r.isFile(p) {
		return p, true
	}
	for _, ext := range r.extensions {
		if r.isFile(p + ext) {
			return p + ext, true
		}
	}
	return "", false
}

func (r *Resolver) loadDir(p string) (string, bool, error) {
	if !r.isDir(p) {
		return "", false, nil
	}

	pkgPath := filepath.Join(p, "package.json")
	if r.isFile(pkgPath) {
		data, err := afero.ReadFile(r.fs, pkgPath)
		if err != nil {
			return "", false, fmt.Errorf("reading %s: %w", pkgPath, err)
		}
		var pkg struct {
			Module string `json:"module"`
			Main   string `json:"main"`
		}
		if err := json.Unmarshal(data, &pkg); err != nil {
			return "", false, fmt.Errorf("parsing %s: %w", pkgPath, err)
		}
		for _, field := range []string{pkg.Module, pkg.Main} {
			if field == "" {
				continue
			}
			target := filepath.Join(p, filepath.FromSlash(field))
			if found, ok := r.loadFile(target); ok {
				return found, true, nil
			}
			if found, ok := r.loadIndex(target); ok {
				return found, true, nil
			}
		}
	}

	found, ok := r.loadIndex(p)
	return found, ok, nil
}

func (r *Resolver) loadIndex(dir string) (string, bool) {
	for _, ext := range r.extensions {
		p := filepath.Join(dir, "index"+ext)
		if r.isFile(p) {
			return p, true
		}
	}
	return "", false
}

func (r *Resolver) isFile(p string) bool {
	st, err := r.fs.Stat(p)
	return err == nil && !st.IsDir()
}

func (r *Resolver) isDir(p string) bool {
	st, err := r.fs.Stat(p)
	return err == nil && st.IsDir()
}

func isPathLike(specifier string) bool {
	return specifier == "." || specifier == ".." ||
		strings.HasPrefix(specifier, "./") ||
		strings.HasPrefix(specifier, "../") ||
		strings.HasPrefix(specifier, "/")
}
