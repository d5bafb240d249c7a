// Package alias rewrites import specifiers according to configured prefix
// rules.
package alias

import (
	"path/filepath"
	"strings"

	"github.com/tribunales-evau/bundler/internal/config"
)

// rule is an AliasRule with its target made absolute.
type rule struct {
	prefix string
	target string
}

// Resolver applies alias rules in configured order. The first matching rule
// wins. A Resolver is immutable and safe for concurrent use.
type Resolver struct {
	rules []rule
}

// New creates a Resolver. Relative targets are made absolute against root.
func New(root string, rules []config.AliasRule) *Resolver {
	r := &Resolver{rules: make([]rule, 0, len(rules))}
	for _, a := range rules {
		target := a.Target
		if !filepath.IsAbs(target) {
			target = filepath.Join(root, target)
		}
		r.rules = append(r.rules, rule{prefix: a.Prefix, target: filepath.Clean(target)})
	}
	return r
}

// Resolve returns the aliased absolute path for specifier and true, or the
// specifier unchanged and false when no rule matches.
//
// A rule matches when the specifier equals its prefix or continues it with
// "/". A prefix that itself ends in "/" matches as a plain string prefix.
func (r *Resolver) Resolve(specifier string) (string, bool) {
	for _, a := range r.rules {
		rest, ok := match(a.prefix, specifier)
		if !ok {
			continue
		}
		if rest == "" {
			return a.target, true
		}
		return filepath.Join(a.target, filepath.FromSlash(rest)), true
	}
	return specifier, false
}

// Len returns the number of configured rules.
func (r *Resolver) Len() int {
	return len(r.rules)
}

func match(prefix, specifier string) (string, bool) {
	if prefix == "" {
		return "", false
	}
	if strings.HasSuffix(prefix, "/") {
		if strings.HasPrefix(specifier, prefix) {
			return specifier[len(prefix):], true
		}
		return "", false
	}
	if specifier == prefix {
		return "", true
	}
	if strings.HasPrefix(specifier, prefix+"/") {
		return specifier[len(prefix)+1:], true
	}
	return "", false
}
