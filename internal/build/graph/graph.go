// Package graph builds the module graph reachable from a set of entry
// points.
package graph

import (
	"github.com/tribunales-evau/bundler/internal/build/module"
)

// Entry is an entry point with its resolved module ID.
type Entry struct {
	module.EntryPoint
	ID string
}

// Graph is the complete set of modules reachable from the entries.
// It is not modified after Build returns.
type Graph struct {
	// Root is the project root module IDs are made relative to.
	Root string

	// Entries are sorted by name.
	Entries []Entry

	// Modules maps module ID to module.
	Modules map[string]*module.Module

	// Order lists every module once, in first-discovered order: a
	// depth-first walk from the entries in name order, following
	// dependencies in source order.
	Order []string
}

// Module returns the module with the given ID, or nil.
func (g *Graph) Module(id string) *module.Module {
	return g.Modules[id]
}

// Entry returns the entry with the given name.
func (g *Graph) Entry(name string) (Entry, bool) {
	for _, e := range g.Entries {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

// Reachable returns the IDs reachable from id in depth-first pre-order.
func (g *Graph) Reachable(id string) []string {
	var order []string
	seen := make(map[string]bool)
	g.walk(id, seen, &order)
	return order
}

func (g *Graph) walk(id string, seen map[string]bool, order *[]string) {
	if seen[id] {
		return
	}
	seen[id] = true
	*order = append(*order, id)

	m := g.Modules[id]
	if m == nil {
		return
	}
	for _, dep := range m.Deps {
		g.walk(dep.ID, seen, order)
	}
}

// RelID returns id relative to the graph root.
func (g *Graph) RelID(id string) string {
	return module.RelID(g.Root, id)
}

func (g *Graph) computeOrder() {
	seen := make(map[string]bool, len(g.Modules))
	order := make([]string, 0, len(g.Modules))
	for _, e := range g.Entries {
		g.walk(e.ID, seen, &order)
	}
	g.Order = order
}
