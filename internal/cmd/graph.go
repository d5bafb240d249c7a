package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/tribunales-evau/bundler/internal/build"
	"github.com/tribunales-evau/bundler/internal/build/graph"
	oerrors "github.com/tribunales-evau/bundler/internal/errors"
	"github.com/tribunales-evau/bundler/internal/output"
)

// NewGraphCmd creates the graph command.
func NewGraphCmd(g *GlobalConfig) *cobra.Command {
	var (
		entryFlag  string
		formatFlag string
	)

	c := &cobra.Command{
		Use:   "graph",
		Short: "Show the module graph",
		Long: `Load and transform the module graph without writing anything, then
print it.

The text format draws one tree per entry point; a module already shown
is listed again without its dependencies. The yaml and json formats list
every module once, in discovery order.

Examples:
  # Tree of every entry point
  bundler graph

  # Only the admin entry point
  bundler graph --entry admin

  # Machine-readable
  bundler graph -o json`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			return runGraph(c.Context(), c.OutOrStdout(), g, entryFlag, formatFlag)
		},
	}

	c.Flags().StringVar(&entryFlag, "entry", "", "only show this entry point")
	c.Flags().StringVarP(&formatFlag, "output", "o", "text", "output format: text, yaml, json")
	return c
}

func runGraph(ctx context.Context, w io.Writer, g *GlobalConfig, entry, format string) error {
	outputFormat, ok := output.ParseFormat(format)
	if !ok {
		return &oerrors.ExitError{
			Code: oerrors.ExitGeneralError,
			Err:  fmt.Errorf("invalid output format %q (valid: %v)", format, output.ValidFormats()),
		}
	}

	cfg, err := g.RequireConfig()
	if err != nil {
		return exitError(err, false)
	}

	gr, err := build.New(afero.NewOsFs()).Graph(ctx, cfg, nil)
	if err != nil {
		return reportBuildError(err)
	}

	entries := gr.Entries
	if entry != "" {
		e, ok := gr.Entry(entry)
		if !ok {
			return exitError(oerrors.NewNotFoundError(
				fmt.Sprintf("entry point %q is not configured", entry), "entryPoints",
				fmt.Sprintf("configured entry points: %v", cfg.EntryNames())), false)
		}
		entries = []graph.Entry{e}
	}

	if outputFormat == output.FormatText {
		for _, e := range entries {
			fmt.Fprint(w, output.RenderTree(entryTree(gr, e)))
		}
		return nil
	}
	return output.WriteStructured(w, describeGraph(gr, entries), outputFormat)
}

// entryTree builds the dependency tree of one entry point. Modules already
// shown elsewhere in the tree are not expanded again.
func entryTree(gr *graph.Graph, e graph.Entry) *output.TreeNode {
	shown := make(map[string]bool)
	var node func(id string) *output.TreeNode
	node = func(id string) *output.TreeNode {
		n := &output.TreeNode{Name: gr.RelID(id)}
		m := gr.Module(id)
		if m == nil {
			return n
		}
		if shown[id] {
			n.Description = "(see above)"
			return n
		}
		shown[id] = true
		n.Description = string(m.Lang)
		for _, dep := range m.Deps {
			n.Children = append(n.Children, node(dep.ID))
		}
		return n
	}

	root := node(e.ID)
	root.Name = e.Name + " → " + root.Name
	return root
}

// graphDoc is the structured form of the graph command output.
type graphDoc struct {
	Root    string      `json:"root"`
	Entries []entryDoc  `json:"entries"`
	Modules []moduleDoc `json:"modules"`
}

type entryDoc struct {
	Name   string `json:"name"`
	Path   string `json:"path"`
	Module string `json:"module"`
}

type moduleDoc struct {
	ID     string   `json:"id"`
	Lang   string   `json:"lang"`
	Deps   []string `json:"deps,omitempty"`
	Assets []string `json:"assets,omitempty"`
}

func describeGraph(gr *graph.Graph, entries []graph.Entry) graphDoc {
	doc := graphDoc{Root: gr.Root}

	include := make(map[string]bool)
	for _, e := range entries {
		doc.Entries = append(doc.Entries, entryDoc{Name: e.Name, Path: e.Path, Module: gr.RelID(e.ID)})
		for _, id := range gr.Reachable(e.ID) {
			include[id] = true
		}
	}

	for _, id := range gr.Order {
		if !include[id] {
			continue
		}
		m := gr.Module(id)
		md := moduleDoc{ID: gr.RelID(id), Lang: string(m.Lang)}
		for _, dep := range m.Deps {
			md.Deps = append(md.Deps, gr.RelID(dep.ID))
		}
		for _, a := range m.Assets {
			md.Assets = append(md.Assets, a.Kind)
		}
		doc.Modules = append(doc.Modules, md)
	}
	return doc
}
