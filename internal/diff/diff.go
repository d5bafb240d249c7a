// Package diff compares build manifests chunk by chunk.
package diff

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/gonvenience/ytbx"
	"github.com/homeport/dyff/pkg/dyff"
	"sigs.k8s.io/yaml"

	"github.com/tribunales-evau/bundler/internal/build/emit"
	"github.com/tribunales-evau/bundler/internal/output"
)

// Result is the difference between two manifests.
type Result struct {
	// Added chunks are only in the new manifest.
	Added []string

	// Removed chunks are only in the previous manifest.
	Removed []string

	// Modified chunks changed digest; Diff holds the rendered field changes.
	Modified []output.ModifiedItem
}

// IsEmpty returns true if there are no changes.
func (r *Result) IsEmpty() bool {
	return len(r.Added) == 0 && len(r.Removed) == 0 && len(r.Modified) == 0
}

// String renders the result for the terminal.
func (r *Result) String() string {
	return output.RenderDiff(r.Added, r.Removed, r.Modified)
}

// Manifests compares the previous manifest with the next one. Either may be nil.
func Manifests(prev, next *emit.Manifest, useColor bool) (*Result, error) {
	if next == nil {
		next = &emit.Manifest{}
	}
	added, removed, modified := emit.Changes(prev, next)
	res := &Result{Added: added, Removed: removed, Modified: make([]output.ModifiedItem, 0, len(modified))}

	for _, name := range modified {
		from, err := yaml.Marshal(prev.Chunks[name])
		if err != nil {
			return nil, fmt.Errorf("serializing chunk %s: %w", name, err)
		}
		to, err := yaml.Marshal(next.Chunks[name])
		if err != nil {
			return nil, fmt.Errorf("serializing chunk %s: %w", name, err)
		}
		text, err := diffYAML(from, to, useColor)
		if err != nil {
			return nil, fmt.Errorf("comparing chunk %s: %w", name, err)
		}
		res.Modified = append(res.Modified, output.ModifiedItem{Name: name, Diff: text})
	}
	return res, nil
}

// diffYAML computes a YAML-aware diff with dyff. It returns an empty
// string when the documents are equal.
func diffYAML(from, to []byte, useColor bool) (string, error) {
	if len(from) == 0 && len(to) == 0 {
		return "", nil
	}

	fromInput, err := parseYAMLInput("prev", from)
	if err != nil {
		return "", fmt.Errorf("parsing prev YAML: %w", err)
	}
	toInput, err := parseYAMLInput("next", to)
	if err != nil {
		return "", fmt.Errorf("parsing next YAML: %w", err)
	}

	report, err := dyff.CompareInputFiles(fromInput, toInput)
	if err != nil {
		return "", fmt.Errorf("comparing YAML: %w", err)
	}
	if len(report.Diffs) == 0 {
		return "", nil
	}
	return renderReport(report, useColor)
}

func parseYAMLInput(name string, data []byte) (ytbx.InputFile, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return ytbx.InputFile{Location: name}, nil
	}

	docs, err := ytbx.LoadYAMLDocuments(data)
	if err != nil {
		return ytbx.InputFile{}, err
	}
	return ytbx.InputFile{Location: name, Documents: docs}, nil
}

func renderReport(report dyff.Report, useColor bool) (string, error) {
	var buf bytes.Buffer
	w := &dyff.HumanReport{
		Report:            report,
		DoNotInspectCerts: true,
		NoTableStyle:      !useColor,
		OmitHeader:        true,
	}
	if err := w.WriteReport(io.Writer(&buf)); err != nil {
		return "", fmt.Errorf("writing report: %w", err)
	}

	lines := strings.Split(buf.String(), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n")), nil
}
