package emit

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// ManifestVersion is the schema version written to the manifest.
const ManifestVersion = 1

// Manifest records what a build produced. It is written last, so its
// presence means every chunk artifact was written.
type Manifest struct {
	Version int                      `yaml:"version" json:"version"`
	Chunks  map[string]ManifestChunk `yaml:"chunks" json:"chunks"`
}

// ManifestChunk describes one chunk in the manifest.
type ManifestChunk struct {
	File    string   `yaml:"file" json:"file"`
	CSS     string   `yaml:"css,omitempty" json:"css,omitempty"`
	Assets  []string `yaml:"assets,omitempty" json:"assets,omitempty"`
	Digest  string   `yaml:"digest" json:"digest"`
	Modules []string `yaml:"modules" json:"modules"`
}

// NewManifest builds the manifest for chunks.
func NewManifest(chunks []*Chunk) *Manifest {
	m := &Manifest{Version: ManifestVersion, Chunks: make(map[string]ManifestChunk, len(chunks))}
	for _, c := range chunks {
		mc := ManifestChunk{Digest: ChunkDigest(c), Modules: c.Modules}
		for _, a := range c.Artifacts {
			switch a.Kind {
			case KindJS:
				mc.File = a.Path
			case KindCSS:
				mc.CSS = a.Path
			default:
				mc.Assets = append(mc.Assets, a.Path)
			}
		}
		m.Chunks[c.Name] = mc
	}
	return m
}

// ChunkDigest computes a digest over the chunk's artifacts in kind order:
// sha256 of each artifact's kind, path and content, newline separated.
func ChunkDigest(c *Chunk) string {
	arts := make([]Artifact, len(c.Artifacts))
	copy(arts, c.Artifacts)
	sort.SliceStable(arts, func(i, j int) bool { return arts[i].Kind < arts[j].Kind })

	h := sha256.New()
	for i, a := range arts {
		fmt.Fprintf(h, "%s %s\n", a.Kind, a.Path)
		h.Write(a.Content)
		if i < len(arts)-1 {
			h.Write([]byte("\n"))
		}
	}
	return fmt.Sprintf("sha256:%x", h.Sum(nil))
}

// Marshal renders the manifest as YAML. Map keys are sorted, so the output
// is deterministic.
func (m *Manifest) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		return nil, fmt.Errorf("encoding manifest: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding manifest: %w", err)
	}
	return buf.Bytes(), nil
}

// ReadManifest loads the manifest from outDir. It returns nil and no error
// when there is none.
func ReadManifest(fsys afero.Fs, outDir string) (*Manifest, error) {
	m, err := LoadManifest(fsys, filepath.Join(outDir, ManifestFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return m, err
}

// LoadManifest reads and parses the manifest file at path.
func LoadManifest(fsys afero.Fs, path string) (*Manifest, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if m.Chunks == nil {
		m.Chunks = map[string]ManifestChunk{}
	}
	return &m, nil
}

// Changes compares the chunks of prev and next by digest.
func Changes(prev, next *Manifest) (added, removed, modified []string) {
	if prev == nil {
		prev = &Manifest{}
	}
	for name, c := range next.Chunks {
		old, ok := prev.Chunks[name]
		switch {
		case !ok:
			added = append(added, name)
		case old.Digest != c.Digest:
			modified = append(modified, name)
		}
	}
	for name := range prev.Chunks {
		if _, ok := next.Chunks[name]; !ok {
			removed = append(removed, name)
		}
	}
	sort.Strings(added)
	sort.Strings(removed)
	sort.Strings(modified)
	return added, removed, modified
}
