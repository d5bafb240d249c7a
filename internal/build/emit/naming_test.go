package emit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArtifactName(t *testing.T) {
	content := []byte("console.log(1)")
	hash := ContentHash(content)[:8]

	tests := []struct {
		name     string
		template string
		ext      string
		want     string
		wantErr  string
	}{
		{name: "ext placeholder", template: "{name}.{ext}", ext: "js", want: "main.js"},
		{name: "ext placeholder css", template: "{name}.{ext}", ext: "css", want: "main.css"},
		{name: "hash", template: "{name}.{hash}.{ext}", ext: "js", want: "main." + hash + ".js"},
		{name: "js suffix replaced", template: "{name}.js", ext: "css", want: "main.css"},
		{name: "js suffix kept for scripts", template: "{name}.js", ext: "js", want: "main.js"},
		{name: "suffix appended", template: "{name}", ext: "css", want: "main.css"},
		{name: "subdirectory", template: "assets/{name}-{hash}.{ext}", ext: "js", want: "assets/main-" + hash + ".js"},
		{name: "missing name", template: "bundle.js", ext: "js", wantErr: "no {name} placeholder"},
		{name: "escapes", template: "../{name}.js", ext: "js", wantErr: "escapes the output directory"},
		{name: "absolute", template: "/{name}.js", ext: "js", wantErr: "escapes the output directory"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ArtifactName(tt.template, "main", tt.ext, content)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestContentHash(t *testing.T) {
	assert.Equal(t, ContentHash([]byte("a")), ContentHash([]byte("a")))
	assert.NotEqual(t, ContentHash([]byte("a")), ContentHash([]byte("b")))
	assert.Len(t, ContentHash(nil), 64)
}
