package emit

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path"
	"strings"
)

// Placeholders understood by naming templates.
const (
	PlaceholderName = "{name}"
	PlaceholderHash = "{hash}"
	PlaceholderExt  = "{ext}"
)

// hashLen is the number of hex digits {hash} expands to.
const hashLen = 8

// ArtifactName expands template for a chunk artifact. Without {ext}, the
// template names the script and other kinds replace its ".js" suffix (or
// append their extension).
func ArtifactName(template, name, ext string, content []byte) (string, error) {
	if !strings.Contains(template, PlaceholderName) {
		return "", fmt.Errorf("naming template %q has no %s placeholder", template, PlaceholderName)
	}

	out := template
	if !strings.Contains(out, PlaceholderExt) && ext != "js" {
		if strings.HasSuffix(out, ".js") {
			out = strings.TrimSuffix(out, ".js") + "." + ext
		} else {
			out += "." + ext
		}
	}

	out = strings.ReplaceAll(out, PlaceholderName, name)
	out = strings.ReplaceAll(out, PlaceholderExt, ext)
	if strings.Contains(out, PlaceholderHash) {
		out = strings.ReplaceAll(out, PlaceholderHash, ContentHash(content)[:hashLen])
	}

	cleaned := path.Clean(out)
	if path.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, "../") || cleaned == "." {
		return "", fmt.Errorf("artifact path %q escapes the output directory", out)
	}
	return cleaned, nil
}

// ContentHash returns the hex sha256 of content.
func ContentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
