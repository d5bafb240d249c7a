package plugin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/tribunales-evau/bundler/internal/build/module"
)

// JSONName is the registry name of the JSON plugin.
const JSONName = "json"

// JSON exposes JSON files as CommonJS modules.
type JSON struct{}

// NewJSON is the registry factory for JSON. It takes no options.
func NewJSON(opts Options) (Plugin, error) {
	var cfg struct{}
	if err := opts.Decode(&cfg); err != nil {
		return nil, err
	}
	return &JSON{}, nil
}

func (j *JSON) Name() string { return JSONName }

func (j *JSON) Match(meta Meta) bool { return meta.Lang == module.LangJSON }

func (j *JSON) Transform(_ context.Context, code []byte, _ Meta) (*Result, error) {
	if !json.Valid(code) {
		var v any
		err := json.Unmarshal(code, &v)
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	var out bytes.Buffer
	out.WriteString("module.exports = ")
	out.Write(bytes.TrimSpace(code))
	out.WriteString(";\n")
	return &Result{Code: out.Bytes(), Lang: module.LangJS}, nil
}
