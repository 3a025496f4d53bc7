// Package yamlfile provides a layer backed by a YAML document. Top-level
// keys become dependency-free providers; values are converted to cty at
// load time.
package yamlfile

import (
	"context"
	"fmt"
	"os"

	"github.com/specialistvlad/substrate/internal/ctyconv"
	"github.com/specialistvlad/substrate/internal/layer"
	"github.com/zclconf/go-cty/cty"
	"gopkg.in/yaml.v3"
)

// Layer serves variables from the top-level keys of one YAML file.
type Layer struct {
	name   string
	path   string
	values map[string]cty.Value
}

// New reads and decodes the file at path. The layer name defaults to the
// path when name is empty.
func New(name, path string) (*Layer, error) {
	if name == "" {
		name = path
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}

	values := make(map[string]cty.Value, len(doc))
	for key, v := range doc {
		cv, err := ctyconv.ToCty(v)
		if err != nil {
			return nil, fmt.Errorf("key %q in %s: %w", key, path, err)
		}
		values[key] = cv
	}

	return &Layer{name: name, path: path, values: values}, nil
}

// Path returns the file this layer was decoded from.
func (l *Layer) Path() string { return l.path }

// Name implements layer.Layer.
func (l *Layer) Name() string { return l.name }

// Provide implements layer.Layer.
func (l *Layer) Provide(variable string) (layer.Decl, bool) {
	val, ok := l.values[variable]
	if !ok {
		return layer.Decl{}, false
	}
	return layer.Decl{
		Fn: func(ctx context.Context, args layer.Args) (cty.Value, error) {
			return val, nil
		},
	}, true
}
