package spec

import (
	"context"

	"github.com/specialistvlad/substrate/internal/layer"
	"github.com/specialistvlad/substrate/internal/variable"
	"github.com/zclconf/go-cty/cty"
)

const (
	// OverrideLayerName is the implicit highest-priority layer carrying
	// caller-supplied override values. At spec-construction time it provides
	// nothing; the processor installs its bound providers from the override
	// map it is given.
	OverrideLayerName = "_overrides"

	// DefaultsLayerName is the implicit lowest-priority layer synthesized
	// from variable defaults.
	DefaultsLayerName = "_defaults"

	// ConfigVar is the reserved variable name resolving to the running
	// processor itself. Providers may declare it as a dependency like any
	// other variable.
	ConfigVar = variable.ReservedPrefix + "config"
)

// valueLayer serves a fixed name-to-value map with dependency-free
// providers. It backs both implicit layers.
type valueLayer struct {
	name   string
	values map[string]cty.Value
}

func (l *valueLayer) Name() string { return l.name }

func (l *valueLayer) Provide(v string) (layer.Decl, bool) {
	val, ok := l.values[v]
	if !ok {
		return layer.Decl{}, false
	}
	return layer.Decl{
		Fn: func(ctx context.Context, args layer.Args) (cty.Value, error) {
			return val, nil
		},
	}, true
}

// newOverrideLayer returns the spec-time override layer. Empty on purpose:
// override values only exist per resolution attempt.
func newOverrideLayer() layer.Layer {
	return &valueLayer{name: OverrideLayerName, values: map[string]cty.Value{}}
}

// NewOverrideLayer builds a value layer carrying the given per-resolution
// override values under the reserved override layer name.
func NewOverrideLayer(values map[string]cty.Value) layer.Layer {
	copied := make(map[string]cty.Value, len(values))
	for k, v := range values {
		copied[k] = v
	}
	return &valueLayer{name: OverrideLayerName, values: copied}
}

// newDefaultsLayer builds the lowest-priority layer from variable defaults.
// A default is just a fallback provider with no dependencies.
func newDefaultsLayer(vars []*variable.Variable) layer.Layer {
	values := make(map[string]cty.Value)
	for _, v := range vars {
		if v.HasDefault() {
			values[v.Name] = *v.Default
		}
	}
	return &valueLayer{name: DefaultsLayerName, values: values}
}
