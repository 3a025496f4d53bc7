// Package static provides a layer whose providers are assembled in code:
// fixed values and explicit provider functions. It is the workhorse layer
// for tests and for programmatic configuration.
package static

import (
	"context"

	"github.com/specialistvlad/substrate/internal/layer"
	"github.com/zclconf/go-cty/cty"
)

// Layer serves a code-assembled set of providers.
type Layer struct {
	name  string
	decls map[string]layer.Decl
}

// New creates an empty static layer with the given name.
func New(name string) *Layer {
	return &Layer{
		name:  name,
		decls: make(map[string]layer.Decl),
	}
}

// SetValue registers a dependency-free provider returning a fixed value.
// It returns the layer for chaining.
func (l *Layer) SetValue(variable string, v cty.Value) *Layer {
	l.decls[variable] = layer.Decl{
		Fn: func(ctx context.Context, args layer.Args) (cty.Value, error) {
			return v, nil
		},
	}
	return l
}

// SetFunc registers a provider function with its explicit dependency names.
// It returns the layer for chaining.
func (l *Layer) SetFunc(variable string, deps []string, fn layer.Func) *Layer {
	l.decls[variable] = layer.Decl{Deps: deps, Fn: fn}
	return l
}

// Name implements layer.Layer.
func (l *Layer) Name() string { return l.name }

// Provide implements layer.Layer.
func (l *Layer) Provide(variable string) (layer.Decl, bool) {
	decl, ok := l.decls[variable]
	return decl, ok
}
