// Package layer defines the contract between the resolution engine and the
// ordered sources that produce variable values, plus the Provider binding of
// one layer's producing function to one variable.
package layer

import (
	"context"
	"fmt"

	"github.com/zclconf/go-cty/cty"
)

// Args is the name-to-value lookup handed to a provider function. It carries
// exactly the dependencies the provider declared, already resolved.
type Args map[string]cty.Value

// Get returns the value for a declared dependency name. Asking for a name the
// provider never declared is a programming error surfaced as an error value
// so it can be attributed to the offending provider.
func (a Args) Get(name string) (cty.Value, error) {
	v, ok := a[name]
	if !ok {
		return cty.NilVal, fmt.Errorf("argument %q was not declared as a dependency", name)
	}
	return v, nil
}

// Has reports whether the named dependency is present.
func (a Args) Has(name string) bool {
	_, ok := a[name]
	return ok
}

// Func produces one variable's value from its resolved dependencies. An error
// return marks the attempt unsatisfied; it does not abort resolution.
type Func func(ctx context.Context, args Args) (cty.Value, error)

// Decl is a layer's declaration that it can produce a variable: the explicit,
// ordered dependency names plus the producing function. Dependencies are
// declared literally rather than reflected from a signature.
type Decl struct {
	Deps []string
	Fn   Func
}

// Layer is an ordered, named contributor of providers. Layer order in the
// spec's layer list is priority order: earlier wins.
type Layer interface {
	// Name identifies the layer in diagnostics and in the outcome table.
	// Names must be unique within one spec.
	Name() string

	// Provide reports whether this layer can produce the named variable,
	// returning its provider declaration if so.
	Provide(variable string) (Decl, bool)
}
