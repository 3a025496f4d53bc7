package layer

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/zclconf/go-cty/cty"
)

// UnsupportedProviderError reports a provider declaration the engine cannot
// work with: a missing function, or dependency names that are not concrete.
type UnsupportedProviderError struct {
	LayerName string
	Var       string
	Reason    string
}

func (e *UnsupportedProviderError) Error() string {
	return fmt.Sprintf("unsupported provider %s.%s: %s", e.LayerName, e.Var, e.Reason)
}

// Provider binds one layer's producing function to one variable name,
// carrying the declared list of dependency names. A provider built at spec
// time is unbound; Bind attaches it to a concrete layer instance for one
// resolution attempt.
type Provider struct {
	// LayerName is the owning layer's name.
	LayerName string

	// Var is the variable this provider produces.
	Var string

	// Deps is the ordered set of variable names this provider needs. Fixed at
	// construction, never recomputed.
	Deps []string

	fn    Func
	bound bool
}

// NewProvider validates a layer's declaration for one variable and wraps it
// as an unbound provider.
func NewProvider(layerName, variable string, decl Decl) (*Provider, error) {
	if decl.Fn == nil {
		return nil, &UnsupportedProviderError{LayerName: layerName, Var: variable, Reason: "declaration has no producing function"}
	}
	seen := make(map[string]struct{}, len(decl.Deps))
	for _, dep := range decl.Deps {
		if dep == "" {
			return nil, &UnsupportedProviderError{LayerName: layerName, Var: variable, Reason: "empty dependency name"}
		}
		if strings.ContainsAny(dep, "* ") {
			return nil, &UnsupportedProviderError{LayerName: layerName, Var: variable,
				Reason: fmt.Sprintf("dependency name %q is not a concrete variable name", dep)}
		}
		if _, dup := seen[dep]; dup {
			return nil, &UnsupportedProviderError{LayerName: layerName, Var: variable,
				Reason: fmt.Sprintf("duplicate dependency name %q", dep)}
		}
		seen[dep] = struct{}{}
	}

	return &Provider{
		LayerName: layerName,
		Var:       variable,
		Deps:      slices.Clone(decl.Deps),
		fn:        decl.Fn,
	}, nil
}

// Bound reports whether the provider is attached to a concrete layer
// instance and ready to invoke.
func (p *Provider) Bound() bool {
	return p.bound
}

// Bind produces a new, bound Provider whose function comes from the given
// layer instance. Binding fails if the instance's name does not match the
// provider's layer, if the instance no longer provides the variable, or if
// its declared dependencies changed since spec construction.
func (p *Provider) Bind(inst Layer) (*Provider, error) {
	if inst.Name() != p.LayerName {
		return nil, fmt.Errorf("cannot bind provider for %q: expected an instance of layer %q, got %q",
			p.Var, p.LayerName, inst.Name())
	}
	decl, ok := inst.Provide(p.Var)
	if !ok {
		return nil, fmt.Errorf("cannot bind provider for %q: layer instance %q no longer provides it",
			p.Var, p.LayerName)
	}
	if decl.Fn == nil {
		return nil, &UnsupportedProviderError{LayerName: p.LayerName, Var: p.Var, Reason: "instance declaration has no producing function"}
	}
	if !slices.Equal(decl.Deps, p.Deps) {
		return nil, fmt.Errorf("cannot bind provider for %q: layer %q declares deps %v, spec recorded %v",
			p.Var, p.LayerName, decl.Deps, p.Deps)
	}

	return &Provider{
		LayerName: p.LayerName,
		Var:       p.Var,
		Deps:      p.Deps,
		fn:        decl.Fn,
		bound:     true,
	}, nil
}

// Invoke runs the producing function with the given resolved dependencies.
// Only bound providers may be invoked.
func (p *Provider) Invoke(ctx context.Context, args Args) (cty.Value, error) {
	if !p.bound {
		return cty.NilVal, fmt.Errorf("provider %s is not bound to a layer instance", p)
	}
	return p.fn(ctx, args)
}

func (p *Provider) String() string {
	return fmt.Sprintf("Provider(%s.%s(%s))", p.LayerName, p.Var, strings.Join(p.Deps, ", "))
}
