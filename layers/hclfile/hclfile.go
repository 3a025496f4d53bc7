// Package hclfile provides a layer backed by an HCL file of attribute
// assignments. Attribute expressions may reference other variables as
// var.<name>; those references become the provider's declared dependencies
// and are supplied through the evaluation context at invocation time.
package hclfile

import (
	"context"
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/substrate/internal/layer"
	"github.com/zclconf/go-cty/cty"
)

// Layer serves variables from the attributes of one parsed HCL file.
type Layer struct {
	name  string
	path  string
	exprs map[string]hcl.Expression
	deps  map[string][]string
}

// New parses the file at path and validates every attribute expression's
// references. The layer name defaults to the path when name is empty.
func New(name, path string) (*Layer, error) {
	if name == "" {
		name = path
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parsing %s: %w", path, diags)
	}

	attrs, diags := file.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("reading attributes of %s: %w", path, diags)
	}

	l := &Layer{
		name:  name,
		path:  path,
		exprs: make(map[string]hcl.Expression, len(attrs)),
		deps:  make(map[string][]string, len(attrs)),
	}

	for attrName, attr := range attrs {
		deps, err := referencedVars(attr.Expr)
		if err != nil {
			return nil, fmt.Errorf("attribute %q in %s: %w", attrName, path, err)
		}
		l.exprs[attrName] = attr.Expr
		l.deps[attrName] = deps
	}

	return l, nil
}

// referencedVars extracts the variable names an expression references via
// var.<name> traversals. Any other traversal root is rejected.
func referencedVars(expr hcl.Expression) ([]string, error) {
	seen := make(map[string]struct{})
	for _, traversal := range expr.Variables() {
		if traversal.RootName() != "var" {
			return nil, fmt.Errorf("unsupported reference root %q; only var.<name> is allowed", traversal.RootName())
		}
		if len(traversal) < 2 {
			return nil, fmt.Errorf("bare 'var' reference; expected var.<name>")
		}
		attr, ok := traversal[1].(hcl.TraverseAttr)
		if !ok {
			return nil, fmt.Errorf("expected an attribute access after 'var'")
		}
		seen[attr.Name] = struct{}{}
	}

	deps := make([]string, 0, len(seen))
	for name := range seen {
		deps = append(deps, name)
	}
	sort.Strings(deps)
	return deps, nil
}

// Path returns the file this layer was parsed from.
func (l *Layer) Path() string { return l.path }

// Name implements layer.Layer.
func (l *Layer) Name() string { return l.name }

// Provide implements layer.Layer.
func (l *Layer) Provide(variable string) (layer.Decl, bool) {
	expr, ok := l.exprs[variable]
	if !ok {
		return layer.Decl{}, false
	}
	deps := l.deps[variable]

	return layer.Decl{
		Deps: deps,
		Fn: func(ctx context.Context, args layer.Args) (cty.Value, error) {
			vars := make(map[string]cty.Value, len(deps))
			for _, dep := range deps {
				v, err := args.Get(dep)
				if err != nil {
					return cty.NilVal, err
				}
				vars[dep] = v
			}

			evalCtx := &hcl.EvalContext{}
			if len(vars) > 0 {
				evalCtx.Variables = map[string]cty.Value{"var": cty.ObjectVal(vars)}
			}

			val, diags := expr.Value(evalCtx)
			if diags.HasErrors() {
				return cty.NilVal, fmt.Errorf("evaluating %q in %s: %w", variable, l.path, diags)
			}
			return val, nil
		},
	}, true
}
