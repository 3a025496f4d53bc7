// Package spec builds and validates the static provider graph: which layer
// can produce which variable, what every provider depends on, and whether the
// whole arrangement is resolvable at all. A Spec is built once per
// (variables, layers) pairing; its derived maps are read-only afterwards and
// safe to share across resolution attempts.
package spec

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/specialistvlad/substrate/internal/ctxlog"
	"github.com/specialistvlad/substrate/internal/layer"
	"github.com/specialistvlad/substrate/internal/toposort"
	"github.com/specialistvlad/substrate/internal/variable"
)

// Spec is the validated provider graph for one set of variables and one
// ordered list of layers.
type Spec struct {
	// Vars maps every known variable name to its declaration. Names that
	// were only discovered as dependencies get a bare entry with no default
	// and no validator.
	Vars map[string]*variable.Variable

	// Layers is the full priority-ordered layer list, implicit override
	// layer first and implicit defaults layer last.
	Layers []layer.Layer

	// VarProviderMap maps a variable name to its providers across all
	// layers, in priority order.
	VarProviderMap map[string][]*layer.Provider

	// VarConsumerMap maps a variable name to the providers that declared it
	// as a dependency.
	VarConsumerMap map[string][]*layer.Provider

	// SlotDepMap holds each variable's direct dependency set, unioned across
	// all of its providers. SlotRdepMap is the fully-transitive expansion.
	SlotDepMap  map[string]map[string]bool
	SlotRdepMap map[string]map[string]bool

	// SlotLevels and SlotOrder are the display-oriented topological grouping
	// of variables. Diagnostic only; the runtime resolver does not use them.
	SlotLevels [][]string
	SlotOrder  []string
}

// Build constructs and validates a Spec from declared variables and the
// caller's priority-ordered layers. The implicit override layer is prepended
// and the implicit defaults layer appended before providers are collected.
func Build(ctx context.Context, vars []*variable.Variable, layers []layer.Layer) (*Spec, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Building configuration spec.", "variables", len(vars), "layers", len(layers))

	varMap := make(map[string]*variable.Variable, len(vars))
	for _, v := range vars {
		if strings.HasPrefix(v.Name, variable.ReservedPrefix) {
			return nil, fmt.Errorf("variable name %q uses the reserved prefix %q", v.Name, variable.ReservedPrefix)
		}
		if _, dup := varMap[v.Name]; dup {
			return nil, fmt.Errorf("duplicate variable name %q", v.Name)
		}
		varMap[v.Name] = v
	}

	seenLayers := make(map[string]struct{}, len(layers))
	for _, l := range layers {
		name := l.Name()
		if strings.HasPrefix(name, variable.ReservedPrefix) {
			return nil, fmt.Errorf("layer name %q uses the reserved prefix %q", name, variable.ReservedPrefix)
		}
		if _, dup := seenLayers[name]; dup {
			return nil, fmt.Errorf("duplicate layer name %q", name)
		}
		seenLayers[name] = struct{}{}
	}

	full := make([]layer.Layer, 0, len(layers)+2)
	full = append(full, newOverrideLayer())
	full = append(full, layers...)
	full = append(full, newDefaultsLayer(vars))

	s := &Spec{
		Vars:           varMap,
		Layers:         full,
		VarProviderMap: make(map[string][]*layer.Provider),
		VarConsumerMap: make(map[string][]*layer.Provider),
		SlotDepMap:     make(map[string]map[string]bool),
		SlotRdepMap:    make(map[string]map[string]bool),
	}

	if err := s.collectProviders(ctx); err != nil {
		return nil, err
	}
	if err := s.expandDeps(); err != nil {
		return nil, err
	}
	if err := s.level(); err != nil {
		return nil, err
	}

	logger.Debug("Configuration spec built.",
		"variables", len(s.Vars), "providers", s.providerCount(), "levels", len(s.SlotLevels))
	return s, nil
}

// collectProviders walks every known variable name against every layer in
// priority order, registering providers and chasing dependency names that
// are not yet known until the set closes.
func (s *Spec) collectProviders(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	queue := make([]string, 0, len(s.Vars))
	for name := range s.Vars {
		queue = append(queue, name)
	}
	sort.Strings(queue)

	known := make(map[string]struct{}, len(queue))
	for _, name := range queue {
		known[name] = struct{}{}
	}

	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]

		for _, l := range s.Layers {
			decl, ok := l.Provide(name)
			if !ok {
				continue
			}
			p, err := layer.NewProvider(l.Name(), name, decl)
			if err != nil {
				return err
			}
			logger.Debug("Registered provider.", "provider", p.String())
			s.VarProviderMap[name] = append(s.VarProviderMap[name], p)

			for _, dep := range p.Deps {
				s.VarConsumerMap[dep] = append(s.VarConsumerMap[dep], p)
				if dep == ConfigVar {
					continue // Pre-satisfied by the processor.
				}
				if _, ok := known[dep]; !ok {
					logger.Debug("Discovered dependency variable.", "variable", dep, "consumer", p.String())
					known[dep] = struct{}{}
					queue = append(queue, dep)
					if _, declared := s.Vars[dep]; !declared {
						s.Vars[dep] = &variable.Variable{Name: dep}
					}
				}
			}
		}
	}

	var unresolved []string
	for name := range known {
		if len(s.VarProviderMap[name]) == 0 {
			unresolved = append(unresolved, name)
		}
	}
	if len(unresolved) > 0 {
		sort.Strings(unresolved)
		return &UnresolvedError{Vars: unresolved}
	}

	return nil
}

// expandDeps computes the direct and fully-transitive dependency sets per
// variable. Expansion that revisits its own starting variable is a cycle.
func (s *Spec) expandDeps() error {
	for name, providers := range s.VarProviderMap {
		deps := make(map[string]bool)
		for _, p := range providers {
			for _, dep := range p.Deps {
				if dep == ConfigVar {
					continue
				}
				deps[dep] = true
			}
		}
		s.SlotDepMap[name] = deps
	}

	// Bound on expansion steps; a well-formed graph finishes in one visit
	// per variable.
	maxSteps := 2*len(s.SlotDepMap) + 16

	for name := range s.SlotDepMap {
		rdeps := make(map[string]bool)
		visited := make(map[string]bool)
		work := []string{name}
		steps := 0
		for len(work) > 0 {
			steps++
			if steps > maxSteps {
				return &CycleError{Var: name, Partial: setToSlice(rdeps)}
			}
			cur := work[len(work)-1]
			work = work[:len(work)-1]
			if visited[cur] {
				continue
			}
			visited[cur] = true
			for dep := range s.SlotDepMap[cur] {
				rdeps[dep] = true
				if !visited[dep] {
					work = append(work, dep)
				}
			}
		}
		if rdeps[name] {
			return &CycleError{Var: name, Partial: setToSlice(rdeps)}
		}
		s.SlotRdepMap[name] = rdeps
	}

	return nil
}

// level computes the display grouping of variables. A leveling failure here
// means a cycle slipped past expandDeps, so it is reported the same way.
func (s *Spec) level() error {
	levels, err := toposort.DisplayLevels(s.SlotDepMap)
	if err != nil {
		if cerr, ok := err.(*toposort.CycleError); ok {
			for v, partial := range cerr.Remaining {
				return &CycleError{Var: v, Partial: partial}
			}
		}
		return err
	}
	s.SlotLevels = levels
	s.SlotOrder = toposort.Flatten(levels)
	return nil
}

// Variable returns the declaration for a known variable name.
func (s *Spec) Variable(name string) (*variable.Variable, bool) {
	v, ok := s.Vars[name]
	return v, ok
}

// Providers returns the priority-ordered providers for a variable.
func (s *Spec) Providers(name string) []*layer.Provider {
	return s.VarProviderMap[name]
}

// Consumers returns the providers that depend on the named variable.
func (s *Spec) Consumers(name string) []*layer.Provider {
	return s.VarConsumerMap[name]
}

// LayerNames returns the full layer list's names in priority order.
func (s *Spec) LayerNames() []string {
	names := make([]string, 0, len(s.Layers))
	for _, l := range s.Layers {
		names = append(names, l.Name())
	}
	return names
}

// VarNames returns every known variable name, sorted.
func (s *Spec) VarNames() []string {
	names := make([]string, 0, len(s.Vars))
	for name := range s.Vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Spec) providerCount() int {
	n := 0
	for _, providers := range s.VarProviderMap {
		n += len(providers)
	}
	return n
}

func setToSlice(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
