// Package processor runs one demand-driven resolution attempt over a built
// spec: providers are evaluated in priority and dependency order, results
// are memoized, same-variable providers fall back on failure, and providers
// made irrelevant are pruned. One Processor drives exactly one run and must
// not be shared across concurrent attempts; the spec it consumes is
// read-only and may be shared freely.
package processor

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/specialistvlad/substrate/internal/ctxlog"
	"github.com/specialistvlad/substrate/internal/layer"
	"github.com/specialistvlad/substrate/internal/spec"
	"github.com/specialistvlad/substrate/internal/variable"
	"github.com/zclconf/go-cty/cty"
)

// configType is the capsule type wrapping the running processor, exposed to
// providers through the reserved config variable.
var configType = cty.Capsule("config_processor", reflect.TypeOf(Processor{}))

// FromValue unwraps a processor from the reserved config variable's value.
func FromValue(v cty.Value) (*Processor, bool) {
	if v.Type() != configType {
		return nil, false
	}
	p, ok := v.EncapsulatedValue().(*Processor)
	return p, ok
}

// Processor holds the per-run state of one resolution attempt.
type Processor struct {
	spec      *spec.Spec
	instances map[string]layer.Layer
	overrides map[string]cty.Value

	// BoundProviderMap mirrors the spec's provider map, with every provider
	// bound to its layer instance and override providers installed at the
	// front of their variable's list.
	BoundProviderMap map[string][]*layer.Provider

	valueMap      map[string]cty.Value
	satisfierMap  map[string]*layer.Provider
	resultHistory map[string][]*Outcome
	outcomeMap    map[*layer.Provider]*Outcome

	ran bool
}

// Option customizes a Processor under construction.
type Option func(*options)

type options struct {
	instances []layer.Layer
	overrides map[string]cty.Value
}

// WithLayers supplies fresh layer instances for this run. Each instance
// replaces the spec-time layer with the same name; names that match no spec
// layer are an error.
func WithLayers(insts ...layer.Layer) Option {
	return func(o *options) { o.instances = append(o.instances, insts...) }
}

// WithOverrides supplies explicit values consumed by the implicit
// top-priority override layer.
func WithOverrides(values map[string]cty.Value) Option {
	return func(o *options) {
		if o.overrides == nil {
			o.overrides = make(map[string]cty.Value, len(values))
		}
		for k, v := range values {
			o.overrides[k] = v
		}
	}
}

// New binds every provider from the spec to a concrete layer instance and
// prepares the per-run state, including the synthetic provider for the
// reserved config variable.
func New(ctx context.Context, s *spec.Spec, opts ...Option) (*Processor, error) {
	logger := ctxlog.FromContext(ctx)

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	p := &Processor{
		spec:             s,
		instances:        make(map[string]layer.Layer, len(s.Layers)),
		overrides:        o.overrides,
		BoundProviderMap: make(map[string][]*layer.Provider, len(s.VarProviderMap)),
		valueMap:         make(map[string]cty.Value),
		satisfierMap:     make(map[string]*layer.Provider),
		resultHistory:    make(map[string][]*Outcome),
		outcomeMap:       make(map[*layer.Provider]*Outcome),
	}

	for _, l := range s.Layers {
		p.instances[l.Name()] = l
	}
	for _, inst := range o.instances {
		if _, ok := p.instances[inst.Name()]; !ok {
			return nil, fmt.Errorf("layer instance %q matches no layer in the spec", inst.Name())
		}
		p.instances[inst.Name()] = inst
	}

	overrideLayer := spec.NewOverrideLayer(p.overrides)
	for name := range p.overrides {
		if _, ok := s.Vars[name]; !ok {
			return nil, fmt.Errorf("override supplied for unknown variable %q", name)
		}
	}

	for name, providers := range s.VarProviderMap {
		bound := make([]*layer.Provider, 0, len(providers)+1)

		if _, overridden := p.overrides[name]; overridden {
			decl, _ := overrideLayer.Provide(name)
			unbound, err := layer.NewProvider(spec.OverrideLayerName, name, decl)
			if err != nil {
				return nil, err
			}
			bp, err := unbound.Bind(overrideLayer)
			if err != nil {
				return nil, err
			}
			bound = append(bound, bp)
		}

		for _, unbound := range providers {
			inst, ok := p.instances[unbound.LayerName]
			if !ok {
				return nil, fmt.Errorf("no layer instance for %q", unbound.LayerName)
			}
			bp, err := unbound.Bind(inst)
			if err != nil {
				return nil, err
			}
			bound = append(bound, bp)
		}
		p.BoundProviderMap[name] = bound
	}

	p.injectConfigProvider(ctx)

	logger.Debug("Processor initialized.",
		"bound_providers", p.boundCount(), "overrides", len(p.overrides))
	return p, nil
}

// configLayer serves only the reserved config variable, resolving to a
// capsule around the processor itself.
type configLayer struct {
	p *Processor
}

func (l *configLayer) Name() string { return spec.ConfigVar }

func (l *configLayer) Provide(v string) (layer.Decl, bool) {
	if v != spec.ConfigVar {
		return layer.Decl{}, false
	}
	return layer.Decl{
		Fn: func(ctx context.Context, args layer.Args) (cty.Value, error) {
			return cty.CapsuleVal(configType, l.p), nil
		},
	}, true
}

// injectConfigProvider records the reserved config variable as satisfied
// before the run starts, so dependent providers can request it like any
// other variable.
func (p *Processor) injectConfigProvider(ctx context.Context) {
	cl := &configLayer{p: p}
	decl, _ := cl.Provide(spec.ConfigVar)
	unbound, err := layer.NewProvider(spec.ConfigVar, spec.ConfigVar, decl)
	if err != nil {
		panic(fmt.Sprintf("internal error building config provider: %v", err))
	}
	bp, err := unbound.Bind(cl)
	if err != nil {
		panic(fmt.Sprintf("internal error binding config provider: %v", err))
	}

	val, _ := bp.Invoke(ctx, nil)
	p.BoundProviderMap[spec.ConfigVar] = []*layer.Provider{bp}
	p.record(spec.ConfigVar, &Outcome{Kind: KindSatisfied, By: bp, Value: val})
	p.valueMap[spec.ConfigVar] = val
	p.satisfierMap[spec.ConfigVar] = bp
}

// Resolve runs the work-list algorithm for the given required variable
// names and returns the final value map. A Processor resolves at most once.
func (p *Processor) Resolve(ctx context.Context, required []string) (map[string]cty.Value, error) {
	if p.ran {
		return nil, fmt.Errorf("processor has already run; build a new one per resolution attempt")
	}
	p.ran = true

	logger := ctxlog.FromContext(ctx)
	logger.Debug("Resolution started.", "required", required)

	// Seed with the bound providers of every required variable, in priority
	// order. The queue is processed from the front; retries and discovered
	// work are pushed to the front, so it behaves as a depth-biased stack
	// over a breadth-ordered seed.
	var queue []*layer.Provider
	for _, name := range required {
		queue = append(queue, p.BoundProviderMap[name]...)
	}

	for len(queue) > 0 {
		prov := queue[0]
		queue = queue[1:]

		if _, done := p.outcomeMap[prov]; done {
			continue
		}
		if _, satisfied := p.valueMap[prov.Var]; satisfied {
			// A higher-priority provider already won; satisfaction-time
			// pruning handled the bookkeeping.
			continue
		}

		unmet := p.unmetDeps(prov)
		if len(unmet) > 0 {
			logger.Debug("Provider has unmet dependencies, deferring.",
				"provider", prov.String(), "unmet", unmet)
			queue = append([]*layer.Provider{prov}, queue...)
			for _, dep := range unmet {
				if len(p.resultHistory[dep]) >= len(p.BoundProviderMap[dep]) {
					// Every known provider for this dependency has been
					// attempted and none succeeded; re-queuing would loop
					// forever.
					return nil, &ExhaustedError{
						Var:       dep,
						Consumers: p.spec.Consumers(dep),
						Attempts:  p.resultHistory[dep],
					}
				}
				queue = append(append([]*layer.Provider{}, p.BoundProviderMap[dep]...), queue...)
			}
			continue
		}

		if err := p.attempt(ctx, prov); err != nil {
			return nil, err
		}
	}

	// Anything still without an outcome was never on a path from a required
	// variable.
	for _, providers := range p.BoundProviderMap {
		for _, prov := range providers {
			if _, done := p.outcomeMap[prov]; !done {
				logger.Debug("Pruning unreferenced provider.", "provider", prov.String())
				p.record(prov.Var, &Outcome{Kind: KindPruned, By: prov, Reason: PruneNeverReferenced})
			}
		}
	}

	logger.Debug("Resolution finished.", "resolved", len(p.valueMap))
	return p.Values(), nil
}

// attempt invokes a provider whose dependencies are all available, applies
// the variable's validator, and on success prunes the lower-priority
// providers for the same variable. When the failed attempt was the
// variable's last untried provider, the chain is exhausted and the whole
// run fails.
func (p *Processor) attempt(ctx context.Context, prov *layer.Provider) error {
	logger := ctxlog.FromContext(ctx)

	args := make(layer.Args, len(prov.Deps))
	for _, dep := range prov.Deps {
		args[dep] = p.valueMap[dep]
	}

	raw, err := prov.Invoke(ctx, args)
	if err != nil {
		logger.Debug("Provider failed.", "provider", prov.String(), "error", err)
		return p.recordFailure(prov, err)
	}

	processed := raw
	if v, ok := p.spec.Variable(prov.Var); ok {
		processed, err = v.Process(raw)
		if err != nil {
			// A validator failure disqualifies this attempt exactly like a
			// provider failure, attributed to this provider.
			logger.Debug("Provider value failed validation.", "provider", prov.String(), "error", err)
			return p.recordFailure(prov, err)
		}
	}

	logger.Debug("Provider satisfied.", "provider", prov.String())
	p.record(prov.Var, &Outcome{Kind: KindSatisfied, By: prov, Value: processed})
	p.valueMap[prov.Var] = processed
	p.satisfierMap[prov.Var] = prov

	// Prune every same-variable provider sitting after the winner in
	// priority order.
	winnerSeen := false
	for _, other := range p.BoundProviderMap[prov.Var] {
		if other == prov {
			winnerSeen = true
			continue
		}
		if !winnerSeen {
			continue
		}
		if _, done := p.outcomeMap[other]; done {
			continue
		}
		logger.Debug("Pruning lower-priority provider.", "provider", other.String())
		p.record(other.Var, &Outcome{Kind: KindPruned, By: other, Reason: PruneAlreadySatisfied})
	}
	return nil
}

// recordFailure stores an unsatisfied outcome and reports exhaustion when no
// untried provider for the variable remains.
func (p *Processor) recordFailure(prov *layer.Provider, err error) error {
	p.record(prov.Var, &Outcome{Kind: KindUnsatisfied, By: prov, Err: err})
	if len(p.resultHistory[prov.Var]) >= len(p.BoundProviderMap[prov.Var]) {
		return &ExhaustedError{
			Var:       prov.Var,
			Consumers: p.spec.Consumers(prov.Var),
			Attempts:  p.resultHistory[prov.Var],
		}
	}
	return nil
}

// unmetDeps returns the provider's dependency names that have no resolved
// value yet, preserving declaration order.
func (p *Processor) unmetDeps(prov *layer.Provider) []string {
	var unmet []string
	for _, dep := range prov.Deps {
		if _, ok := p.valueMap[dep]; !ok {
			unmet = append(unmet, dep)
		}
	}
	return unmet
}

// record stores a provider's single outcome and appends it to the
// variable's history.
func (p *Processor) record(varName string, o *Outcome) {
	p.outcomeMap[o.By] = o
	p.resultHistory[varName] = append(p.resultHistory[varName], o)
}

// Values returns a copy of the resolved value map, reserved names excluded.
func (p *Processor) Values() map[string]cty.Value {
	out := make(map[string]cty.Value, len(p.valueMap))
	for name, v := range p.valueMap {
		if strings.HasPrefix(name, variable.ReservedPrefix) {
			continue
		}
		out[name] = v
	}
	return out
}

// Value returns the resolved value for a variable, if any.
func (p *Processor) Value(name string) (cty.Value, bool) {
	v, ok := p.valueMap[name]
	return v, ok
}

// Satisfier returns the provider that won a variable, if any.
func (p *Processor) Satisfier(name string) (*layer.Provider, bool) {
	prov, ok := p.satisfierMap[name]
	return prov, ok
}

// History returns a variable's ordered outcome trail.
func (p *Processor) History(name string) []*Outcome {
	return p.resultHistory[name]
}

// Outcome returns the single outcome recorded for a provider, if any.
func (p *Processor) Outcome(prov *layer.Provider) (*Outcome, bool) {
	o, ok := p.outcomeMap[prov]
	return o, ok
}

// Spec returns the spec this processor was built from.
func (p *Processor) Spec() *spec.Spec {
	return p.spec
}

func (p *Processor) boundCount() int {
	n := 0
	for _, providers := range p.BoundProviderMap {
		n += len(providers)
	}
	return n
}
