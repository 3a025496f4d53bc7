// Package session exposes the root configuration object: it owns one
// resolution attempt against a built spec, carries the caller's overrides and
// required-variable set, and checks that every requirement ended up with a
// value.
package session

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/specialistvlad/substrate/internal/ctxlog"
	"github.com/specialistvlad/substrate/internal/layer"
	"github.com/specialistvlad/substrate/internal/processor"
	"github.com/specialistvlad/substrate/internal/spec"
	"github.com/specialistvlad/substrate/internal/variable"
	"github.com/zclconf/go-cty/cty"
)

// UnresolvedRequirementError reports required variables that still had no
// value after a resolution run completed.
type UnresolvedRequirementError struct {
	Missing []string
}

func (e *UnresolvedRequirementError) Error() string {
	missing := append([]string(nil), e.Missing...)
	sort.Strings(missing)
	return fmt.Sprintf("required variables left unresolved: %s", strings.Join(missing, ", "))
}

// Session is one caller-facing resolution attempt. Unless deferred, New
// resolves synchronously and fails if any required variable is missing.
type Session struct {
	spec     *spec.Spec
	required []string

	overrides map[string]cty.Value
	instances []layer.Layer

	proc     *processor.Processor
	values   map[string]cty.Value
	resolved bool
	deferred bool
}

// Option customizes a Session under construction.
type Option func(*Session)

// WithOverrides supplies explicit top-priority values for this attempt.
func WithOverrides(values map[string]cty.Value) Option {
	return func(s *Session) {
		if s.overrides == nil {
			s.overrides = make(map[string]cty.Value, len(values))
		}
		for k, v := range values {
			s.overrides[k] = v
		}
	}
}

// WithRequired narrows the required set. Without it, every declared
// variable is required.
func WithRequired(names ...string) Option {
	return func(s *Session) { s.required = append(s.required, names...) }
}

// WithLayers supplies fresh layer instances for this attempt, matched to
// spec layers by name.
func WithLayers(insts ...layer.Layer) Option {
	return func(s *Session) { s.instances = append(s.instances, insts...) }
}

// Deferred suppresses the synchronous resolution in New; the caller invokes
// Resolve explicitly.
func Deferred() Option {
	return func(s *Session) { s.deferred = true }
}

// New builds a session over the given spec. Unless the Deferred option is
// present, it resolves immediately and returns the first fatal resolution
// error.
func New(ctx context.Context, sp *spec.Spec, opts ...Option) (*Session, error) {
	s := &Session{spec: sp}
	for _, opt := range opts {
		opt(s)
	}

	if len(s.required) == 0 {
		for name := range sp.Vars {
			if !strings.HasPrefix(name, variable.ReservedPrefix) {
				s.required = append(s.required, name)
			}
		}
		sort.Strings(s.required)
	}

	if !s.deferred {
		if err := s.Resolve(ctx); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Resolve builds a fresh processor and runs it. Calling it on an
// already-resolved session is an error; build a new session instead.
func (s *Session) Resolve(ctx context.Context) error {
	if s.resolved {
		return fmt.Errorf("session already resolved; build a new session per attempt")
	}

	logger := ctxlog.FromContext(ctx)
	logger.Debug("Session resolving.", "required", s.required)

	procOpts := []processor.Option{}
	if len(s.overrides) > 0 {
		procOpts = append(procOpts, processor.WithOverrides(s.overrides))
	}
	if len(s.instances) > 0 {
		procOpts = append(procOpts, processor.WithLayers(s.instances...))
	}

	proc, err := processor.New(ctx, s.spec, procOpts...)
	if err != nil {
		return err
	}

	values, err := proc.Resolve(ctx, s.required)
	if err != nil {
		return err
	}

	// Defensive final check: a requirement can be missing without an
	// exhausted chain if nothing ever reached it.
	var missing []string
	for _, name := range s.required {
		if _, ok := values[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return &UnresolvedRequirementError{Missing: missing}
	}

	s.proc = proc
	s.values = values
	s.resolved = true
	logger.Debug("Session resolved.", "values", len(values))
	return nil
}

// Value returns the resolved value for a variable.
func (s *Session) Value(name string) (cty.Value, bool) {
	v, ok := s.values[name]
	return v, ok
}

// Values returns the resolved value map, reserved names excluded.
func (s *Session) Values() map[string]cty.Value {
	out := make(map[string]cty.Value, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// Required returns the required variable names for this session.
func (s *Session) Required() []string {
	return append([]string(nil), s.required...)
}

// Processor exposes the per-run state for introspection and rendering.
func (s *Session) Processor() *processor.Processor {
	return s.proc
}

// Spec returns the spec this session resolves against.
func (s *Session) Spec() *spec.Spec {
	return s.spec
}
