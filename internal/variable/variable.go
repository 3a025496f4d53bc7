// Package variable defines the named slots the resolution engine fills in.
// A variable is pure data: a unique name, an optional default, and an
// optional validating transform applied to every raw value produced for it.
package variable

import (
	"fmt"
	"strings"

	"github.com/zclconf/go-cty/cty"
)

// ReservedPrefix marks names the engine keeps for itself. User variables
// must not start with it.
const ReservedPrefix = "_"

// Validator checks and optionally transforms a raw provided value before it
// is stored. Returning an error disqualifies the producing attempt, not the
// variable itself.
type Validator func(v cty.Value) (cty.Value, error)

// Variable is a single named configuration slot.
type Variable struct {
	// Name uniquely identifies the variable within one spec.
	Name string

	// Default, when non-nil, registers an implicit lowest-priority provider
	// returning this value. A nil Default means the variable must be provided
	// by some layer.
	Default *cty.Value

	// Validator, when non-nil, is applied to every raw value produced for
	// this variable, regardless of which layer produced it.
	Validator Validator

	// Description and Summary are documentation only; they never affect
	// resolution.
	Description string
	Summary     string

	// Sensitive marks values that must be masked in human-facing output.
	// It has no resolution effect.
	Sensitive bool
}

// New builds a Variable and applies the naming rules. The summary defaults to
// the first line of the description, truncated to 60 runes.
func New(name string, opts ...Option) (*Variable, error) {
	if name == "" {
		return nil, fmt.Errorf("variable name must not be empty")
	}
	if strings.HasPrefix(name, ReservedPrefix) {
		return nil, fmt.Errorf("variable name %q uses the reserved prefix %q", name, ReservedPrefix)
	}

	v := &Variable{Name: name}
	for _, opt := range opts {
		opt(v)
	}

	if v.Summary == "" && v.Description != "" {
		first := v.Description
		if idx := strings.IndexByte(first, '\n'); idx >= 0 {
			first = first[:idx]
		}
		runes := []rune(first)
		if len(runes) > 60 {
			runes = runes[:60]
		}
		v.Summary = string(runes)
	}

	return v, nil
}

// MustNew is New for statically-known names; it panics on a naming error.
func MustNew(name string, opts ...Option) *Variable {
	v, err := New(name, opts...)
	if err != nil {
		panic(err)
	}
	return v
}

// Option customizes a Variable under construction.
type Option func(*Variable)

// WithDefault sets the variable's default value.
func WithDefault(val cty.Value) Option {
	return func(v *Variable) { v.Default = &val }
}

// WithValidator sets the variable's validating transform.
func WithValidator(fn Validator) Option {
	return func(v *Variable) { v.Validator = fn }
}

// WithDescription sets the documentation text.
func WithDescription(desc string) Option {
	return func(v *Variable) { v.Description = desc }
}

// WithSummary sets the one-line summary explicitly.
func WithSummary(summary string) Option {
	return func(v *Variable) { v.Summary = summary }
}

// Sensitive marks the variable's values for masking in rendered output.
func Sensitive() Option {
	return func(v *Variable) { v.Sensitive = true }
}

// HasDefault reports whether the variable carries a default value.
func (v *Variable) HasDefault() bool {
	return v.Default != nil
}

// Process runs the raw value through the validator, if any.
func (v *Variable) Process(raw cty.Value) (cty.Value, error) {
	if v.Validator == nil {
		return raw, nil
	}
	processed, err := v.Validator(raw)
	if err != nil {
		return cty.NilVal, fmt.Errorf("validation failed for variable %q: %w", v.Name, err)
	}
	return processed, nil
}

func (v *Variable) String() string {
	return fmt.Sprintf("Variable(%s)", v.Name)
}
