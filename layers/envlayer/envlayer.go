// Package envlayer provides a layer backed by process environment
// variables. A variable "db_port" is served from "<PREFIX>DB_PORT". All
// values are strings; variable validators are the place to coerce them.
package envlayer

import (
	"context"
	"os"
	"strings"

	"github.com/specialistvlad/substrate/internal/layer"
	"github.com/zclconf/go-cty/cty"
)

// LookupFunc looks up one environment variable. Injected for testability;
// the default is os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// Layer serves variables from a prefix-scoped slice of the environment.
type Layer struct {
	name   string
	prefix string
	lookup LookupFunc
}

// New creates an environment layer. The prefix is prepended verbatim to the
// upper-cased variable name, so pass it with a trailing separator
// ("MYAPP_").
func New(name, prefix string, lookup LookupFunc) *Layer {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	return &Layer{name: name, prefix: prefix, lookup: lookup}
}

// Key returns the environment key serving the given variable name.
func (l *Layer) Key(variable string) string {
	return l.prefix + strings.ToUpper(variable)
}

// Name implements layer.Layer.
func (l *Layer) Name() string { return l.name }

// Provide implements layer.Layer. The layer claims a variable only when the
// corresponding key is currently present in the environment; the value is
// re-read at invocation time.
func (l *Layer) Provide(variable string) (layer.Decl, bool) {
	key := l.Key(variable)
	if _, ok := l.lookup(key); !ok {
		return layer.Decl{}, false
	}
	return layer.Decl{
		Fn: func(ctx context.Context, args layer.Args) (cty.Value, error) {
			raw, ok := l.lookup(key)
			if !ok {
				return cty.NilVal, &MissingKeyError{Key: key}
			}
			return cty.StringVal(raw), nil
		},
	}, true
}

// MissingKeyError reports an environment key that disappeared between spec
// construction and provider invocation.
type MissingKeyError struct {
	Key string
}

func (e *MissingKeyError) Error() string {
	return "environment variable " + e.Key + " is no longer set"
}
