package static

import (
	"context"
	"testing"

	"github.com/specialistvlad/substrate/internal/layer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestLayer_SetValue(t *testing.T) {
	l := New("env").SetValue("host", cty.StringVal("localhost"))

	assert.Equal(t, "env", l.Name())

	decl, ok := l.Provide("host")
	require.True(t, ok)
	assert.Empty(t, decl.Deps)

	v, err := decl.Fn(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, v.RawEquals(cty.StringVal("localhost")))
}

func TestLayer_SetFunc(t *testing.T) {
	l := New("env").SetFunc("url", []string{"host"},
		func(ctx context.Context, args layer.Args) (cty.Value, error) {
			host, err := args.Get("host")
			if err != nil {
				return cty.NilVal, err
			}
			return cty.StringVal("http://" + host.AsString()), nil
		})

	decl, ok := l.Provide("url")
	require.True(t, ok)
	assert.Equal(t, []string{"host"}, decl.Deps)

	v, err := decl.Fn(context.Background(), layer.Args{"host": cty.StringVal("h")})
	require.NoError(t, err)
	assert.True(t, v.RawEquals(cty.StringVal("http://h")))
}

func TestLayer_ProvideUnknownVariable(t *testing.T) {
	_, ok := New("env").Provide("missing")
	assert.False(t, ok)
}
