package ctyconv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestToCty_Scalars(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want cty.Value
	}{
		{"string", "hello", cty.StringVal("hello")},
		{"bool", true, cty.True},
		{"int", 42, cty.NumberIntVal(42)},
		{"int64", int64(-7), cty.NumberIntVal(-7)},
		{"float64", 1.5, cty.NumberFloatVal(1.5)},
		{"nil", nil, cty.NullVal(cty.DynamicPseudoType)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ToCty(tc.in)
			require.NoError(t, err)
			assert.True(t, got.RawEquals(tc.want), "got %#v", got)
		})
	}
}

func TestToCty_PassesValuesThrough(t *testing.T) {
	in := cty.StringVal("already cty")
	got, err := ToCty(in)
	require.NoError(t, err)
	assert.True(t, got.RawEquals(in))
}

func TestToCty_HeterogeneousSlice(t *testing.T) {
	got, err := ToCty([]any{"a", 1, true})
	require.NoError(t, err)

	require.True(t, got.Type().IsTupleType())
	assert.True(t, got.Index(cty.NumberIntVal(0)).RawEquals(cty.StringVal("a")))
	assert.True(t, got.Index(cty.NumberIntVal(1)).RawEquals(cty.NumberIntVal(1)))
	assert.True(t, got.Index(cty.NumberIntVal(2)).RawEquals(cty.True))
}

func TestToCty_NestedMap(t *testing.T) {
	got, err := ToCty(map[string]any{
		"host": "localhost",
		"tls":  map[string]any{"enabled": false},
	})
	require.NoError(t, err)

	require.True(t, got.Type().IsObjectType())
	assert.True(t, got.GetAttr("host").RawEquals(cty.StringVal("localhost")))
	assert.True(t, got.GetAttr("tls").GetAttr("enabled").RawEquals(cty.False))
}

func TestToCty_EmptyContainers(t *testing.T) {
	obj, err := ToCty(map[string]any{})
	require.NoError(t, err)
	assert.True(t, obj.RawEquals(cty.EmptyObjectVal))

	tup, err := ToCty([]any{})
	require.NoError(t, err)
	assert.True(t, tup.RawEquals(cty.EmptyTupleVal))
}

func TestToCty_AnyKeyedMap(t *testing.T) {
	got, err := ToCty(map[any]any{"port": 8080})
	require.NoError(t, err)
	assert.True(t, got.GetAttr("port").RawEquals(cty.NumberIntVal(8080)))

	_, err = ToCty(map[any]any{1: "bad key"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-string map key")
}

func TestToCty_ErrorCarriesPath(t *testing.T) {
	_, err := ToCty(map[string]any{"outer": []any{map[any]any{2: "x"}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `in attribute "outer"`)
	assert.Contains(t, err.Error(), "at index 0")
}

func TestToNative_RoundTrip(t *testing.T) {
	in := map[string]any{
		"host":  "localhost",
		"port":  float64(8080),
		"debug": true,
		"tags":  []any{"a", "b"},
	}

	v, err := ToCty(in)
	require.NoError(t, err)

	out, err := ToNative(v)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestToNative_NullAndUnknown(t *testing.T) {
	out, err := ToNative(cty.NullVal(cty.String))
	require.NoError(t, err)
	assert.Nil(t, out)

	out, err = ToNative(cty.UnknownVal(cty.String))
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestFormatValue(t *testing.T) {
	cases := []struct {
		name string
		in   cty.Value
		want string
	}{
		{"nil", cty.NilVal, ""},
		{"null", cty.NullVal(cty.String), "null"},
		{"unknown", cty.UnknownVal(cty.String), "(unknown)"},
		{"string", cty.StringVal("hi"), "hi"},
		{"int", cty.NumberIntVal(42), "42"},
		{"float", cty.NumberFloatVal(1.5), "1.5"},
		{"true", cty.True, "true"},
		{"false", cty.False, "false"},
		{"object", cty.ObjectVal(map[string]cty.Value{"a": cty.True, "b": cty.False}), "{2 attrs}"},
		{"tuple", cty.TupleVal([]cty.Value{cty.True}), "[1 elems]"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FormatValue(tc.in))
		})
	}
}
