package envlayer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func mapLookup(env map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestKey(t *testing.T) {
	l := New("env", "MYAPP_", mapLookup(nil))
	assert.Equal(t, "MYAPP_DB_PORT", l.Key("db_port"))
}

func TestProvide_ClaimsOnlyPresentKeys(t *testing.T) {
	l := New("env", "MYAPP_", mapLookup(map[string]string{
		"MYAPP_HOST": "localhost",
	}))

	decl, ok := l.Provide("host")
	require.True(t, ok)

	v, err := decl.Fn(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, v.RawEquals(cty.StringVal("localhost")))

	_, ok = l.Provide("port")
	assert.False(t, ok)
}

func TestProvide_ValueReReadAtInvocation(t *testing.T) {
	env := map[string]string{"MYAPP_HOST": "before"}
	l := New("env", "MYAPP_", mapLookup(env))

	decl, ok := l.Provide("host")
	require.True(t, ok)

	env["MYAPP_HOST"] = "after"
	v, err := decl.Fn(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, v.RawEquals(cty.StringVal("after")))
}

func TestProvide_KeyRemovedBetweenSpecAndInvoke(t *testing.T) {
	env := map[string]string{"MYAPP_HOST": "x"}
	l := New("env", "MYAPP_", mapLookup(env))

	decl, ok := l.Provide("host")
	require.True(t, ok)

	delete(env, "MYAPP_HOST")
	_, err := decl.Fn(context.Background(), nil)

	var missing *MissingKeyError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "MYAPP_HOST", missing.Key)
}
