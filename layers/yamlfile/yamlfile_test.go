package yamlfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "layer.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNew_TopLevelKeysBecomeProviders(t *testing.T) {
	path := writeFile(t, `
host: localhost
port: 8080
debug: true
tls:
  enabled: false
`)

	l, err := New("file", path)
	require.NoError(t, err)
	assert.Equal(t, path, l.Path())

	decl, ok := l.Provide("host")
	require.True(t, ok)
	v, err := decl.Fn(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, v.RawEquals(cty.StringVal("localhost")))

	decl, ok = l.Provide("port")
	require.True(t, ok)
	v, err = decl.Fn(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, v.RawEquals(cty.NumberIntVal(8080)))

	decl, ok = l.Provide("tls")
	require.True(t, ok)
	v, err = decl.Fn(context.Background(), nil)
	require.NoError(t, err)
	require.True(t, v.Type().IsObjectType())
	assert.True(t, v.GetAttr("enabled").RawEquals(cty.False))

	_, ok = l.Provide("missing")
	assert.False(t, ok)
}

func TestNew_NameDefaultsToPath(t *testing.T) {
	path := writeFile(t, `host: x`)

	l, err := New("", path)
	require.NoError(t, err)
	assert.Equal(t, path, l.Name())
}

func TestNew_RejectsBadYAML(t *testing.T) {
	path := writeFile(t, "host: [unclosed")
	_, err := New("file", path)
	require.Error(t, err)
}

func TestNew_MissingFile(t *testing.T) {
	_, err := New("file", filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
