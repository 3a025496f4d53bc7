package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNewConfig_RequiresManifestPath(t *testing.T) {
	_, err := NewConfig(Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ManifestPath")
}

func TestNewConfig_RejectsUnknownLayerKind(t *testing.T) {
	_, err := NewConfig(Config{
		ManifestPath: "vars.hcl",
		Layers:       []LayerRef{{Kind: "ini", Value: "x.ini"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown layer kind "ini"`)
}

func TestNewConfig_RejectsEmptyLayerArgument(t *testing.T) {
	_, err := NewConfig(Config{
		ManifestPath: "vars.hcl",
		Layers:       []LayerRef{{Kind: KindYAML, Value: ""}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty argument")
}

func TestParseOverrideValue(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want cty.Value
	}{
		{"number", "8080", cty.NumberIntVal(8080)},
		{"bool", "true", cty.True},
		{"quoted string", `"hello"`, cty.StringVal("hello")},
		{"tuple", `[1, 2]`, cty.TupleVal([]cty.Value{cty.NumberIntVal(1), cty.NumberIntVal(2)})},
		{"bare word falls back to string", "localhost", cty.StringVal("localhost")},
		{"unparsable falls back to string", "a b c", cty.StringVal("a b c")},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := parseOverrideValue(tc.in)
			assert.True(t, got.RawEquals(tc.want), "got %#v", got)
		})
	}
}

func TestApp_RunEndToEnd(t *testing.T) {
	dir := t.TempDir()

	manifestPath := writeFile(t, dir, "vars.hcl", `
variable "host" {
  description = "The host to bind."
}

variable "port" {
  default = 8080
}

variable "url" {}
`)

	yamlPath := writeFile(t, dir, "base.yaml", `
host: localhost
`)

	hclPath := writeFile(t, dir, "derived.hcl", `
url = "http://${var.host}:${var.port}"
`)

	cfg, err := NewConfig(Config{
		ManifestPath: manifestPath,
		Layers: []LayerRef{
			{Kind: KindHCL, Value: hclPath},
			{Kind: KindYAML, Value: yamlPath},
		},
		LogFormat: "text",
		LogLevel:  "error",
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	a, err := NewApp(&buf, cfg)
	require.NoError(t, err)

	require.NoError(t, a.Run(context.Background()))
	out := buf.String()

	assert.Contains(t, out, "host = localhost")
	assert.Contains(t, out, "port = 8080")
	assert.Contains(t, out, "url = http://localhost:8080")
}

func TestApp_RunWithOverrides(t *testing.T) {
	dir := t.TempDir()

	manifestPath := writeFile(t, dir, "vars.hcl", `
variable "host" {
  default = "localhost"
}
`)

	cfg, err := NewConfig(Config{
		ManifestPath: manifestPath,
		Overrides:    map[string]string{"host": "example.com"},
		LogFormat:    "text",
		LogLevel:     "error",
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	a, err := NewApp(&buf, cfg)
	require.NoError(t, err)

	require.NoError(t, a.Run(context.Background()))
	assert.Contains(t, buf.String(), "host = example.com")
}

func TestApp_RunFailsOnMissingRequirement(t *testing.T) {
	dir := t.TempDir()

	manifestPath := writeFile(t, dir, "vars.hcl", `
variable "host" {}
`)

	cfg, err := NewConfig(Config{
		ManifestPath: manifestPath,
		LogFormat:    "text",
		LogLevel:     "error",
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	a, err := NewApp(&buf, cfg)
	require.NoError(t, err)

	err = a.Run(context.Background())
	require.Error(t, err)
}

func TestNewApp_FailsOnMissingManifest(t *testing.T) {
	cfg, err := NewConfig(Config{
		ManifestPath: filepath.Join(t.TempDir(), "nope.hcl"),
		LogFormat:    "text",
		LogLevel:     "error",
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = NewApp(&buf, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load variable manifests")
}

func TestWatchPaths_FileLayersOnly(t *testing.T) {
	a := &App{config: &Config{
		Layers: []LayerRef{
			{Kind: KindHCL, Value: "a.hcl"},
			{Kind: KindEnv, Value: "MYAPP_"},
			{Kind: KindYAML, Value: "b.yaml"},
		},
	}}

	assert.Equal(t, []string{"a.hcl", "b.yaml"}, a.watchPaths())
}
