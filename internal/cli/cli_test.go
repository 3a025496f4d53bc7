package cli

import (
	"bytes"
	"testing"

	"github.com/specialistvlad/substrate/internal/app"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, args ...string) (*app.Config, bool, error) {
	t.Helper()
	var buf bytes.Buffer
	return Parse(args, &buf)
}

func TestParse_PositionalManifestPath(t *testing.T) {
	cfg, exit, err := parse(t, "vars.hcl")
	require.NoError(t, err)
	require.False(t, exit)

	assert.Equal(t, "vars.hcl", cfg.ManifestPath)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.Watch)
	assert.Empty(t, cfg.Layers)
}

func TestParse_ManifestFlag(t *testing.T) {
	cfg, _, err := parse(t, "-manifest", "vars/")
	require.NoError(t, err)
	assert.Equal(t, "vars/", cfg.ManifestPath)
}

func TestParse_NoPathPrintsUsageAndExits(t *testing.T) {
	var buf bytes.Buffer
	cfg, exit, err := Parse(nil, &buf)
	require.NoError(t, err)
	assert.True(t, exit)
	assert.Nil(t, cfg)
	assert.Contains(t, buf.String(), "Usage:")
}

func TestParse_HelpExitsCleanly(t *testing.T) {
	_, exit, err := parse(t, "-h")
	require.NoError(t, err)
	assert.True(t, exit)
}

func TestParse_LayerFlagsPreserveOrder(t *testing.T) {
	cfg, _, err := parse(t,
		"-yaml", "base.yaml",
		"-hcl", "site.hcl",
		"-env-prefix", "MYAPP_",
		"-yaml", "extra.yaml",
		"vars.hcl")
	require.NoError(t, err)

	assert.Equal(t, []app.LayerRef{
		{Kind: app.KindYAML, Value: "base.yaml"},
		{Kind: app.KindHCL, Value: "site.hcl"},
		{Kind: app.KindEnv, Value: "MYAPP_"},
		{Kind: app.KindYAML, Value: "extra.yaml"},
	}, cfg.Layers)
}

func TestParse_VarOverrides(t *testing.T) {
	cfg, _, err := parse(t, "-var", "host=localhost", "-var", "port=8080", "vars.hcl")
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"host": "localhost",
		"port": "8080",
	}, cfg.Overrides)
}

func TestParse_VarRejectsMalformedPair(t *testing.T) {
	_, _, err := parse(t, "-var", "hostonly", "vars.hcl")
	require.Error(t, err)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
}

func TestParse_VarRejectsDuplicate(t *testing.T) {
	_, _, err := parse(t, "-var", "host=a", "-var", "host=b", "vars.hcl")
	require.Error(t, err)
}

func TestParse_Require(t *testing.T) {
	cfg, _, err := parse(t, "-require", "host", "-require", "port", "vars.hcl")
	require.NoError(t, err)
	assert.Equal(t, []string{"host", "port"}, cfg.Required)
}

func TestParse_InvalidLogFormat(t *testing.T) {
	_, _, err := parse(t, "-log-format", "xml", "vars.hcl")

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
	assert.Contains(t, exitErr.Message, "invalid log-format")
}

func TestParse_InvalidLogLevel(t *testing.T) {
	_, _, err := parse(t, "-log-level", "loud", "vars.hcl")

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Contains(t, exitErr.Message, "invalid log-level")
}

func TestParse_Watch(t *testing.T) {
	cfg, _, err := parse(t, "-watch", "vars.hcl")
	require.NoError(t, err)
	assert.True(t, cfg.Watch)
}

func TestParse_LogSettingsAreCaseInsensitive(t *testing.T) {
	cfg, _, err := parse(t, "-log-format", "JSON", "-log-level", "Debug", "vars.hcl")
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "debug", cfg.LogLevel)
}
