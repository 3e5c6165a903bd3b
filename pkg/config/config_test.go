package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "calohits.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	s, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), s)
}

func TestLoadOverridesAndKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `
features:
  max_separation: 150
  density_weight_power: 1
  use_simple_isolation_scheme: true
log:
  level: debug
  format: json
`)

	s, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 150.0, s.Features.MaxSeparation)
	assert.Equal(t, uint(1), s.Features.DensityWeightPower)
	assert.True(t, s.Features.UseSimpleIsolationScheme)
	assert.Equal(t, Default().Features.IsolationCutDistanceHCal, s.Features.IsolationCutDistanceHCal)
	assert.Equal(t, "debug", s.Log.Level)
}

func TestLoadExpandsEnvironment(t *testing.T) {
	t.Setenv("CALOHITS_MIP_CUT", "3.5")
	path := writeConfig(t, "features:\n  mip_like_mip_cut: ${CALOHITS_MIP_CUT}\n")

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3.5, s.Features.MipLikeMipCut)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, "features:\n  max_seperation: 10\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_seperation")
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := writeConfig(t, "features:\n  max_separation: -1\n")
	_, err := Load(path)
	assert.Error(t, err)

	path = writeConfig(t, "log:\n  format: xml\n")
	_, err = Load(path)
	assert.Error(t, err)
}

func TestLoadEmptyFile(t *testing.T) {
	s, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), s)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := LogConfig{Level: "warn", Format: "json"}.NewLogger(&buf)
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown", "hits", 3)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.True(t, strings.HasPrefix(out, "{"), "json handler expected, got %q", out)
	assert.Contains(t, out, `"hits":3`)

	_, err = LogConfig{Level: "loud"}.NewLogger(&buf)
	assert.Error(t, err)
}
