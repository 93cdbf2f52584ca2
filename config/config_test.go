// Copyright 2025 The RouteCO2 Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jcodagnone/routeco2/geocode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load("", filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	p := cfg.Pipeline()
	assert.Equal(t, 0.2, p.Factors.EmissionFactor)
	assert.Equal(t, 1.3, p.Factors.RoadFactor)
	assert.Equal(t, 100*time.Millisecond, p.CallDelay)
}

func TestLoad_Layers(t *testing.T) {
	yamlPath := writeFile(t, "routeco2.yaml", `
geocoder:
  provider: google
  timeout: 3s
  call_delay: 250ms
  requests_per_second: 5
  google_region: sg
estimation:
  emission_factor: 0.15
  road_factor: 1.4
server:
  addr: ":9000"
`)
	envPath := writeFile(t, ".env", "GOOGLE_MAPS_API_KEY=from-dotenv\nROUTECO2_ROAD_FACTOR=1.5\n")

	t.Setenv(EnvRoadFactor, "1.25")
	t.Setenv(EnvAddr, "127.0.0.1:8081")

	// unset, restored by the cleanup of Setenv, so that .env can provide it
	t.Setenv(EnvGoogleAPIKey, "")
	require.NoError(t, os.Unsetenv(EnvGoogleAPIKey))

	cfg, err := load(yamlPath, envPath)
	require.NoError(t, err)

	assert.Equal(t, geocode.ProviderGoogle, cfg.Geocoder.Provider)
	assert.Equal(t, 3*time.Second, cfg.Geocoder.Timeout)
	assert.Equal(t, 250*time.Millisecond, cfg.Geocoder.CallDelay)
	assert.Equal(t, 5.0, cfg.Geocoder.RequestsPerSecond)
	assert.Equal(t, 0.15, cfg.Estimation.EmissionFactor)
	assert.Equal(t, 1.25, cfg.Estimation.RoadFactor, "the environment wins over .env")
	assert.Equal(t, "127.0.0.1:8081", cfg.Server.Addr)
	assert.Equal(t, "from-dotenv", cfg.Geocoder.GoogleAPIKey)

	opts := cfg.Provider()
	assert.Empty(t, opts.SearchURL, "the OneMap endpoint must not leak into another provider")
	assert.Equal(t, "sg", opts.GoogleRegion)
	assert.Equal(t, 3*time.Second, opts.Client.Timeout)
	assert.Equal(t, 5.0, opts.Client.RequestsPerSecond)
}

func TestLoad_SecretsIgnoredInYAML(t *testing.T) {
	yamlPath := writeFile(t, "routeco2.yaml", "geocoder:\n  token: leaked\n")

	cfg, err := load(yamlPath, filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Empty(t, cfg.Geocoder.Token)
}

func TestLoad_OneMapToken(t *testing.T) {
	t.Setenv(EnvOneMapToken, "secret")

	cfg, err := load("", filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "secret", cfg.Provider().Client.Token)
	assert.Equal(t, geocode.DefaultOneMapSearchURL, cfg.Provider().SearchURL)
}

func TestLoad_Errors(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.env")

	_, err := load(filepath.Join(t.TempDir(), "nope.yaml"), missing)
	require.Error(t, err)

	_, err = load(writeFile(t, "bad.yaml", "geocoder: [\n"), missing)
	require.Error(t, err)

	_, err = load(writeFile(t, "bad.yaml", "estimation:\n  emission_factor: -1\n"), missing)
	require.Error(t, err)

	_, err = load(writeFile(t, "bad.yaml", "geocoder:\n  provider: nominatim\n"), missing)
	require.ErrorContains(t, err, "nominatim")

	t.Setenv(EnvCallDelay, "soon")

	_, err = load("", missing)
	require.ErrorContains(t, err, EnvCallDelay)
}
