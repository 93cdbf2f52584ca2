// Copyright 2025 The RouteCO2 Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the routeco2 settings.
//
// Values are layered, later sources winning: built-in defaults, the YAML
// file, a .env file in the working directory and finally the environment.
// Command line flags are applied on top by the caller. Secrets are only read
// from the environment (or .env), never from the YAML file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/jcodagnone/routeco2/estimate"
	"github.com/jcodagnone/routeco2/geocode"
	"github.com/jcodagnone/routeco2/pipeline"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Defaults not owned by another package.
const (
	DefaultAddr           = ":8080"
	DefaultMaxUploadBytes = 16 << 20
	DefaultUserAgent      = "routeco2/1.0"
)

// Environment variables read by Load.
const (
	EnvProvider          = "ROUTECO2_GEOCODER_PROVIDER"
	EnvSearchURL         = "ROUTECO2_GEOCODER_SEARCH_URL"
	EnvTimeout           = "ROUTECO2_GEOCODER_TIMEOUT"
	EnvCallDelay         = "ROUTECO2_CALL_DELAY"
	EnvRequestsPerSecond = "ROUTECO2_REQUESTS_PER_SECOND"
	EnvEmissionFactor    = "ROUTECO2_EMISSION_FACTOR"
	EnvRoadFactor        = "ROUTECO2_ROAD_FACTOR"
	EnvAddr              = "ROUTECO2_ADDR"
	EnvMaxUploadBytes    = "ROUTECO2_MAX_UPLOAD_BYTES"
	EnvOneMapToken       = "ONEMAP_TOKEN"
	EnvGoogleAPIKey      = "GOOGLE_MAPS_API_KEY"
)

// Geocoder configures the geocoding provider and its HTTP client.
type Geocoder struct {
	Provider          string        `yaml:"provider"`
	SearchURL         string        `yaml:"search_url"`
	Timeout           time.Duration `yaml:"timeout"`
	CallDelay         time.Duration `yaml:"call_delay"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	UserAgent         string        `yaml:"user_agent"`
	GoogleKeyName     string        `yaml:"google_key_name"`
	GoogleRegion      string        `yaml:"google_region"`

	Token        string `yaml:"-"`
	GoogleAPIKey string `yaml:"-"`
}

// Estimation holds the factors of the distance and emissions estimates.
type Estimation struct {
	EmissionFactor float64 `yaml:"emission_factor"`
	RoadFactor     float64 `yaml:"road_factor"`
	EarthRadiusKm  float64 `yaml:"earth_radius_km"`
}

// Server configures the HTTP service.
type Server struct {
	Addr           string `yaml:"addr"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
}

// Config is the complete configuration.
type Config struct {
	Geocoder   Geocoder   `yaml:"geocoder"`
	Estimation Estimation `yaml:"estimation"`
	Server     Server     `yaml:"server"`
}

// Default returns the built-in configuration.
func Default() *Config {
	factors := estimate.DefaultFactors()

	return &Config{
		Geocoder: Geocoder{
			Provider:      geocode.ProviderOneMap,
			SearchURL:     geocode.DefaultOneMapSearchURL,
			Timeout:       geocode.DefaultTimeout,
			CallDelay:     pipeline.DefaultCallDelay,
			UserAgent:     DefaultUserAgent,
			GoogleKeyName: "routeco2",
		},
		Estimation: Estimation{
			EmissionFactor: factors.EmissionFactor,
			RoadFactor:     factors.RoadFactor,
			EarthRadiusKm:  factors.EarthRadiusKm,
		},
		Server: Server{
			Addr:           DefaultAddr,
			MaxUploadBytes: DefaultMaxUploadBytes,
		},
	}
}

// Load reads the YAML file at path, when not empty, and the .env file of the
// working directory, when present, then applies the environment.
func Load(path string) (*Config, error) {
	return load(path, ".env")
}

func load(path, envFile string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	// godotenv never overrides variables already set in the environment
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Geocoder.Provider, EnvProvider)
	setString(&c.Geocoder.SearchURL, EnvSearchURL)
	setString(&c.Server.Addr, EnvAddr)
	setString(&c.Geocoder.Token, EnvOneMapToken)
	setString(&c.Geocoder.GoogleAPIKey, EnvGoogleAPIKey)

	return errors.Join(
		setParsed(&c.Geocoder.Timeout, EnvTimeout, time.ParseDuration),
		setParsed(&c.Geocoder.CallDelay, EnvCallDelay, time.ParseDuration),
		setParsed(&c.Geocoder.RequestsPerSecond, EnvRequestsPerSecond, parseFloat),
		setParsed(&c.Estimation.EmissionFactor, EnvEmissionFactor, parseFloat),
		setParsed(&c.Estimation.RoadFactor, EnvRoadFactor, parseFloat),
		setParsed(&c.Server.MaxUploadBytes, EnvMaxUploadBytes, parseInt),
	)
}

func setString(dst *string, name string) {
	if v, ok := os.LookupEnv(name); ok && v != "" {
		*dst = v
	}
}

func setParsed[T any](dst *T, name string, parse func(string) (T, error)) error {
	v, ok := os.LookupEnv(name)
	if !ok || v == "" {
		return nil
	}

	parsed, err := parse(v)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	*dst = parsed

	return nil
}

func parseFloat(s string) (float64, error) { return strconv.ParseFloat(s, 64) }

func parseInt(s string) (int64, error) { return strconv.ParseInt(s, 10, 64) }

// Validate checks the configuration.
func (c *Config) Validate() error {
	var errs []error

	switch c.Geocoder.Provider {
	case geocode.ProviderOneMap, geocode.ProviderGoogle:
	default:
		errs = append(errs, fmt.Errorf("unknown geocoder provider %q", c.Geocoder.Provider))
	}

	if c.Geocoder.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("geocoder timeout must be positive, got %v", c.Geocoder.Timeout))
	}

	if c.Geocoder.RequestsPerSecond < 0 {
		errs = append(errs, fmt.Errorf("requests per second must not be negative, got %v", c.Geocoder.RequestsPerSecond))
	}

	if c.Server.MaxUploadBytes <= 0 {
		errs = append(errs, fmt.Errorf("max upload bytes must be positive, got %d", c.Server.MaxUploadBytes))
	}

	errs = append(errs, c.Pipeline().Validate())

	return errors.Join(errs...)
}

// Factors returns the estimation factors.
func (c *Config) Factors() estimate.Factors {
	return estimate.Factors{
		EarthRadiusKm:  c.Estimation.EarthRadiusKm,
		RoadFactor:     c.Estimation.RoadFactor,
		EmissionFactor: c.Estimation.EmissionFactor,
	}
}

// Pipeline returns the pipeline configuration.
func (c *Config) Pipeline() pipeline.Config {
	return pipeline.Config{
		Factors:        c.Factors(),
		CallDelay:      c.Geocoder.CallDelay,
		GeocodeTimeout: c.Geocoder.Timeout,
	}
}

// Provider returns the geocoding provider options. The search URL only
// applies to the provider whose default it replaces.
func (c *Config) Provider() geocode.ProviderOptions {
	searchURL := c.Geocoder.SearchURL
	if c.Geocoder.Provider != geocode.ProviderOneMap && searchURL == geocode.DefaultOneMapSearchURL {
		searchURL = ""
	}

	return geocode.ProviderOptions{
		Provider:      c.Geocoder.Provider,
		SearchURL:     searchURL,
		GoogleAPIKey:  c.Geocoder.GoogleAPIKey,
		GoogleKeyName: c.Geocoder.GoogleKeyName,
		GoogleRegion:  c.Geocoder.GoogleRegion,
		Client: geocode.ClientOptions{
			Timeout:           c.Geocoder.Timeout,
			UserAgent:         c.Geocoder.UserAgent,
			RequestsPerSecond: c.Geocoder.RequestsPerSecond,
			Token:             c.Geocoder.Token,
		},
	}
}
