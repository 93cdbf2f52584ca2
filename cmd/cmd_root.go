// Copyright 2025 The RouteCO2 Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/jcodagnone/routeco2/config"
	"github.com/jcodagnone/routeco2/geocode"
	"github.com/jcodagnone/routeco2/pipeline"
	"github.com/spf13/cobra"
)

type logWriter struct {
	writer io.Writer
}

func (w *logWriter) Write(bytes []byte) (int, error) {
	return fmt.Fprintf(w.writer, "%s %s", time.Now().Format("2006-01-02 15:04:05"), string(bytes))
}

func init() {
	log.SetFlags(0)
	log.SetOutput(&logWriter{writer: os.Stderr})
}

var rootCmd = &cobra.Command{
	Use:   "routeco2",
	Short: "trip distance and CO2 emissions from address pairs",
	Long: `
routeco2 reads CSV files of trips, each with a start and an end address,
geocodes both ends and annotates every trip with an estimated road distance,
the CO2 emitted over it and a calculation status.
`,
	SilenceUsage: true,
}

var rootOptions = struct {
	ConfigPath    string
	TraceHTTP     bool
	TraceHTTPBody bool
}{}

var Version = "dev"

func Execute(version string) {
	Version = version

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// loadConfig loads the configuration selected by the global flags.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(rootOptions.ConfigPath)
	if err != nil {
		return nil, err
	}

	if cfg.Geocoder.UserAgent == config.DefaultUserAgent {
		cfg.Geocoder.UserAgent = fmt.Sprintf("routeco2/%s (+https://github.com/jcodagnone/routeco2)", Version)
	}

	return cfg, nil
}

// newGeocoder builds the configured provider, tracing HTTP when requested.
func newGeocoder(ctx context.Context, cfg *config.Config) (geocode.Geocoder, error) {
	opts := cfg.Provider()
	if rootOptions.TraceHTTP || rootOptions.TraceHTTPBody {
		opts.Client.Trace = os.Stderr
		opts.Client.TraceBody = rootOptions.TraceHTTPBody
	}

	g, err := geocode.NewProvider(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("creating geocoder: %w", err)
	}

	log.Printf("📍 Geocoding: %s", cfg.Geocoder.Provider)

	return g, nil
}

// newPipeline wires the configured geocoder into a pipeline.
func newPipeline(ctx context.Context, cfg *config.Config, options ...pipeline.Option) (*pipeline.Pipeline, error) {
	g, err := newGeocoder(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return pipeline.New(g, cfg.Pipeline(), options...), nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&rootOptions.ConfigPath,
		"config",
		"",
		"YAML configuration file",
	)
	rootCmd.PersistentFlags().BoolVar(
		&rootOptions.TraceHTTP,
		"trace-http",
		false,
		"Dump the requests to the geocoding service to stderr",
	)
	rootCmd.PersistentFlags().BoolVar(
		&rootOptions.TraceHTTPBody,
		"trace-http-body",
		false,
		"Like --trace-http, including the bodies",
	)
}
