// Copyright 2025 The RouteCO2 Authors
// SPDX-License-Identifier: Apache-2.0

// Package pipeline annotates a batch of address pairs with the estimated road
// distance and CO2 emissions of each trip.
//
// Rows are processed one at a time, in input order, pausing between the calls
// to the geocoding service. A failing row is recorded with a status and never
// stops the batch; only a header without the address columns rejects it.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jcodagnone/routeco2/estimate"
	"github.com/jcodagnone/routeco2/geocode"
)

// Defaults for Config.
const (
	DefaultCallDelay      = 100 * time.Millisecond
	DefaultGeocodeTimeout = geocode.DefaultTimeout
)

// Config holds the tunables of a pipeline.
type Config struct {
	Factors estimate.Factors

	// CallDelay separates consecutive calls to the geocoding service
	CallDelay time.Duration

	// GeocodeTimeout bounds each geocoding call, zero disables the bound
	GeocodeTimeout time.Duration
}

// DefaultConfig returns the configuration used when nothing is tuned.
func DefaultConfig() Config {
	return Config{
		Factors:        estimate.DefaultFactors(),
		CallDelay:      DefaultCallDelay,
		GeocodeTimeout: DefaultGeocodeTimeout,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if err := c.Factors.Validate(); err != nil {
		return err
	}

	if c.CallDelay < 0 {
		return fmt.Errorf("call delay must not be negative, got %v", c.CallDelay)
	}

	if c.GeocodeTimeout < 0 {
		return fmt.Errorf("geocode timeout must not be negative, got %v", c.GeocodeTimeout)
	}

	return nil
}

// ProgressFunc is called after each row with the number of rows done so far.
type ProgressFunc func(done, total int, row *OutputRow)

// Pipeline processes batches. It keeps no state between batches and may be
// shared by concurrent callers.
type Pipeline struct {
	geocoder  geocode.Geocoder
	estimator *estimate.Estimator
	pacer     Pacer
	progress  ProgressFunc
	config    Config
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithPacer replaces the real-time pacer, typically with NoPacing in tests.
func WithPacer(pacer Pacer) Option {
	return func(p *Pipeline) {
		p.pacer = pacer
	}
}

// WithProgress registers a progress observer.
func WithProgress(f ProgressFunc) Option {
	return func(p *Pipeline) {
		p.progress = f
	}
}

// New creates a Pipeline.
func New(geocoder geocode.Geocoder, config Config, options ...Option) *Pipeline {
	p := &Pipeline{
		geocoder:  geocoder,
		estimator: estimate.New(config.Factors),
		pacer:     SleepPacer{},
		config:    config,
	}

	for _, o := range options {
		o(p)
	}

	return p
}

// Config returns the pipeline configuration.
func (p *Pipeline) Config() Config {
	return p.config
}

// ProcessCSV reads a CSV document and processes it.
func (p *Pipeline) ProcessCSV(ctx context.Context, r io.Reader) (*BatchResult, error) {
	header, records, err := ReadCSV(r)
	if err != nil {
		return nil, err
	}

	return p.Process(ctx, header, records)
}

// Process annotates every record. The address columns are resolved once from
// header; when they cannot be, or a record is wider than header, the whole
// batch is rejected and no row is processed. Otherwise the result holds
// exactly one row per record.
func (p *Pipeline) Process(ctx context.Context, header []string, records [][]string) (*BatchResult, error) {
	cols, err := ResolveColumns(header)
	if err != nil {
		return nil, err
	}

	for i, values := range records {
		if len(values) > len(header) {
			return nil, fmt.Errorf("%w: record %d has %d fields, header has %d",
				ErrRecordTooWide, i+1, len(values), len(header))
		}
	}

	result := &BatchResult{
		ID:     uuid.NewString(),
		Rows:   make([]OutputRow, 0, len(records)),
		layout: newLayout(header),
	}

	log.Printf("batch %s: processing %d records (start column %q, end column %q)",
		result.ID, len(records), cols.StartName, cols.EndName)

	start := time.Now()
	total := len(records)

	for i, values := range records {
		row, calledService := p.processRow(ctx, cols, InputRow{Header: header, Values: values})
		if !row.Succeeded() {
			log.Printf("batch %s: row %d: %s", result.ID, i+1, row.Status)
		}

		result.Rows = append(result.Rows, row)
		result.Stats.add(row)

		if p.progress != nil {
			p.progress(i+1, total, &result.Rows[i])
		}

		if calledService && i < total-1 {
			p.pacer.Pause(ctx, p.config.CallDelay)
		}
	}

	result.Stats.TotalDistance = estimate.Round(result.Stats.TotalDistance, 2)
	result.Stats.TotalEmissions = estimate.Round(result.Stats.TotalEmissions, 3)
	result.Message = fmt.Sprintf("Processed %d out of %d records successfully",
		result.Stats.SuccessfulCalculations, result.Stats.TotalRecords)

	log.Printf("batch %s: %s in %s", result.ID, result.Message, time.Since(start).Round(time.Millisecond))

	return result, nil
}

// processRow runs the per-row state machine. calledService reports whether
// the geocoding service was contacted, which requires a pause before the next
// row.
func (p *Pipeline) processRow(ctx context.Context, cols Columns, input InputRow) (row OutputRow, calledService bool) {
	row = OutputRow{Input: input}

	defer func() {
		if r := recover(); r != nil {
			row = OutputRow{Input: input, Status: errorStatus(fmt.Errorf("%v", r))}
		}
	}()

	startAddr := normalizeAddress(input.At(cols.Start))
	endAddr := normalizeAddress(input.At(cols.End))

	if startAddr == "" || endAddr == "" {
		row.Status = StatusMissingAddress

		return row, false
	}

	if err := ctx.Err(); err != nil {
		row.Status = errorStatus(err)

		return row, false
	}

	calledService = true

	startRes := p.geocode(ctx, startAddr)
	if !startRes.OK() {
		row.Status = p.absentStatus(ctx, StatusStartNotFound)

		return row, calledService
	}

	p.pacer.Pause(ctx, p.config.CallDelay)

	endRes := p.geocode(ctx, endAddr)
	if !endRes.OK() {
		row.Status = p.absentStatus(ctx, StatusEndNotFound)

		return row, calledService
	}

	distance, err := p.estimator.Distance(startRes.Match.Point, endRes.Match.Point)
	if err != nil {
		log.Printf("distance calculation error: %v", err)

		row.Status = StatusDistanceFailed

		return row, calledService
	}

	co2 := p.estimator.Emissions(distance)

	row.DistanceKM = &distance
	row.CO2KG = &co2
	row.Start = &startRes.Match
	row.End = &endRes.Match
	row.Status = StatusSuccess

	return row, calledService
}

// absentStatus distinguishes an address the service could not resolve from a
// batch that was cancelled while waiting for it.
func (p *Pipeline) absentStatus(ctx context.Context, status string) string {
	if err := ctx.Err(); err != nil {
		return errorStatus(err)
	}

	return status
}

func (p *Pipeline) geocode(ctx context.Context, address string) geocode.Result {
	if p.config.GeocodeTimeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, p.config.GeocodeTimeout)
		defer cancel()
	}

	res := p.geocoder.Geocode(ctx, address)
	if geocode.IsRateLimitError(res.Err) {
		log.Printf("⚠️  the geocoding service is throttling requests, consider lowering the request rate")
	}

	return res
}

// normalizeAddress trims an address and maps placeholders to "".
func normalizeAddress(s string) string {
	s = strings.TrimSpace(s)
	if s == "undefined" {
		return ""
	}

	return s
}
