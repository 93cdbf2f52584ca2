// Copyright 2025 The RouteCO2 Authors
// SPDX-License-Identifier: Apache-2.0

// Package geocode resolves free-text addresses to coordinates through remote
// search services.
//
// Geocoders never return errors. Every outcome, including transport and
// decoding failures, is reported as a Result so callers handle "absent" as a
// regular value.
package geocode

import (
	"context"
	"log"

	"github.com/jcodagnone/routeco2/spatial"
)

// Coordinate is a successfully geocoded address.
type Coordinate struct {
	spatial.Point
	// FormattedAddress is the address as normalized by the provider, or the
	// query itself when the provider did not return one.
	FormattedAddress string `json:"formatted_address"`
}

// Outcome tells how a geocoding attempt ended.
type Outcome int

const (
	// Found means Result.Match holds the first match.
	Found Outcome = iota
	// NotFound means the service answered with zero matches.
	NotFound
	// Failed means the service could not be queried or its answer could not be
	// understood. Result.Err holds the cause.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Found:
		return "found"
	case NotFound:
		return "not found"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result of a geocoding attempt.
type Result struct {
	Outcome Outcome
	Match   Coordinate
	Err     error
}

// OK reports whether the address was resolved.
func (r Result) OK() bool {
	return r.Outcome == Found
}

// Geocoder interface for different geocoding providers.
type Geocoder interface {
	Geocode(ctx context.Context, address string) Result
}

// GeocoderFunc adapts a function to the Geocoder interface.
type GeocoderFunc func(ctx context.Context, address string) Result

// Geocode calls f.
func (f GeocoderFunc) Geocode(ctx context.Context, address string) Result {
	return f(ctx, address)
}

func found(lat, lng float64, formatted string) Result {
	return Result{
		Outcome: Found,
		Match: Coordinate{
			Point:            spatial.Point{Lat: lat, Lng: lng},
			FormattedAddress: formatted,
		},
	}
}

func notFound(provider, address string) Result {
	log.Printf("%s: no match for %q", provider, address)

	return Result{Outcome: NotFound}
}

func failed(provider, address string, err error) Result {
	log.Printf("%s: geocoding error for %q: %v", provider, address, err)

	return Result{Outcome: Failed, Err: err}
}
