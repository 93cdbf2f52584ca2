// Copyright 2025 The RouteCO2 Authors
// SPDX-License-Identifier: Apache-2.0

// Package estimate turns a pair of coordinates into an approximate road
// distance and the CO2 emitted travelling it.
//
// Both factors are uncalibrated regional heuristics. They are parameters,
// not physical constants.
package estimate

import (
	"fmt"
	"math"

	"github.com/jcodagnone/routeco2/spatial"
)

const (
	// DefaultRoadFactor approximates road distance from straight-line distance.
	DefaultRoadFactor = 1.3
	// DefaultEmissionFactor is the average for private cars, in kg CO2 per km.
	DefaultEmissionFactor = 0.2
)

// Factors are the tunables of the estimator.
type Factors struct {
	// EarthRadiusKm is the sphere radius used by the haversine formula
	EarthRadiusKm float64
	// RoadFactor multiplies the great-circle distance
	RoadFactor float64
	// EmissionFactor is expressed in kg CO2 per km
	EmissionFactor float64
}

// DefaultFactors returns the factors used when nothing is configured.
func DefaultFactors() Factors {
	return Factors{
		EarthRadiusKm:  spatial.EarthRadiusKm,
		RoadFactor:     DefaultRoadFactor,
		EmissionFactor: DefaultEmissionFactor,
	}
}

// Validate checks that every factor is a usable positive number.
func (f Factors) Validate() error {
	for name, v := range map[string]float64{
		"earth radius":    f.EarthRadiusKm,
		"road factor":     f.RoadFactor,
		"emission factor": f.EmissionFactor,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			return fmt.Errorf("%s must be a positive number, got %v", name, v)
		}
	}

	return nil
}

// Estimator computes distances and emissions with a fixed set of factors.
type Estimator struct {
	factors Factors
}

// New creates an Estimator.
func New(factors Factors) *Estimator {
	return &Estimator{factors: factors}
}

// Factors returns the factors the estimator was built with.
func (e *Estimator) Factors() Factors {
	return e.factors
}

// Distance returns the estimated road distance in km between a and b, rounded
// to 2 decimals. It fails only when the input cannot produce a finite distance.
func (e *Estimator) Distance(a, b spatial.Point) (float64, error) {
	if err := a.Validate(); err != nil {
		return 0, fmt.Errorf("start: %w", err)
	}

	if err := b.Validate(); err != nil {
		return 0, fmt.Errorf("end: %w", err)
	}

	straight := a.HaversineDistance(b, e.factors.EarthRadiusKm)
	road := straight * e.factors.RoadFactor

	if math.IsNaN(road) || math.IsInf(road, 0) {
		return 0, fmt.Errorf("non finite distance between %v and %v", a, b)
	}

	return Round(road, 2), nil
}

// Emissions returns the kg of CO2 for the given distance, rounded to 3 decimals.
func (e *Estimator) Emissions(distanceKm float64) float64 {
	return Round(distanceKm*e.factors.EmissionFactor, 3)
}

// Round rounds v to the given number of decimal places, half away from zero.
func Round(v float64, places int) float64 {
	p := math.Pow10(places)

	return math.Round(v*p) / p
}
