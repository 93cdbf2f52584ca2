// Copyright 2025 The RouteCO2 Authors
// SPDX-License-Identifier: Apache-2.0

// Package spatial holds the geographic primitives shared by the geocoders,
// the estimators and the reports.
package spatial

import (
	"errors"
	"fmt"
	"math"

	"github.com/uber/h3-go/v4"
)

// EarthRadiusKm is the mean Earth radius used by default for great-circle distances.
const EarthRadiusKm = 6371.0

// ErrInvalidPoint is returned when a coordinate is not a finite latitude/longitude pair.
var ErrInvalidPoint = errors.New("invalid point")

// Point represents a geographical point with latitude and longitude in degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// String returns a string representation of the Point.
func (p Point) String() string {
	return fmt.Sprintf("POINT(%f %f)", p.Lng, p.Lat)
}

// Validate reports whether the point is a finite coordinate inside the valid
// latitude and longitude ranges.
func (p Point) Validate() error {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lng, 0) {
		return fmt.Errorf("%w: %v is not finite", ErrInvalidPoint, p)
	}

	if p.Lat < -90 || p.Lat > 90 {
		return fmt.Errorf("%w: latitude %f out of range", ErrInvalidPoint, p.Lat)
	}

	if p.Lng < -180 || p.Lng > 180 {
		return fmt.Errorf("%w: longitude %f out of range", ErrInvalidPoint, p.Lng)
	}

	return nil
}

// HaversineDistance calculates the great-circle distance between two points on
// a sphere of the given radius. The result is expressed in the radius unit.
func (p Point) HaversineDistance(other Point, radius float64) float64 {
	lat1 := p.Lat * math.Pi / 180
	lat2 := other.Lat * math.Pi / 180
	dLat := (other.Lat - p.Lat) * math.Pi / 180
	dLng := (other.Lng - p.Lng) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return radius * c
}

// Cell returns the H3 cell containing the point at the given resolution.
func (p Point) Cell(resolution int) (h3.Cell, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}

	cell, err := h3.LatLngToCell(h3.NewLatLng(p.Lat, p.Lng), resolution)
	if err != nil {
		return 0, fmt.Errorf("error converting to h3 cell at res %d: %w", resolution, err)
	}

	return cell, nil
}
