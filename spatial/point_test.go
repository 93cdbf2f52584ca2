// Copyright 2025 The RouteCO2 Authors
// SPDX-License-Identifier: Apache-2.0

package spatial

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHaversineDistance(t *testing.T) {
	tests := []struct {
		name string
		a, b Point
		want float64
	}{
		{"same point", Point{Lat: 1.3521, Lng: 103.8198}, Point{Lat: 1.3521, Lng: 103.8198}, 0},
		{"one degree of latitude", Point{Lat: 0, Lng: 0}, Point{Lat: 1, Lng: 0}, 111.19},
		{"one degree of longitude at the equator", Point{Lat: 0, Lng: 0}, Point{Lat: 0, Lng: 1}, 111.19},
		{"antipodes", Point{Lat: 0, Lng: 0}, Point{Lat: 0, Lng: 180}, math.Pi * EarthRadiusKm},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.a.HaversineDistance(tt.b, EarthRadiusKm)
			assert.InDelta(t, tt.want, got, 0.01)
			assert.InDelta(t, got, tt.b.HaversineDistance(tt.a, EarthRadiusKm), 1e-9, "distance must be symmetric")
		})
	}
}

func TestHaversineDistanceRadiusUnit(t *testing.T) {
	a, b := Point{Lat: 0, Lng: 0}, Point{Lat: 1, Lng: 0}

	km := a.HaversineDistance(b, EarthRadiusKm)
	m := a.HaversineDistance(b, EarthRadiusKm*1000)

	assert.InDelta(t, km*1000, m, 1e-6)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		p     Point
		valid bool
	}{
		{"singapore", Point{Lat: 1.29, Lng: 103.85}, true},
		{"poles and date line", Point{Lat: -90, Lng: 180}, true},
		{"latitude too large", Point{Lat: 91, Lng: 0}, false},
		{"longitude too small", Point{Lat: 0, Lng: -180.5}, false},
		{"nan", Point{Lat: math.NaN(), Lng: 0}, false},
		{"inf", Point{Lat: 0, Lng: math.Inf(1)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.p.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.True(t, errors.Is(err, ErrInvalidPoint), "got %v", err)
			}
		})
	}
}

func TestCell(t *testing.T) {
	marinaBay := Point{Lat: 1.2834, Lng: 103.8607}
	nearby := Point{Lat: 1.2835, Lng: 103.8608}

	c1, err := marinaBay.Cell(7)
	require.NoError(t, err)
	c2, err := nearby.Cell(7)
	require.NoError(t, err)

	assert.Equal(t, c1, c2)
	assert.Equal(t, 7, c1.Resolution())

	_, err = Point{Lat: 100, Lng: 0}.Cell(7)
	assert.Error(t, err)
}
