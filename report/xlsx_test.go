// Copyright 2025 The RouteCO2 Authors
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"bytes"
	"context"
	"testing"

	"github.com/jcodagnone/routeco2/geocode"
	"github.com/jcodagnone/routeco2/pipeline"
	"github.com/jcodagnone/routeco2/spatial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWriteXLSX(t *testing.T) {
	coords := map[string]spatial.Point{
		"Raffles Place": {Lat: 1, Lng: 103.8},
		"Woodlands":     {Lat: 2, Lng: 103.8},
	}

	p := pipeline.New(geocode.GeocoderFunc(func(_ context.Context, address string) geocode.Result {
		pt, ok := coords[address]
		if !ok {
			return geocode.Result{Outcome: geocode.NotFound}
		}

		return geocode.Result{Outcome: geocode.Found, Match: geocode.Coordinate{Point: pt, FormattedAddress: address}}
	}), pipeline.DefaultConfig(), pipeline.WithPacer(pipeline.NoPacing))

	result, err := p.Process(context.Background(), []string{"Start Address", "End Address"}, [][]string{
		{"Raffles Place", "Woodlands"},
		{"Atlantis", "Woodlands"},
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, result))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)

	defer f.Close()

	assert.Equal(t, []string{TripsSheet, SummarySheet}, f.GetSheetList())

	rows, err := f.GetRows(TripsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Start Address", "End Address", "Distance_KM", "CO2_Emissions_KG", "Calculation_Status"}, rows[0])
	assert.Equal(t, []string{"Raffles Place", "Woodlands", "144.55", "28.91", "Success"}, rows[1])

	status, err := f.GetCellValue(TripsSheet, "E3")
	require.NoError(t, err)
	assert.Equal(t, pipeline.StatusStartNotFound, status)

	distance, err := f.GetCellValue(TripsSheet, "C3")
	require.NoError(t, err)
	assert.Empty(t, distance)

	message, err := f.GetCellValue(SummarySheet, "B2")
	require.NoError(t, err)
	assert.Equal(t, "Processed 1 out of 2 records successfully", message)

	total, err := f.GetCellValue(SummarySheet, "B3")
	require.NoError(t, err)
	assert.Equal(t, "2", total)

	breakdown, err := f.GetRows(SummarySheet)
	require.NoError(t, err)
	assert.Contains(t, breakdown, []string{pipeline.StatusStartNotFound, "1"})
}
