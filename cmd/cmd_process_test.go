// Copyright 2025 The RouteCO2 Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"strings"
	"testing"

	"github.com/jcodagnone/routeco2/pipeline"
	"github.com/jcodagnone/routeco2/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintStats(t *testing.T) {
	var out strings.Builder

	printStats(&out, pipeline.BatchStats{
		TotalRecords:           12345,
		SuccessfulCalculations: 1200,
		TotalDistance:          144.55,
		TotalEmissions:         28.91,
	})

	assert.Equal(t, ""+
		"Total records:           12,345\n"+
		"Successful calculations: 1,200\n"+
		"Total distance:          144.55 km\n"+
		"Total emissions:         28.910 kg CO2\n",
		out.String())
}

func TestPrintReport(t *testing.T) {
	trips := make([]report.Trip, 0, 1001)
	for range 1001 {
		trips = append(trips, report.Trip{Status: pipeline.StatusMissingAddress})
	}

	var out strings.Builder
	require.NoError(t, printReport(context.Background(), &out, trips, report.DefaultResolution))

	assert.Contains(t, out.String(), "Status breakdown (1,001 trips):")
	assert.Contains(t, out.String(), "1,001")
	assert.Contains(t, out.String(), pipeline.StatusMissingAddress)
	assert.NotContains(t, out.String(), "Top origins")
}
