// Copyright 2025 The RouteCO2 Authors
// SPDX-License-Identifier: Apache-2.0

// Package report aggregates annotated trips with an in-memory DuckDB table.
package report

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2" // register duckdb driver
	"github.com/jcodagnone/routeco2/pipeline"
	"github.com/jcodagnone/routeco2/spatial"
	"github.com/uber/h3-go/v4"
)

// Defaults for Summarize.
const (
	DefaultResolution = 7
	DefaultTopOrigins = 5
)

// Trip is the part of an annotated row the report needs.
type Trip struct {
	Status     string
	DistanceKM *float64
	CO2KG      *float64

	// Origin is only known for rows geocoded in this process.
	Origin *spatial.Point
}

// StatusSummary groups the trips sharing a calculation status.
type StatusSummary struct {
	Status     string  `json:"status"`
	Trips      int     `json:"trips"`
	DistanceKM float64 `json:"distanceKm"`
	CO2KG      float64 `json:"co2Kg"`
}

// CellSummary groups the successful trips starting in the same H3 cell.
type CellSummary struct {
	Cell   h3.Cell       `json:"-"`
	ID     string        `json:"cell"`
	Center spatial.Point `json:"center"`
	Trips  int           `json:"trips"`
	CO2KG  float64       `json:"co2Kg"`
}

// Summary is the outcome of Summarize.
type Summary struct {
	Trips      int             `json:"trips"`
	Resolution int             `json:"resolution"`
	Statuses   []StatusSummary `json:"statuses"`
	TopOrigins []CellSummary   `json:"topOrigins"`
}

// TripsFromResult extracts the trips of a processed batch.
func TripsFromResult(result *pipeline.BatchResult) []Trip {
	trips := make([]Trip, len(result.Rows))

	for i, row := range result.Rows {
		trips[i] = Trip{
			Status:     row.Status,
			DistanceKM: row.DistanceKM,
			CO2KG:      row.CO2KG,
		}

		if row.Start != nil {
			origin := row.Start.Point
			trips[i].Origin = &origin
		}
	}

	return trips
}

// TripsFromCSV extracts the trips of an already annotated CSV. The header
// must carry the status column; the figure columns are optional.
func TripsFromCSV(header []string, records [][]string) ([]Trip, error) {
	status, distance, co2 := -1, -1, -1

	for i, name := range header {
		switch name {
		case pipeline.ColumnStatus:
			status = i
		case pipeline.ColumnDistance:
			distance = i
		case pipeline.ColumnCO2:
			co2 = i
		}
	}

	if status < 0 {
		return nil, fmt.Errorf("missing %q column, is this an annotated file?", pipeline.ColumnStatus)
	}

	trips := make([]Trip, 0, len(records))

	for i, record := range records {
		row := pipeline.InputRow{Header: header, Values: record}
		trip := Trip{Status: row.At(status)}

		var err error
		if trip.DistanceKM, err = parseOptional(row.At(distance)); err != nil {
			return nil, fmt.Errorf("record %d: %s: %w", i+1, pipeline.ColumnDistance, err)
		}

		if trip.CO2KG, err = parseOptional(row.At(co2)); err != nil {
			return nil, fmt.Errorf("record %d: %s: %w", i+1, pipeline.ColumnCO2, err)
		}

		trips = append(trips, trip)
	}

	return trips, nil
}

func parseOptional(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}

	return &v, nil
}

// Summarize loads trips into a throwaway in-memory database and aggregates
// them. Origins are bucketed into H3 cells of the given resolution.
func Summarize(ctx context.Context, trips []Trip, resolution int) (*Summary, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}
	defer db.Close()

	repo := NewRepository(db)

	if err := repo.CreateSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	if err := repo.BulkInsert(ctx, trips, resolution); err != nil {
		return nil, fmt.Errorf("failed to load trips: %w", err)
	}

	statuses, err := repo.StatusBreakdown(ctx)
	if err != nil {
		return nil, err
	}

	origins, err := repo.TopOrigins(ctx, DefaultTopOrigins)
	if err != nil {
		return nil, err
	}

	return &Summary{
		Trips:      len(trips),
		Resolution: resolution,
		Statuses:   statuses,
		TopOrigins: origins,
	}, nil
}
