// Copyright 2025 The RouteCO2 Authors
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"slices"
	"strings"

	"github.com/jcodagnone/routeco2/geocode"
	"github.com/jcodagnone/routeco2/utils/textutils"
)

// Columns appended to every input record.
const (
	ColumnDistance = "Distance_KM"
	ColumnCO2      = "CO2_Emissions_KG"
	ColumnStatus   = "Calculation_Status"
)

// Calculation statuses. Unexpected failures are reported as "Error: <message>".
const (
	StatusSuccess        = "Success"
	StatusMissingAddress = "Unable to calculate - Missing address"
	StatusStartNotFound  = "Unable to calculate - Start address not found"
	StatusEndNotFound    = "Unable to calculate - End address not found"
	StatusDistanceFailed = "Unable to calculate - Distance calculation failed"

	errorStatusPrefix = "Error: "
)

func errorStatus(err error) string {
	return errorStatusPrefix + err.Error()
}

// IsErrorStatus reports whether status records an unexpected failure.
func IsErrorStatus(status string) bool {
	return strings.HasPrefix(status, errorStatusPrefix)
}

// InputRow is one source record. Values follow Header order.
type InputRow struct {
	Header []string
	Values []string
}

// At returns the value at column index i, or "" when out of range.
func (r InputRow) At(i int) string {
	if i < 0 || i >= len(r.Values) {
		return ""
	}

	return r.Values[i]
}

// OutputRow is an InputRow annotated with the calculation outcome.
type OutputRow struct {
	Input      InputRow
	DistanceKM *float64
	CO2KG      *float64
	Status     string

	// Start and End are the geocoded endpoints of a successful row. They are
	// never written to the annotated CSV.
	Start *geocode.Coordinate
	End   *geocode.Coordinate
}

// Succeeded reports whether both figures were calculated.
func (r OutputRow) Succeeded() bool {
	return r.Status == StatusSuccess
}

// BatchStats accumulates the figures of the successful rows of a batch.
type BatchStats struct {
	TotalRecords           int     `json:"totalRecords"`
	SuccessfulCalculations int     `json:"successfulCalculations"`
	TotalDistance          float64 `json:"totalDistance"`
	TotalEmissions         float64 `json:"totalEmissions"`
}

func (s *BatchStats) add(row OutputRow) {
	s.TotalRecords++

	if !row.Succeeded() {
		return
	}

	s.SuccessfulCalculations++
	s.TotalDistance += *row.DistanceKM
	s.TotalEmissions += *row.CO2KG
}

// BatchResult is the outcome of one batch. Rows follow input order.
type BatchResult struct {
	ID      string
	Rows    []OutputRow
	Stats   BatchStats
	Message string

	layout layout
}

// Header returns the annotated CSV header.
func (b *BatchResult) Header() []string {
	return slices.Clone(b.layout.header)
}

// Record returns the annotated CSV record of row i.
func (b *BatchResult) Record(i int) []string {
	return b.layout.record(b.Rows[i])
}

// layout places the three annotation columns. Columns already present in the
// input, as when an annotated file is processed again, are overwritten in
// place rather than duplicated.
type layout struct {
	header                 []string
	distance, co2, status int
}

func newLayout(header []string) layout {
	out := slices.Clone(header)

	index := func(name string) int {
		if i := slices.Index(out, name); i >= 0 {
			return i
		}

		out = append(out, name)

		return len(out) - 1
	}

	l := layout{}
	l.distance = index(ColumnDistance)
	l.co2 = index(ColumnCO2)
	l.status = index(ColumnStatus)
	l.header = out

	return l
}

func (l layout) record(row OutputRow) []string {
	rec := make([]string, len(l.header))
	copy(rec, row.Input.Values)

	rec[l.distance] = formatOptional(row.DistanceKM)
	rec[l.co2] = formatOptional(row.CO2KG)
	rec[l.status] = row.Status

	return rec
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}

	return textutils.FormatFloat(*v)
}
