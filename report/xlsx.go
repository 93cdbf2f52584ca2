// Copyright 2025 The RouteCO2 Authors
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"fmt"
	"io"

	"github.com/jcodagnone/routeco2/pipeline"
	"github.com/xuri/excelize/v2"
)

// Sheet names of the workbook written by WriteXLSX.
const (
	TripsSheet   = "Trips"
	SummarySheet = "Summary"
)

// WriteXLSX writes the annotated rows and the batch summary as a workbook.
// Figures are stored as numbers, absent figures as empty cells.
func WriteXLSX(w io.Writer, result *pipeline.BatchResult) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", TripsSheet); err != nil {
		return err
	}

	if err := writeTrips(f, result); err != nil {
		return fmt.Errorf("writing %s sheet: %w", TripsSheet, err)
	}

	if _, err := f.NewSheet(SummarySheet); err != nil {
		return err
	}

	if err := writeSummary(f, result); err != nil {
		return fmt.Errorf("writing %s sheet: %w", SummarySheet, err)
	}

	f.SetActiveSheet(0)

	return f.Write(w)
}

func writeTrips(f *excelize.File, result *pipeline.BatchResult) error {
	sw, err := f.NewStreamWriter(TripsSheet)
	if err != nil {
		return err
	}

	header := result.Header()

	if err := sw.SetRow("A1", toRow(header)); err != nil {
		return err
	}

	for i, row := range result.Rows {
		record := toRow(result.Record(i))

		// replace the textual figures with numbers
		for j, name := range header {
			switch name {
			case pipeline.ColumnDistance:
				record[j] = figure(row.DistanceKM)
			case pipeline.ColumnCO2:
				record[j] = figure(row.CO2KG)
			}
		}

		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := sw.SetRow(cell, record); err != nil {
			return err
		}
	}

	return sw.Flush()
}

func writeSummary(f *excelize.File, result *pipeline.BatchResult) error {
	sw, err := f.NewStreamWriter(SummarySheet)
	if err != nil {
		return err
	}

	rows := [][]any{
		{"Batch", result.ID},
		{"Message", result.Message},
		{"Total records", result.Stats.TotalRecords},
		{"Successful calculations", result.Stats.SuccessfulCalculations},
		{"Total distance (km)", result.Stats.TotalDistance},
		{"Total emissions (kg CO2)", result.Stats.TotalEmissions},
		{},
		{"Status", "Trips"},
	}

	for _, s := range countStatuses(result) {
		rows = append(rows, []any{s.Status, s.Trips})
	}

	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := sw.SetRow(cell, r); err != nil {
			return err
		}
	}

	return sw.Flush()
}

// countStatuses tallies statuses in order of first appearance.
func countStatuses(result *pipeline.BatchResult) []StatusSummary {
	var ret []StatusSummary

	index := map[string]int{}

	for _, row := range result.Rows {
		i, ok := index[row.Status]
		if !ok {
			i = len(ret)
			index[row.Status] = i
			ret = append(ret, StatusSummary{Status: row.Status})
		}

		ret[i].Trips++
	}

	return ret
}

func toRow(values []string) []any {
	row := make([]any, len(values))
	for i, v := range values {
		row[i] = v
	}

	return row
}

func figure(v *float64) any {
	if v == nil {
		return nil
	}

	return *v
}
