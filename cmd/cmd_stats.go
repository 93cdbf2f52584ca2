// Copyright 2025 The RouteCO2 Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"os"

	"github.com/jcodagnone/routeco2/pipeline"
	"github.com/jcodagnone/routeco2/report"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats <annotated.csv>",
	Short: "Summarizes a CSV file already annotated by process",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening input: %w", err)
		}
		defer f.Close()

		header, records, err := pipeline.ReadCSV(f)
		if err != nil {
			return fmt.Errorf("reading %s: %w", args[0], err)
		}

		trips, err := report.TripsFromCSV(header, records)
		if err != nil {
			return fmt.Errorf("reading %s: %w", args[0], err)
		}

		return printReport(cmd.Context(), cmd.OutOrStdout(), trips, report.DefaultResolution)
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
