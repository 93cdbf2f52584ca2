// Copyright 2025 The RouteCO2 Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/jcodagnone/routeco2/pipeline"
	"github.com/jcodagnone/routeco2/report"
	"github.com/jcodagnone/routeco2/utils/textutils"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var processOptions = struct {
	Output     string
	XLSX       string
	Report     bool
	Resolution int
}{}

var processCmd = &cobra.Command{
	Use:   "process <input.csv>",
	Short: "Annotates a CSV file of trips with distances and emissions",
	Long: `Reads a CSV file with a start and an end address column, geocodes both
ends of every trip and writes the file back with the Distance_KM,
CO2_Emissions_KG and Calculation_Status columns appended.

$ routeco2 process trips.csv -o trips_co2.csv --report
`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		in, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening input: %w", err)
		}
		defer in.Close()

		header, records, err := pipeline.ReadCSV(in)
		if err != nil {
			return fmt.Errorf("reading %s: %w", args[0], err)
		}

		var bar *progressbar.ProgressBar
		if isatty.IsTerminal(os.Stderr.Fd()) {
			bar = progressbar.NewOptions(len(records),
				progressbar.OptionSetDescription("Processing "+args[0]),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
		}

		p, err := newPipeline(ctx, cfg, pipeline.WithProgress(func(done, total int, _ *pipeline.OutputRow) {
			if bar != nil {
				_ = bar.Add(1)
			} else if done%100 == 0 || done == total {
				log.Printf("processed %d/%d records", done, total)
			}
		}))
		if err != nil {
			return err
		}

		result, err := p.Process(ctx, header, records)
		if err != nil {
			return err
		}

		if bar != nil {
			_ = bar.Finish()
		}

		output := processOptions.Output
		if output == "" {
			output = fmt.Sprintf("emissions_calculated_%s.csv", time.Now().Format("20060102_150405"))
		}

		if err := writeFile(output, func(f *os.File) error { return pipeline.WriteCSV(f, result) }); err != nil {
			return err
		}

		log.Printf("✅ %s: %s", output, result.Message)

		if processOptions.XLSX != "" {
			if err := writeFile(processOptions.XLSX, func(f *os.File) error { return report.WriteXLSX(f, result) }); err != nil {
				return err
			}

			log.Printf("✅ %s written", processOptions.XLSX)
		}

		printStats(os.Stdout, result.Stats)

		if processOptions.Report {
			return printReport(ctx, os.Stdout, report.TripsFromResult(result), processOptions.Resolution)
		}

		return nil
	},
}

// writeFile creates path and hands it to write, reporting close errors.
func writeFile(path string, write func(*os.File) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}

	defer func() {
		if cErr := f.Close(); cErr != nil && err == nil {
			err = fmt.Errorf("closing %s: %w", path, cErr)
		}
	}()

	if err := write(f); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	return nil
}

func printStats(w io.Writer, stats pipeline.BatchStats) {
	fmt.Fprintf(w, "Total records:           %s\n", textutils.FormatInt(int64(stats.TotalRecords)))
	fmt.Fprintf(w, "Successful calculations: %s\n", textutils.FormatInt(int64(stats.SuccessfulCalculations)))
	fmt.Fprintf(w, "Total distance:          %.2f km\n", stats.TotalDistance)
	fmt.Fprintf(w, "Total emissions:         %.3f kg CO2\n", stats.TotalEmissions)
}

func printReport(ctx context.Context, w io.Writer, trips []report.Trip, resolution int) error {
	summary, err := report.Summarize(ctx, trips, resolution)
	if err != nil {
		return fmt.Errorf("building report: %w", err)
	}

	fmt.Fprintf(w, "\nStatus breakdown (%s trips):\n", textutils.FormatInt(int64(summary.Trips)))

	for _, s := range summary.Statuses {
		fmt.Fprintf(w, "  %9s  %10.2f km  %10.3f kg  %s\n", textutils.FormatInt(int64(s.Trips)), s.DistanceKM, s.CO2KG, s.Status)
	}

	if len(summary.TopOrigins) > 0 {
		fmt.Fprintf(w, "\nTop origins (H3 resolution %d):\n", summary.Resolution)

		for _, c := range summary.TopOrigins {
			fmt.Fprintf(w, "  %s  %9s trips  %10.3f kg  %s\n", c.ID, textutils.FormatInt(int64(c.Trips)), c.CO2KG, c.Center)
		}
	}

	return nil
}

func init() {
	rootCmd.AddCommand(processCmd)
	processCmd.Flags().StringVarP(
		&processOptions.Output,
		"output",
		"o",
		"",
		"Annotated CSV destination (default emissions_calculated_<timestamp>.csv)",
	)
	processCmd.Flags().StringVar(
		&processOptions.XLSX,
		"xlsx",
		"",
		"Also write the annotated rows and the summary as an Excel workbook",
	)
	processCmd.Flags().BoolVar(
		&processOptions.Report,
		"report",
		false,
		"Print a status breakdown and the origins with the highest emissions",
	)
	processCmd.Flags().IntVar(
		&processOptions.Resolution,
		"resolution",
		report.DefaultResolution,
		"H3 resolution used to group origins in the report",
	)
}
