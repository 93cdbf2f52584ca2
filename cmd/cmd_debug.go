// Copyright 2025 The RouteCO2 Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/jcodagnone/routeco2/estimate"
	"github.com/jcodagnone/routeco2/spatial"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

var debugCmd = &cobra.Command{
	Use:   "debug",
	Short: "Dev tools",
}

var debugGeocodeCmd = &cobra.Command{
	Use:   "geocode",
	Short: "Geocodes one address per line",
	Long: `Reads one address per line and prints the address followed by the
outcome of the configured geocoder.

$ echo "1 Raffles Place" | routeco2 debug geocode
1 Raffles Place	found	{"lat":1.2840,"lng":103.8510,"formatted_address":"1 RAFFLES PLACE ..."}
`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		g, err := newGeocoder(cmd.Context(), cfg)
		if err != nil {
			return err
		}

		input := os.Stdin
		if isatty.IsTerminal(input.Fd()) {
			fmt.Fprintln(os.Stderr, "Enter the addresses to geocode, one per line…")
		}

		scanner := bufio.NewScanner(input)
		for scanner.Scan() {
			address := scanner.Text()

			res := g.Geocode(cmd.Context(), address)
			switch {
			case res.OK():
				s, err := json.Marshal(res.Match)
				if err != nil {
					log.Fatal(err)
				}

				fmt.Printf("%s\t%s\t%s\n", address, res.Outcome, s)
			case res.Err != nil:
				fmt.Printf("%s\t%s\t%q\n", address, res.Outcome, res.Err)
			default:
				fmt.Printf("%s\t%s\n", address, res.Outcome)
			}
		}

		if err := scanner.Err(); err != nil {
			return fmt.Errorf("reading input: %w", err)
		}

		return nil
	},
}

var debugDistanceCmd = &cobra.Command{
	Use:   "distance <lat1> <lng1> <lat2> <lng2>",
	Short: "Estimates the road distance and the emissions between two points",
	Args:  cobra.ExactArgs(4),
	RunE: func(_ *cobra.Command, args []string) error {
		var coords [4]float64

		for i, arg := range args {
			v, err := strconv.ParseFloat(arg, 64)
			if err != nil {
				return fmt.Errorf("argument %d: %w", i+1, err)
			}

			coords[i] = v
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		a := spatial.Point{Lat: coords[0], Lng: coords[1]}
		b := spatial.Point{Lat: coords[2], Lng: coords[3]}

		e := estimate.New(cfg.Factors())

		distance, err := e.Distance(a, b)
		if err != nil {
			return err
		}

		fmt.Printf("great-circle: %.3f km\n", a.HaversineDistance(b, e.Factors().EarthRadiusKm))
		fmt.Printf("road:         %v km\n", distance)
		fmt.Printf("emissions:    %v kg CO2\n", e.Emissions(distance))

		return nil
	},
}

func init() {
	rootCmd.AddCommand(debugCmd)
	debugCmd.AddCommand(debugGeocodeCmd)
	debugCmd.AddCommand(debugDistanceCmd)
}
