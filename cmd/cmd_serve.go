// Copyright 2025 The RouteCO2 Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/jcodagnone/routeco2/server"
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves the upload page and the processing API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		if serveAddr != "" {
			cfg.Server.Addr = serveAddr
		}

		p, err := newPipeline(ctx, cfg)
		if err != nil {
			return err
		}

		return server.NewServer(p, cfg.Geocoder.Provider, cfg.Server.MaxUploadBytes).Run(ctx, cfg.Server.Addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from the configuration, :8080)")
}
