// Copyright 2025 The RouteCO2 Authors
// SPDX-License-Identifier: Apache-2.0

// Package server exposes the pipeline over HTTP.
package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jcodagnone/routeco2/pipeline"
)

//go:embed templates/*.html
var templatesFS embed.FS

// DefaultMaxUploadBytes caps the size of an uploaded CSV.
const DefaultMaxUploadBytes = 16 << 20

// Server serves the upload page and the processing endpoints.
type Server struct {
	pipeline       *pipeline.Pipeline
	provider       string
	maxUploadBytes int64
	now            func() time.Time
}

// NewServer creates a server around p. provider names the geocoding service
// on the methodology page.
func NewServer(p *pipeline.Pipeline, provider string, maxUploadBytes int64) *Server {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}

	return &Server{
		pipeline:       p,
		provider:       provider,
		maxUploadBytes: maxUploadBytes,
		now:            time.Now,
	}
}

// Handler returns the router with every route registered.
func (s *Server) Handler() *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.SetHTMLTemplate(template.Must(template.New("").ParseFS(templatesFS, "templates/*.html")))
	r.MaxMultipartMemory = s.maxUploadBytes

	r.GET("/", s.indexView)
	r.GET("/methodology", s.methodologyView)
	r.POST("/upload", s.upload)
	r.GET("/api/methodology", s.getMethodology)
	r.POST("/api/process", s.process)

	return r
}

// Run serves on addr until ctx is cancelled, then drains in-flight batches.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)

	go func() {
		log.Printf("🌐 listening on %s", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Printf("🛑 shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}

	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *Server) indexView(ctx *gin.Context) {
	ctx.HTML(http.StatusOK, "index.html", gin.H{
		"MaxUploadMB": s.maxUploadBytes >> 20,
	})
}

// Methodology describes how the figures are computed.
type Methodology struct {
	Provider       string  `json:"provider"`
	EarthRadiusKm  float64 `json:"earthRadiusKm"`
	RoadFactor     float64 `json:"roadFactor"`
	EmissionFactor float64 `json:"emissionFactor"`
	CallDelay      string  `json:"callDelay"`
	GeocodeTimeout string  `json:"geocodeTimeout"`
}

func (s *Server) methodology() Methodology {
	cfg := s.pipeline.Config()

	return Methodology{
		Provider:       s.provider,
		EarthRadiusKm:  cfg.Factors.EarthRadiusKm,
		RoadFactor:     cfg.Factors.RoadFactor,
		EmissionFactor: cfg.Factors.EmissionFactor,
		CallDelay:      cfg.CallDelay.String(),
		GeocodeTimeout: cfg.GeocodeTimeout.String(),
	}
}

func (s *Server) methodologyView(ctx *gin.Context) {
	ctx.HTML(http.StatusOK, "methodology.html", s.methodology())
}

func (s *Server) getMethodology(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, s.methodology())
}
