// Copyright 2025 The RouteCO2 Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jcodagnone/routeco2/geocode"
	"github.com/jcodagnone/routeco2/pipeline"
	"github.com/jcodagnone/routeco2/report"
)

const (
	csvContentType  = "text/csv"
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	messageHeader = "X-Processing-Message"
)

// processUpload runs the uploaded file through the pipeline. On failure it
// writes the error response and returns nil.
func (s *Server) processUpload(ctx *gin.Context) *pipeline.BatchResult {
	if ctx.Request.ContentLength > s.maxUploadBytes {
		ctx.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": s.tooLargeMessage()})

		return nil
	}

	ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, s.maxUploadBytes)

	fh, err := ctx.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			ctx.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": s.tooLargeMessage()})

			return nil
		}

		ctx.JSON(http.StatusBadRequest, gin.H{"error": "No file selected"})

		return nil
	}

	if fh.Filename == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "No file selected"})

		return nil
	}

	if !strings.EqualFold(filepath.Ext(fh.Filename), ".csv") {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Please upload a CSV file"})

		return nil
	}

	f, err := fh.Open()
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Error reading upload: %v", err)})

		return nil
	}
	defer f.Close()

	// a started batch runs to completion even if the client goes away
	result, err := s.pipeline.ProcessCSV(context.WithoutCancel(ctx.Request.Context()), f)

	switch {
	case errors.Is(err, pipeline.ErrColumnNotFound), errors.Is(err, pipeline.ErrAmbiguousColumn):
		ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})

		return nil
	case err != nil:
		ctx.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Error processing CSV: %v", err)})

		return nil
	}

	log.Printf("📄 %s: %s", fh.Filename, result.Message)

	return result
}

func (s *Server) tooLargeMessage() string {
	return fmt.Sprintf("File exceeds the %d MB upload limit", s.maxUploadBytes>>20)
}

// outputFilename is the download name of an annotated file.
func (s *Server) outputFilename(ext string) string {
	return fmt.Sprintf("emissions_calculated_%s.%s", s.now().Format("20060102_150405"), ext)
}

func (s *Server) upload(ctx *gin.Context) {
	result := s.processUpload(ctx)
	if result == nil {
		return
	}

	ctx.Header(messageHeader, "Success: "+result.Message)

	format := ctx.PostForm("format")
	if format == "" {
		format = ctx.Query("format")
	}

	if strings.EqualFold(format, "xlsx") {
		ctx.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", s.outputFilename("xlsx")))
		ctx.Header("Content-Type", xlsxContentType)
		ctx.Status(http.StatusOK)

		if err := report.WriteXLSX(ctx.Writer, result); err != nil {
			log.Printf("writing xlsx for batch %s: %v", result.ID, err)
		}

		return
	}

	ctx.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", s.outputFilename("csv")))
	ctx.Header("Content-Type", csvContentType)
	ctx.Status(http.StatusOK)

	if err := pipeline.WriteCSV(ctx.Writer, result); err != nil {
		log.Printf("writing csv for batch %s: %v", result.ID, err)
	}
}

type rowResponse struct {
	Values     []string            `json:"values"`
	DistanceKM *float64            `json:"distanceKm"`
	CO2KG      *float64            `json:"co2Kg"`
	Status     string              `json:"status"`
	Start      *geocode.Coordinate `json:"start,omitempty"`
	End        *geocode.Coordinate `json:"end,omitempty"`
}

type processResponse struct {
	BatchID string              `json:"batchId"`
	Message string              `json:"message"`
	Summary pipeline.BatchStats `json:"summary"`
	Header  []string            `json:"header"`
	Rows    []rowResponse       `json:"rows"`
	Report  *report.Summary     `json:"report,omitempty"`
}

func (s *Server) process(ctx *gin.Context) {
	result := s.processUpload(ctx)
	if result == nil {
		return
	}

	resp := processResponse{
		BatchID: result.ID,
		Message: result.Message,
		Summary: result.Stats,
		Header:  result.Header(),
		Rows:    make([]rowResponse, len(result.Rows)),
	}

	for i, row := range result.Rows {
		resp.Rows[i] = rowResponse{
			Values:     row.Input.Values,
			DistanceKM: row.DistanceKM,
			CO2KG:      row.CO2KG,
			Status:     row.Status,
			Start:      row.Start,
			End:        row.End,
		}
	}

	if ctx.Query("report") == "true" {
		summary, err := report.Summarize(context.WithoutCancel(ctx.Request.Context()), report.TripsFromResult(result), report.DefaultResolution)
		if err != nil {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Error building report: %v", err)})

			return
		}

		resp.Report = summary
	}

	ctx.JSON(http.StatusOK, resp)
}
