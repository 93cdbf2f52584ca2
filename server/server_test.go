// Copyright 2025 The RouteCO2 Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jcodagnone/routeco2/geocode"
	"github.com/jcodagnone/routeco2/pipeline"
	"github.com/jcodagnone/routeco2/spatial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var places = map[string]spatial.Point{
	"Raffles Place": {Lat: 1, Lng: 103.8},
	"Woodlands":     {Lat: 2, Lng: 103.8},
}

func setupServerTest(t *testing.T, maxUploadBytes int64) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	g := geocode.GeocoderFunc(func(_ context.Context, address string) geocode.Result {
		p, ok := places[address]
		if !ok {
			return geocode.Result{Outcome: geocode.NotFound}
		}

		return geocode.Result{Outcome: geocode.Found, Match: geocode.Coordinate{Point: p, FormattedAddress: strings.ToUpper(address)}}
	})

	s := NewServer(pipeline.New(g, pipeline.DefaultConfig(), pipeline.WithPacer(pipeline.NoPacing)), geocode.ProviderOneMap, maxUploadBytes)
	s.now = func() time.Time { return time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC) }

	return s.Handler()
}

func uploadRequest(t *testing.T, target, filename, content string, fields map[string]string) *http.Request {
	t.Helper()

	var body bytes.Buffer

	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}

	if filename != "" {
		part, err := w.CreateFormFile("file", filename)
		require.NoError(t, err)

		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}

	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())

	return req
}

const tripsCSV = "Trip,Start Address,End Address\n" +
	"1,Raffles Place,Woodlands\n" +
	"2,Atlantis,Woodlands\n"

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	return resp["error"]
}

func TestUploadCSV(t *testing.T) {
	router := setupServerTest(t, 0)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, uploadRequest(t, "/upload", "trips.csv", tripsCSV, nil))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="emissions_calculated_20250304_050607.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "Success: Processed 1 out of 2 records successfully", w.Header().Get(messageHeader))
	assert.Equal(t,
		"Trip,Start Address,End Address,Distance_KM,CO2_Emissions_KG,Calculation_Status\n"+
			"1,Raffles Place,Woodlands,144.55,28.91,Success\n"+
			"2,Atlantis,Woodlands,,,Unable to calculate - Start address not found\n",
		w.Body.String())
}

func TestUploadCompletesAfterClientDisconnect(t *testing.T) {
	router := setupServerTest(t, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, uploadRequest(t, "/upload", "trips.csv", tripsCSV, nil).WithContext(ctx))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Success: Processed 1 out of 2 records successfully", w.Header().Get(messageHeader))
	assert.NotContains(t, w.Body.String(), "context canceled")
}

func TestUploadXLSX(t *testing.T) {
	router := setupServerTest(t, 0)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, uploadRequest(t, "/upload", "TRIPS.CSV", tripsCSV, map[string]string{"format": "xlsx"}))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)

	defer f.Close()

	status, err := f.GetCellValue("Trips", "F2")
	require.NoError(t, err)
	assert.Equal(t, pipeline.StatusSuccess, status)
}

func TestUploadErrors(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		content  string
		limit    int64
		code     int
		message  string
	}{
		{name: "no file", code: http.StatusBadRequest, message: "No file selected"},
		{name: "not a csv", filename: "trips.txt", content: tripsCSV, code: http.StatusBadRequest, message: "Please upload a CSV file"},
		{name: "empty csv", filename: "trips.csv", code: http.StatusBadRequest, message: "Error processing CSV: CSV file is empty"},
		{
			name:     "missing columns",
			filename: "trips.csv",
			content:  "From,To\nRaffles Place,Woodlands\n",
			code:     http.StatusUnprocessableEntity,
			message:  "CSV must contain 'Start Address' and 'End Address' columns",
		},
		{
			name:     "too large",
			filename: "trips.csv",
			content:  strings.Repeat("x", 2<<20),
			limit:    1 << 20,
			code:     http.StatusRequestEntityTooLarge,
			message:  "File exceeds the 1 MB upload limit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupServerTest(t, tt.limit)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, uploadRequest(t, "/upload", tt.filename, tt.content, nil))

			assert.Equal(t, tt.code, w.Code)
			assert.Contains(t, errorMessage(t, w), tt.message)
			assert.Empty(t, w.Header().Get(messageHeader))
		})
	}
}

func TestProcessAPI(t *testing.T) {
	router := setupServerTest(t, 0)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, uploadRequest(t, "/api/process?report=true", "trips.csv", tripsCSV, nil))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		BatchID string              `json:"batchId"`
		Message string              `json:"message"`
		Summary pipeline.BatchStats `json:"summary"`
		Header  []string            `json:"header"`
		Rows    []struct {
			Values     []string            `json:"values"`
			DistanceKM *float64            `json:"distanceKm"`
			Status     string              `json:"status"`
			Start      *geocode.Coordinate `json:"start"`
		} `json:"rows"`
		Report *struct {
			Trips    int `json:"trips"`
			Statuses []struct {
				Status string `json:"status"`
				Trips  int    `json:"trips"`
			} `json:"statuses"`
			TopOrigins []struct {
				Trips int `json:"trips"`
			} `json:"topOrigins"`
		} `json:"report"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.NotEmpty(t, resp.BatchID)
	assert.Equal(t, "Processed 1 out of 2 records successfully", resp.Message)
	assert.Equal(t, pipeline.BatchStats{
		TotalRecords:           2,
		SuccessfulCalculations: 1,
		TotalDistance:          144.55,
		TotalEmissions:         28.91,
	}, resp.Summary)
	assert.Equal(t, []string{"Trip", "Start Address", "End Address", "Distance_KM", "CO2_Emissions_KG", "Calculation_Status"}, resp.Header)

	require.Len(t, resp.Rows, 2)
	assert.Equal(t, []string{"1", "Raffles Place", "Woodlands"}, resp.Rows[0].Values)
	require.NotNil(t, resp.Rows[0].DistanceKM)
	assert.Equal(t, 144.55, *resp.Rows[0].DistanceKM)
	require.NotNil(t, resp.Rows[0].Start)
	assert.Equal(t, "RAFFLES PLACE", resp.Rows[0].Start.FormattedAddress)
	assert.Nil(t, resp.Rows[1].DistanceKM)
	assert.Nil(t, resp.Rows[1].Start)

	require.NotNil(t, resp.Report)
	assert.Equal(t, 2, resp.Report.Trips)
	assert.Len(t, resp.Report.Statuses, 2)
	require.Len(t, resp.Report.TopOrigins, 1)
	assert.Equal(t, 1, resp.Report.TopOrigins[0].Trips)
}

func TestMethodology(t *testing.T) {
	router := setupServerTest(t, 0)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/methodology", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var m Methodology
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m))
	assert.Equal(t, Methodology{
		Provider:       geocode.ProviderOneMap,
		EarthRadiusKm:  6371,
		RoadFactor:     1.3,
		EmissionFactor: 0.2,
		CallDelay:      "100ms",
		GeocodeTimeout: "10s",
	}, m)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/methodology", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "1.3")
	assert.Contains(t, w.Body.String(), "onemap")
}

func TestIndex(t *testing.T) {
	router := setupServerTest(t, 0)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `action="/upload"`)
	assert.Contains(t, w.Body.String(), "16 MB")
}
