// Copyright 2025 The RouteCO2 Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// DefaultOneMapSearchURL is the OneMap Singapore address search endpoint.
const DefaultOneMapSearchURL = "https://developers.onemap.sg/commonapi/search"

const oneMapProvider = "onemap"

// OneMapGeocoder uses the OneMap search API.
type OneMapGeocoder struct {
	searchURL  string
	httpClient *http.Client
}

// NewOneMapGeocoder creates a new OneMap geocoder. An empty searchURL uses
// DefaultOneMapSearchURL and a nil client uses NewHTTPClient defaults.
func NewOneMapGeocoder(searchURL string, httpClient *http.Client) *OneMapGeocoder {
	if searchURL == "" {
		searchURL = DefaultOneMapSearchURL
	}

	if httpClient == nil {
		httpClient = NewHTTPClient(ClientOptions{})
	}

	return &OneMapGeocoder{
		searchURL:  searchURL,
		httpClient: httpClient,
	}
}

// LATITUDE and LONGITUDE come back as strings, json.Number accepts both forms.
type oneMapResponse struct {
	Found   int `json:"found"`
	Results []struct {
		Latitude  json.Number `json:"LATITUDE"`
		Longitude json.Number `json:"LONGITUDE"`
		Address   string      `json:"ADDRESS"`
	} `json:"results"`
}

// Geocode queries OneMap and keeps the first result.
func (g *OneMapGeocoder) Geocode(ctx context.Context, address string) Result {
	params := url.Values{}
	params.Set("searchVal", address)
	params.Set("returnGeom", "Y")
	params.Set("getAddrDetails", "Y")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.searchURL+"?"+params.Encode(), nil)
	if err != nil {
		return failed(oneMapProvider, address, fmt.Errorf("building request: %w", err))
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return failed(oneMapProvider, address, ClassifyTransportError(err))
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return failed(oneMapProvider, address, ClassifyHTTPError(resp.StatusCode))
	}

	var omResp oneMapResponse
	if err := json.NewDecoder(resp.Body).Decode(&omResp); err != nil {
		return failed(oneMapProvider, address, &GeocodingError{
			Type:    ErrorTypeInvalidResponse,
			Message: "decoding response",
			Err:     err,
		})
	}

	if omResp.Found <= 0 || len(omResp.Results) == 0 {
		return notFound(oneMapProvider, address)
	}

	first := omResp.Results[0]

	lat, err := first.Latitude.Float64()
	if err != nil {
		return failed(oneMapProvider, address, &GeocodingError{
			Type:    ErrorTypeInvalidResponse,
			Message: fmt.Sprintf("parsing latitude %q", first.Latitude),
			Err:     err,
		})
	}

	lng, err := first.Longitude.Float64()
	if err != nil {
		return failed(oneMapProvider, address, &GeocodingError{
			Type:    ErrorTypeInvalidResponse,
			Message: fmt.Sprintf("parsing longitude %q", first.Longitude),
			Err:     err,
		})
	}

	formatted := strings.TrimSpace(first.Address)
	if formatted == "" {
		formatted = address
	}

	return found(lat, lng, formatted)
}
