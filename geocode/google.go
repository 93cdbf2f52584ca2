// Copyright 2025 The RouteCO2 Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// DefaultGoogleMapsURL is the Google Maps Geocoding API endpoint.
const DefaultGoogleMapsURL = "https://maps.googleapis.com/maps/api/geocode/json"

const googleProvider = "google_maps"

// GoogleMapsGeocoder uses Google Maps Geocoding API.
type GoogleMapsGeocoder struct {
	apiKey     string
	region     string
	baseURL    string
	httpClient *http.Client
}

// NewGoogleMapsGeocoder creates a new Google Maps geocoder. region is a ccTLD
// used to bias the results, it may be empty.
func NewGoogleMapsGeocoder(apiKey, region string, httpClient *http.Client) *GoogleMapsGeocoder {
	if httpClient == nil {
		httpClient = NewHTTPClient(ClientOptions{})
	}

	return &GoogleMapsGeocoder{
		apiKey:     apiKey,
		region:     region,
		baseURL:    DefaultGoogleMapsURL,
		httpClient: httpClient,
	}
}

type googleMapsResponse struct {
	Results []struct {
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
		FormattedAddress string `json:"formatted_address"`
	} `json:"results"`
	Status       string `json:"status"` // OK, ZERO_RESULTS, OVER_QUERY_LIMIT, REQUEST_DENIED, ...
	ErrorMessage string `json:"error_message"`
}

// Geocode queries Google Maps and keeps the first result.
func (g *GoogleMapsGeocoder) Geocode(ctx context.Context, address string) Result {
	params := url.Values{}
	params.Set("address", address)
	params.Set("key", g.apiKey)

	if g.region != "" {
		params.Set("region", g.region)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return failed(googleProvider, address, fmt.Errorf("building request: %w", err))
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return failed(googleProvider, address, ClassifyTransportError(err))
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return failed(googleProvider, address, ClassifyHTTPError(resp.StatusCode))
	}

	var gmResp googleMapsResponse
	if err := json.NewDecoder(resp.Body).Decode(&gmResp); err != nil {
		return failed(googleProvider, address, &GeocodingError{
			Type:    ErrorTypeInvalidResponse,
			Message: "decoding response",
			Err:     err,
		})
	}

	switch gmResp.Status {
	case "OK":
	case "ZERO_RESULTS":
		return notFound(googleProvider, address)
	case "OVER_QUERY_LIMIT":
		return failed(googleProvider, address, &GeocodingError{Type: ErrorTypeRateLimit, Message: gmResp.ErrorMessage})
	case "REQUEST_DENIED":
		return failed(googleProvider, address, &GeocodingError{Type: ErrorTypeQuotaExceeded, Message: gmResp.ErrorMessage})
	case "INVALID_REQUEST":
		return failed(googleProvider, address, &GeocodingError{Type: ErrorTypeInvalidRequest, Message: gmResp.ErrorMessage})
	default:
		return failed(googleProvider, address, &GeocodingError{
			Type:    ErrorTypeUnknown,
			Message: fmt.Sprintf("google maps status: %s", gmResp.Status),
		})
	}

	if len(gmResp.Results) == 0 {
		return notFound(googleProvider, address)
	}

	result := gmResp.Results[0]

	formatted := result.FormattedAddress
	if formatted == "" {
		formatted = address
	}

	return found(result.Geometry.Location.Lat, result.Geometry.Location.Lng, formatted)
}
