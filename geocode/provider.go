// Copyright 2025 The RouteCO2 Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"context"
	"fmt"
)

// Provider names accepted by NewProvider.
const (
	ProviderOneMap = "onemap"
	ProviderGoogle = "google"
)

// ProviderOptions selects and configures a geocoding provider.
type ProviderOptions struct {
	// Provider is one of ProviderOneMap (default) or ProviderGoogle
	Provider string

	// SearchURL overrides the provider endpoint
	SearchURL string

	// GoogleAPIKey, when empty, is looked up via ADC using GoogleKeyName
	GoogleAPIKey  string
	GoogleKeyName string
	GoogleRegion  string

	Client ClientOptions
}

// NewProvider builds the configured Geocoder.
func NewProvider(ctx context.Context, options ProviderOptions) (Geocoder, error) {
	switch options.Provider {
	case "", ProviderOneMap:
		return NewOneMapGeocoder(options.SearchURL, NewHTTPClient(options.Client)), nil
	case ProviderGoogle:
		key, err := ResolveGoogleAPIKey(ctx, options.GoogleAPIKey, options.GoogleKeyName)
		if err != nil {
			return nil, fmt.Errorf("configuring google maps geocoder: %w", err)
		}

		// the key travels as a query parameter, never as a bearer token
		client := options.Client
		client.Token = ""

		g := NewGoogleMapsGeocoder(key, options.GoogleRegion, NewHTTPClient(client))
		if options.SearchURL != "" {
			g.baseURL = options.SearchURL
		}

		return g, nil
	default:
		return nil, fmt.Errorf("unknown geocoding provider %q", options.Provider)
	}
}
