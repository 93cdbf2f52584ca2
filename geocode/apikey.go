// Copyright 2025 The RouteCO2 Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"context"
	"errors"
	"fmt"
	"log"

	apikeys "cloud.google.com/go/apikeys/apiv2"
	"cloud.google.com/go/apikeys/apiv2/apikeyspb"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/iterator"
)

// ErrNoAPIKey is returned when no Google Maps key could be found.
var ErrNoAPIKey = errors.New("no google maps api key")

// ResolveGoogleAPIKey returns key when it is set. Otherwise it looks up, with
// Application Default Credentials, the API key whose display name is
// displayName in the ADC project.
func ResolveGoogleAPIKey(ctx context.Context, key, displayName string) (string, error) {
	if key != "" {
		return key, nil
	}

	if displayName == "" {
		return "", ErrNoAPIKey
	}

	log.Println("GOOGLE_MAPS_API_KEY is not set. Attempting to retrieve via ADC...")

	creds, err := google.FindDefaultCredentials(ctx, "https://www.googleapis.com/auth/cloud-platform")
	if err != nil {
		return "", fmt.Errorf("%w: finding default credentials: %w", ErrNoAPIKey, err)
	}

	if creds.ProjectID == "" {
		return "", fmt.Errorf("%w: default credentials carry no project id", ErrNoAPIKey)
	}

	client, err := apikeys.NewClient(ctx)
	if err != nil {
		return "", fmt.Errorf("creating apikeys client: %w", err)
	}
	defer client.Close()

	it := client.ListKeys(ctx, &apikeyspb.ListKeysRequest{
		Parent: fmt.Sprintf("projects/%s/locations/global", creds.ProjectID),
	})

	for {
		key, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}

		if err != nil {
			return "", fmt.Errorf("listing keys: %w", err)
		}

		if key.DisplayName != displayName {
			continue
		}

		// ListKeys redacts the secret, GetKeyString returns it.
		resp, err := client.GetKeyString(ctx, &apikeyspb.GetKeyStringRequest{Name: key.Name})
		if err != nil {
			return "", fmt.Errorf("getting key string: %w", err)
		}

		if resp.KeyString == "" {
			return "", fmt.Errorf("%w: key %q has an empty key string", ErrNoAPIKey, displayName)
		}

		log.Println("✅ Retrieved Google Maps API Key via ADC")

		return resp.KeyString, nil
	}

	return "", fmt.Errorf("%w: no key named %q in project %s", ErrNoAPIKey, displayName, creds.ProjectID)
}
