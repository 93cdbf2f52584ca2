// Copyright 2025 The RouteCO2 Authors
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"context"
	"time"
)

// Pacer spaces out the calls to the geocoding service.
type Pacer interface {
	Pause(ctx context.Context, d time.Duration)
}

// PacerFunc adapts a function to the Pacer interface.
type PacerFunc func(ctx context.Context, d time.Duration)

// Pause calls f.
func (f PacerFunc) Pause(ctx context.Context, d time.Duration) {
	f(ctx, d)
}

// SleepPacer waits for real. A cancelled context ends the pause early.
type SleepPacer struct{}

// Pause implements Pacer.
func (SleepPacer) Pause(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// NoPacing never waits.
var NoPacing Pacer = PacerFunc(func(context.Context, time.Duration) {})
