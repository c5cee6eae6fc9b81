// Copyright (C) 2026 RALF Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package discovery

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestProbeSuccess(t *testing.T) {
	p := NewProber(100, 4)
	res := p.Probe(context.Background(), "echoer", []string{"echo", "ok"}, DeliveryArgv, time.Second)
	require.Equal(t, OutcomeSuccess, res.Outcome)
}

func TestProbeRateLimited(t *testing.T) {
	p := NewProber(100, 4)
	res := p.Probe(context.Background(), "limiter", []string{"echo", "Rate limit exceeded, quota used"}, DeliveryArgv, time.Second)
	require.Equal(t, OutcomeRateLimited, res.Outcome)
}

func TestProbeNeedsAuth(t *testing.T) {
	p := NewProber(100, 4)
	res := p.Probe(context.Background(), "locked", []string{"echo", "Error: not authenticated"}, DeliveryArgv, time.Second)
	require.Equal(t, OutcomeNeedsAuth, res.Outcome)
}

func TestProbeAuthTokenIgnoredWhenLoaded(t *testing.T) {
	p := NewProber(100, 4)
	res := p.Probe(context.Background(), "cached", []string{"echo", "Loaded cached auth, success"}, DeliveryArgv, time.Second)
	require.Equal(t, OutcomeSuccess, res.Outcome)
}

func TestProbeResetTimeExtracted(t *testing.T) {
	p := NewProber(100, 4)
	res := p.Probe(context.Background(), "limiter", []string{"echo", "quota exceeded, try again at 5:00 PM"}, DeliveryArgv, time.Second)
	require.Equal(t, OutcomeRateLimited, res.Outcome)
	require.Equal(t, "5:00 PM", res.ResetTime)
}

func TestProbeMissingArgvErrors(t *testing.T) {
	p := NewProber(100, 4)
	res := p.Probe(context.Background(), "nothing", nil, DeliveryArgv, time.Second)
	require.Equal(t, OutcomeError, res.Outcome)
}

func TestDiscoverAllHandlesMissingBinary(t *testing.T) {
	findings, err := DiscoverAll(context.Background(), []AdapterSpec{
		{Name: "ghost", Argv: []string{"definitely-not-a-real-binary-xyz"}},
	}, 2)
	require.NoError(t, err)
	require.Len(t, findings, 1)
	require.False(t, findings[0].Found)
}
