// Copyright (c) 2025 The TYT Platform developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rates

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDerive(t *testing.T) {
	// Difficulty 109.78T, 3.125 BTC blocks, 144 blocks a day. The
	// network runs ~785.8 EH/s, so one TH/s earns ~57 sat a day.
	rates := Derive(109780000000000, 3.125, 144, 95000, 0.05)

	assert.InDelta(t, 57, float64(rates.YieldPerTH), 2)

	// 0.05 USD at 95000 USD/BTC is ~52.6 sat per kWh.
	assert.EqualValues(t, 52, rates.ElectricityPerKWh)
	assert.EqualValues(t, 95000, rates.PriceUSD)
}

func TestElectricityForRegionRate(t *testing.T) {
	rates := PeriodRates{ElectricityPerKWh: 52, PriceUSD: 100000}

	// A region-specific USD rate converts at the period price.
	assert.EqualValues(t, 80, rates.ElectricityFor(0.08))

	// Zero region rate means the flat period rate.
	assert.EqualValues(t, 52, rates.ElectricityFor(0))

	// Without a period price there is nothing to convert with.
	flat := PeriodRates{ElectricityPerKWh: 52}
	assert.EqualValues(t, 52, flat.ElectricityFor(0.08))
}

func TestStaticSource(t *testing.T) {
	source := Static{Rates: PeriodRates{YieldPerTH: 57, ElectricityPerKWh: 52}}

	rates, err := source.PeriodRates(context.Background(), "2024-03-01")
	require.NoError(t, err)
	assert.EqualValues(t, 57, rates.YieldPerTH)
	assert.EqualValues(t, 52, rates.ElectricityPerKWh)
}

func TestHTTPSourceLivePrice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"bitcoin":{"usd":100000}}`))
	}))
	defer server.Close()

	cfg := DefaultHTTPConfig()
	cfg.PriceURL = server.URL
	source := NewHTTPSource(cfg)

	rates, err := source.PeriodRates(context.Background(), "2024-03-01")
	require.NoError(t, err)

	// Electricity reprices with the live quote: 0.05/100000 BTC per kWh.
	assert.EqualValues(t, 50, rates.ElectricityPerKWh)
	assert.EqualValues(t, 100000, rates.PriceUSD)
}

func TestHTTPSourceFallbackPrice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	cfg := DefaultHTTPConfig()
	cfg.PriceURL = server.URL
	source := NewHTTPSource(cfg)

	rates, err := source.PeriodRates(context.Background(), "2024-03-01")
	require.NoError(t, err)

	// Unreachable oracle falls back to the configured price instead of
	// blocking settlement.
	assert.EqualValues(t, 52, rates.ElectricityPerKWh)
}

func TestHTTPSourceNoFallbackPropagatesError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg := DefaultHTTPConfig()
	cfg.PriceURL = server.URL
	cfg.FallbackPriceUSD = 0
	source := NewHTTPSource(cfg)

	_, err := source.PeriodRates(context.Background(), "2024-03-01")
	require.Error(t, err)
}
