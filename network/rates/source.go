// Copyright (c) 2025 The TYT Platform developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package rates supplies the external market inputs of reward
// aggregation: the daily mining yield per TH and the electricity price
// expressed in BTC minor units. Float arithmetic stays inside this
// package; the engine only ever sees fixed-point amounts.
package rates

import (
	"context"

	"gitlab.com/tytlab/core/settlement.core/types/settlement"
)

// PeriodRates are the conversion rates of one settlement period.
type PeriodRates struct {
	// YieldPerTH is the gross mining output per TH/s for the period, in
	// minor units.
	YieldPerTH settlement.Amount `json:"yield_per_th"`

	// ElectricityPerKWh is the flat cost of one kWh converted to minor
	// units at the period's exchange rate. Used for miners without a
	// region-specific rate.
	ElectricityPerKWh settlement.Amount `json:"electricity_per_kwh"`

	// PriceUSD is the exchange rate the period was priced at. It lets
	// per-miner USD electricity rates be converted to minor units
	// without repeating the float conversion outside this package.
	PriceUSD float64 `json:"price_usd"`
}

// ElectricityFor prices one kWh for a miner. A positive region rate in
// USD/kWh is converted at the period's exchange rate; otherwise the
// flat period rate applies.
func (r *PeriodRates) ElectricityFor(regionUSDPerKWh float64) settlement.Amount {
	if regionUSDPerKWh <= 0 || r.PriceUSD <= 0 {
		return r.ElectricityPerKWh
	}
	return settlement.Amount(regionUSDPerKWh / r.PriceUSD * 1e8)
}

// Source yields the rates for a period. Implementations must bound
// their I/O with the passed context; a timeout is an unknown outcome
// and the caller may retry safely because period settlement is
// idempotent.
type Source interface {
	PeriodRates(ctx context.Context, period settlement.PeriodKey) (*PeriodRates, error)
}

// Static is a Source with fixed rates, for tests and replays.
type Static struct {
	Rates PeriodRates
}

func (s Static) PeriodRates(_ context.Context, _ settlement.PeriodKey) (*PeriodRates, error) {
	rates := s.Rates
	return &rates, nil
}

// Derive converts raw market observations into period rates. All float
// to fixed-point conversion happens here, once, so the engine's sums
// stay exact.
//
// The yield follows the standard difficulty model: the network's total
// hashrate in TH/s is difficulty * 2^32 / 600 / 1e12, and one TH/s
// earns its proportional share of blockReward * blocksPerDay.
func Derive(difficulty, blockReward float64, blocksPerDay int, priceUSD, electricityUSDPerKWh float64) PeriodRates {
	networkTH := difficulty * 4294967296.0 / 600.0 / 1e12
	dailyBTCPerTH := blockReward * float64(blocksPerDay) / networkTH

	return PeriodRates{
		YieldPerTH:        settlement.Amount(dailyBTCPerTH * 1e8),
		ElectricityPerKWh: settlement.Amount(electricityUSDPerKWh / priceUSD * 1e8),
		PriceUSD:          priceUSD,
	}
}
