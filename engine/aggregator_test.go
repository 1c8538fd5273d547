// Copyright (c) 2025 The TYT Platform developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/tytlab/core/settlement.core/network/rates"
	"gitlab.com/tytlab/core/settlement.core/types/settlement"
)

func TestCollectPeriodDeterministicOrder(t *testing.T) {
	params := flatParams()
	oracle := flatRates()

	// Same snapshots in two different arrival orders.
	controllerA, _ := newTestController(t, params, oracle)
	seedMiners(t, controllerStore(controllerA), testPeriod, map[string]float64{
		"m3": 75, "m1": 100, "m2": 250,
	})
	controllerB, _ := newTestController(t, params, oracle)
	seedMiners(t, controllerStore(controllerB), testPeriod, map[string]float64{
		"m1": 100, "m2": 250, "m3": 75,
	})

	recordsA, err := controllerA.aggregator.CollectPeriod(context.Background(), testPeriod)
	require.NoError(t, err)
	recordsB, err := controllerB.aggregator.CollectPeriod(context.Background(), testPeriod)
	require.NoError(t, err)

	require.Equal(t, recordsA, recordsB)
	for i, record := range recordsA {
		assert.EqualValues(t, i, record.LeafIndex)
	}
	assert.Equal(t, "m1", recordsA[0].MinerID)
	assert.Equal(t, "m3", recordsA[2].MinerID)
}

func TestSettleMinerDebtFloor(t *testing.T) {
	controller, store := newTestController(t, DefaultParams(),
		rates.Static{Rates: rates.PeriodRates{YieldPerTH: 10, ElectricityPerKWh: 100000}})

	// A power-hungry miner whose electricity dwarfs its output.
	require.NoError(t, store.PutMinerSnapshots(context.Background(), testPeriod,
		[]settlement.MinerSnapshot{{
			MinerID:       "m1",
			OwnerID:       "u1",
			HashrateTH:    10,
			EfficiencyWTH: 50,
			Active:        true,
		}}))

	records, err := controller.aggregator.CollectPeriod(context.Background(), testPeriod)
	require.NoError(t, err)
	require.Len(t, records, 1)

	record := records[0]
	assert.EqualValues(t, 0, record.Net)
	assert.Greater(t, record.MaintenanceDebt, settlement.Amount(0))
	assert.Equal(t, record.MaintenanceCost-record.Gross, record.MaintenanceDebt)
	assert.EqualValues(t, 0, record.ReinvestShare)
	assert.EqualValues(t, 0, record.ClaimableShare)
}

func TestSettleMinerReinvestSplit(t *testing.T) {
	controller, store := newTestController(t, flatParams(),
		rates.Static{Rates: rates.PeriodRates{YieldPerTH: 7}})

	require.NoError(t, store.PutMinerSnapshots(context.Background(), testPeriod,
		[]settlement.MinerSnapshot{{MinerID: "m1", OwnerID: "u1", HashrateTH: 143, Active: true}}))
	require.NoError(t, store.PutUserSnapshot(context.Background(),
		&settlement.UserSnapshot{UserID: "u1", ReinvestPercent: 33}))

	records, err := controller.aggregator.CollectPeriod(context.Background(), testPeriod)
	require.NoError(t, err)
	require.Len(t, records, 1)

	record := records[0]
	assert.EqualValues(t, 1001, record.Net)
	assert.EqualValues(t, 330, record.ReinvestShare)
	// Claimable takes the rounding slack so the split sums exactly.
	assert.Equal(t, record.Net, record.ReinvestShare+record.ClaimableShare)
}

func TestSettleMinerDiscounts(t *testing.T) {
	params := DefaultParams()
	oracle := rates.Static{Rates: rates.PeriodRates{YieldPerTH: 1000, ElectricityPerKWh: 0}}

	// Gross 100000, service fee 15% -> base cost 15000.
	seed := func(user *settlement.UserSnapshot) settlement.RewardRecord {
		controller, store := newTestController(t, params, oracle)
		require.NoError(t, store.PutMinerSnapshots(context.Background(), testPeriod,
			[]settlement.MinerSnapshot{{MinerID: "m1", OwnerID: user.UserID, HashrateTH: 100, Active: true}}))
		require.NoError(t, store.PutUserSnapshot(context.Background(), user))

		records, err := controller.aggregator.CollectPeriod(context.Background(), testPeriod)
		require.NoError(t, err)
		require.Len(t, records, 1)
		return records[0]
	}

	plain := seed(&settlement.UserSnapshot{UserID: "u1"})
	assert.EqualValues(t, 15000, plain.MaintenanceCost)

	// VIP 10% + token payment 2% off the base cost.
	vip := seed(&settlement.UserSnapshot{UserID: "u2", VIPDiscountBps: 1000, TokenPayment: true})
	assert.EqualValues(t, 13200, vip.MaintenanceCost)

	// Service button pressed within the 24h window adds 3%.
	pressed := seed(&settlement.UserSnapshot{
		UserID:           "u3",
		ServicePressedAt: testPeriod.Time().Add(12 * time.Hour),
	})
	assert.EqualValues(t, 14550, pressed.MaintenanceCost)

	// 30-day maintenance coverage grants the 5% tier.
	covered := seed(&settlement.UserSnapshot{
		UserID:             "u4",
		MaintenanceBalance: 15000 * 30,
	})
	assert.EqualValues(t, 14250, covered.MaintenanceCost)

	// Stacked discounts never exceed the 50% cap.
	maxed := seed(&settlement.UserSnapshot{
		UserID:             "u5",
		VIPDiscountBps:     4500,
		TokenPayment:       true,
		ServicePressedAt:   testPeriod.Time().Add(12 * time.Hour),
		MaintenanceBalance: 15000 * 360,
	})
	assert.EqualValues(t, 7500, maxed.MaintenanceCost)
}

func TestSettleMinerRegionRate(t *testing.T) {
	controller, store := newTestController(t, flatParams(),
		rates.Static{Rates: rates.PeriodRates{
			YieldPerTH:        100000,
			ElectricityPerKWh: 50,
			PriceUSD:          100000,
		}})

	// Three otherwise identical miners: two region-priced at a 10x
	// rate spread, one on the flat period rate.
	require.NoError(t, store.PutMinerSnapshots(context.Background(), testPeriod,
		[]settlement.MinerSnapshot{
			{MinerID: "m1", OwnerID: "u1", HashrateTH: 10, EfficiencyWTH: 50, RegionRateKWh: 0.05, Active: true},
			{MinerID: "m2", OwnerID: "u1", HashrateTH: 10, EfficiencyWTH: 50, RegionRateKWh: 0.5, Active: true},
			{MinerID: "m3", OwnerID: "u1", HashrateTH: 10, EfficiencyWTH: 50, Active: true},
		}))

	records, err := controller.aggregator.CollectPeriod(context.Background(), testPeriod)
	require.NoError(t, err)
	require.Len(t, records, 3)

	// 12 kWh/day; 0.05 USD at 100000 USD/BTC is 50 minor units per kWh.
	assert.EqualValues(t, 600, records[0].MaintenanceCost)
	assert.EqualValues(t, 6000, records[1].MaintenanceCost)
	assert.Equal(t, 10*records[0].MaintenanceCost, records[1].MaintenanceCost,
		"region rate must reach the electricity price")

	// No region rate falls back to the flat period rate.
	assert.Equal(t, records[0].MaintenanceCost, records[2].MaintenanceCost)
}

func TestCollectPeriodUnknownUserDefaults(t *testing.T) {
	controller, store := newTestController(t, flatParams(), flatRates())
	require.NoError(t, store.PutMinerSnapshots(context.Background(), testPeriod,
		[]settlement.MinerSnapshot{{MinerID: "m1", OwnerID: "ghost", HashrateTH: 50, Active: true}}))

	records, err := controller.aggregator.CollectPeriod(context.Background(), testPeriod)
	require.NoError(t, err)
	require.Len(t, records, 1)

	// No profile: no discounts, no reinvest, everything claimable.
	assert.EqualValues(t, 0, records[0].ReinvestShare)
	assert.Equal(t, records[0].Net, records[0].ClaimableShare)
}
