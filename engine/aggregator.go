// Copyright (c) 2025 The TYT Platform developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package engine

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"

	"gitlab.com/tytlab/core/settlement.core/database"
	"gitlab.com/tytlab/core/settlement.core/network/rates"
	"gitlab.com/tytlab/core/settlement.core/types/settlement"
)

// Aggregator turns the period's miner and user snapshots into reward
// records. It owns no state; everything durable lives in the store.
type Aggregator struct {
	store  database.Store
	oracle rates.Source
	params Params
}

// NewAggregator wires the aggregator to its collaborators.
func NewAggregator(store database.Store, oracle rates.Source, params Params) *Aggregator {
	return &Aggregator{store: store, oracle: oracle, params: params}
}

// CollectPeriod computes one reward record per active miner of the
// period and assigns leaf indexes by a single deterministic sort pass
// over (MinerID, UserID). Indexes are never assigned incrementally as
// snapshots stream in; arrival order must not influence leaf order.
//
// A period with no active miners is a validation error: a batch must
// never be opened over zero records.
func (a *Aggregator) CollectPeriod(ctx context.Context, period settlement.PeriodKey) ([]settlement.RewardRecord, error) {
	miners, err := a.store.ActiveMiners(ctx, period)
	if err != nil {
		return nil, errors.Wrapf(err, "loading miners for period %s", period)
	}
	if len(miners) == 0 {
		return nil, settlement.NewErrorf(settlement.ErrValidation,
			"period %s has no active miners, refusing to open an empty batch", period)
	}

	periodRates, err := a.oracle.PeriodRates(ctx, period)
	if err != nil {
		return nil, errors.Wrapf(err, "loading rates for period %s", period)
	}

	// Users appear once per owner even when they run several miners.
	users := make(map[string]*settlement.UserSnapshot)
	for _, miner := range miners {
		if _, ok := users[miner.OwnerID]; ok {
			continue
		}
		user, err := a.store.UserSnapshot(ctx, miner.OwnerID)
		if err != nil {
			if settlement.IsErrorCode(err, settlement.ErrNotFound) {
				// No profile means no discounts and full claimable.
				user = &settlement.UserSnapshot{UserID: miner.OwnerID}
			} else {
				return nil, errors.Wrapf(err, "loading user %s", miner.OwnerID)
			}
		}
		users[miner.OwnerID] = user
	}

	periodClose := period.Time().Add(24 * time.Hour)

	records := make([]settlement.RewardRecord, 0, len(miners))
	for _, miner := range miners {
		user := users[miner.OwnerID]
		records = append(records, a.settleMiner(&miner, user, periodRates, period, periodClose))
	}

	// One deterministic ordering pass fixes the leaf indexes for good.
	sort.Slice(records, func(i, j int) bool {
		if records[i].MinerID != records[j].MinerID {
			return records[i].MinerID < records[j].MinerID
		}
		return records[i].UserID < records[j].UserID
	})
	for i := range records {
		records[i].LeafIndex = uint32(i)
	}

	log.Info().
		Str("period", period.String()).
		Int("records", len(records)).
		Msg("period aggregated")

	return records, nil
}

// settleMiner prices one miner's period: gross from attributed
// hashrate, maintenance from electricity and service fee net of
// discounts, and the reinvest/claimable split of the result.
func (a *Aggregator) settleMiner(miner *settlement.MinerSnapshot, user *settlement.UserSnapshot,
	periodRates *rates.PeriodRates, period settlement.PeriodKey, periodClose time.Time) settlement.RewardRecord {

	gross := settlement.Amount(miner.HashrateTH * float64(periodRates.YieldPerTH))

	// Region-priced miners pay their own USD/kWh rate converted at the
	// period's exchange rate; the rest pay the flat period rate.
	dailyKWh := miner.HashrateTH * miner.EfficiencyWTH * 24 / 1000
	electricity := settlement.Amount(dailyKWh * float64(periodRates.ElectricityFor(miner.RegionRateKWh)))
	serviceFee := gross.MulBps(a.params.ServiceFeeBps)
	baseCost := electricity + serviceFee

	discount := baseCost.MulBps(a.params.discountBps(user, baseCost, periodClose))
	maintenance := baseCost - discount

	// Net never goes negative: an underwater miner accrues maintenance
	// debt instead, tracked separately from the reward itself.
	net := gross - maintenance
	debt := settlement.Amount(0)
	if net < 0 {
		debt = -net
		net = 0
	}

	// Claimable is derived by subtraction so the two shares always sum
	// exactly to net, whatever the rounding of the reinvest cut.
	reinvest := net.MulPct(user.ReinvestPercent)
	claimable := net - reinvest

	return settlement.RewardRecord{
		MinerID:         miner.MinerID,
		UserID:          miner.OwnerID,
		PeriodKey:       period,
		HashrateTH:      miner.HashrateTH,
		Gross:           gross,
		MaintenanceCost: maintenance,
		Net:             net,
		MaintenanceDebt: debt,
		ReinvestShare:   reinvest,
		ClaimableShare:  claimable,
	}
}
