// Copyright (c) 2025 The TYT Platform developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package engine

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"

	"gitlab.com/tytlab/core/settlement.core/types/settlement"
)

// RunDistribution settles the fee window: collect the unconsumed fee
// events, split the pool across the configured buckets and sub-divide
// the hashrate providers bucket pro rata. Idempotent per window key —
// a stored result is returned as-is, and a crash between storing the
// result and stamping event consumption is healed on retry.
func (c *Controller) RunDistribution(ctx context.Context, window settlement.Window) (*settlement.DistributionResult, error) {
	if err := window.Validate(); err != nil {
		return nil, settlement.NewErrorf(settlement.ErrValidation, "run distribution: %v", err)
	}

	if existing, err := c.store.Distribution(ctx, window); err == nil {
		// Re-stamp consumption in case the first run died between the
		// two writes. Marking is keyed by event id, so this is safe to
		// repeat any number of times.
		if err := c.store.MarkFeeEventsConsumed(ctx, window, existing.EventIDs); err != nil {
			return nil, errors.Wrapf(err, "re-marking events of window %s", window.Key())
		}
		return existing, nil
	} else if !settlement.IsErrorCode(err, settlement.ErrNotFound) {
		return nil, errors.Wrapf(err, "loading distribution for window %s", window.Key())
	}

	// Distribution refuses to run over corrupted settlement history:
	// every committed batch inside the window must still reproduce its
	// root.
	if err := c.verifyWindowIntegrity(ctx, window); err != nil {
		return nil, err
	}

	events, err := c.store.UnconsumedFeeEvents(ctx, window)
	if err != nil {
		return nil, errors.Wrapf(err, "loading fee events for window %s", window.Key())
	}

	var total settlement.Amount
	eventIDs := make([]string, 0, len(events))
	for _, event := range events {
		if event.Asset != c.params.FeeAsset {
			continue
		}
		// A negative amount would shrink the pool and break the exact
		// bucket-sum invariant; refunds are not fee events.
		if event.Amount < 0 {
			return nil, settlement.NewErrorf(settlement.ErrValidation,
				"fee event %s has negative amount %d", event.ID, event.Amount)
		}
		amount := event.Amount
		if event.SourceType == settlement.FeeSourceMarketplace {
			// Only the platform's share of marketplace fees enters the
			// pool; the remainder belongs to the seller.
			amount = amount.MulBps(c.params.MarketplaceShareBps)
		}
		total += amount
		eventIDs = append(eventIDs, event.ID)
	}

	result := &settlement.DistributionResult{
		Window:      window,
		Asset:       c.params.FeeAsset,
		TotalAmount: total,
		EventCount:  len(eventIDs),
		ComputedAt:  time.Now().UTC(),
		Buckets:     c.splitBuckets(total),
		EventIDs:    eventIDs,
		CharityMint: total.MulBps(c.params.CharityMintBps),
	}

	if hashrate := result.Bucket(BucketHashrateProviders); hashrate != nil && hashrate.Amount > 0 {
		shares, err := c.providerShares(ctx, window, hashrate.Amount)
		if err != nil {
			return nil, err
		}
		result.ProviderShares = shares
	}

	if err := c.store.PutDistribution(ctx, result); err != nil {
		if settlement.IsErrorCode(err, settlement.ErrConflict) {
			// Lost the race. The winner's result is authoritative.
			winner, loadErr := c.store.Distribution(ctx, window)
			if loadErr != nil {
				return nil, errors.Wrapf(loadErr, "loading winning distribution for window %s", window.Key())
			}
			if markErr := c.store.MarkFeeEventsConsumed(ctx, window, winner.EventIDs); markErr != nil {
				return nil, errors.Wrapf(markErr, "re-marking events of window %s", window.Key())
			}
			return winner, nil
		}
		return nil, errors.Wrapf(err, "storing distribution for window %s", window.Key())
	}

	if err := c.store.MarkFeeEventsConsumed(ctx, window, eventIDs); err != nil {
		// The result is durable; consumption re-stamps on the next
		// invocation via EventIDs.
		return nil, errors.Wrapf(err, "marking events of window %s", window.Key())
	}

	log.Info().
		Str("window", window.Key()).
		Str("total", total.String()).
		Int("events", len(eventIDs)).
		Msg("distribution committed")

	return result, nil
}

// splitBuckets slices the pool by the configured bps weights. Floor
// division per bucket; the remainder goes to the remainder bucket so
// the shares always sum exactly to the total.
func (c *Controller) splitBuckets(total settlement.Amount) []settlement.BucketShare {
	shares := make([]settlement.BucketShare, len(c.params.Buckets))
	var allocated settlement.Amount
	for i, bucket := range c.params.Buckets {
		amount := total.MulBps(bucket.Bps)
		shares[i] = settlement.BucketShare{Name: bucket.Name, Bps: bucket.Bps, Amount: amount}
		allocated += amount
	}

	if remainder := total - allocated; remainder > 0 {
		for i := range shares {
			if shares[i].Name == c.params.RemainderBucket {
				shares[i].Amount += remainder
				break
			}
		}
	}
	return shares
}

// providerShares splits the hashrate bucket across the owners of the
// miners active in the window, proportional to their summed attributed
// hashrate. Recipients are ordered by user id and the last one absorbs
// the rounding remainder, so the shares sum exactly to the pool.
func (c *Controller) providerShares(ctx context.Context, window settlement.Window, pool settlement.Amount) ([]settlement.ProviderShare, error) {
	byOwner := make(map[string]float64)
	for t := window.Start.Time(); t.Before(window.End.Time()); t = t.Add(24 * time.Hour) {
		period := settlement.NewPeriodKey(t)
		miners, err := c.store.ActiveMiners(ctx, period)
		if err != nil {
			return nil, errors.Wrapf(err, "loading miners for period %s", period)
		}
		for _, miner := range miners {
			byOwner[miner.OwnerID] += miner.HashrateTH
		}
	}
	if len(byOwner) == 0 {
		return nil, nil
	}

	owners := make([]string, 0, len(byOwner))
	var totalTH float64
	for owner, th := range byOwner {
		owners = append(owners, owner)
		totalTH += th
	}
	sort.Strings(owners)

	if totalTH <= 0 {
		return nil, nil
	}

	shares := make([]settlement.ProviderShare, len(owners))
	var allocated settlement.Amount
	for i, owner := range owners {
		share := settlement.ProviderShare{UserID: owner, HashrateTH: byOwner[owner]}
		if i == len(owners)-1 {
			share.Amount = pool - allocated
		} else {
			share.Amount = settlement.Amount(float64(pool) * byOwner[owner] / totalTH)
			allocated += share.Amount
		}
		shares[i] = share
	}
	return shares, nil
}

// verifyWindowIntegrity recomputes the root of every committed batch in
// the window against its stored records. Periods with no batch are
// fine; a root mismatch halts distribution with ErrIntegrity.
func (c *Controller) verifyWindowIntegrity(ctx context.Context, window settlement.Window) error {
	for t := window.Start.Time(); t.Before(window.End.Time()); t = t.Add(24 * time.Hour) {
		period := settlement.NewPeriodKey(t)

		batch, err := c.store.Batch(ctx, period)
		if err != nil {
			if settlement.IsErrorCode(err, settlement.ErrNotFound) {
				continue
			}
			return errors.Wrapf(err, "loading batch for period %s", period)
		}
		if batch.State != settlement.StateCommitted {
			continue
		}

		records, err := c.store.RewardRecords(ctx, period)
		if err != nil {
			return errors.Wrapf(err, "loading records for period %s", period)
		}
		if err := verifyBatchIntegrity(batch, records); err != nil {
			return err
		}
	}
	return nil
}
