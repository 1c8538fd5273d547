// Copyright (c) 2025 The TYT Platform developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package engine

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"gitlab.com/tytlab/core/settlement.core/database"
	"gitlab.com/tytlab/core/settlement.core/network/rates"
	"gitlab.com/tytlab/core/settlement.core/types/chainhash"
	"gitlab.com/tytlab/core/settlement.core/types/settlement"
)

// conflictPollInterval is how often a race loser re-reads the store
// while waiting for the winner's commit.
const conflictPollInterval = 50 * time.Millisecond

// Controller drives the settlement state machine. It is safe for
// concurrent use; all coordination goes through the store.
type Controller struct {
	store      database.Store
	aggregator *Aggregator
	params     Params
}

// NewController validates the parameters and wires the engine.
func NewController(store database.Store, oracle rates.Source, params Params) (*Controller, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Controller{
		store:      store,
		aggregator: NewAggregator(store, oracle, params),
		params:     params,
	}, nil
}

// ClosePeriod settles one period: aggregate rewards, build the merkle
// tree, commit root and layers. It is idempotent per period key — any
// number of invocations, sequential or concurrent, observe exactly one
// committed batch, and retries after a timeout are safe.
func (c *Controller) ClosePeriod(ctx context.Context, period settlement.PeriodKey) (*settlement.MerkleBatch, error) {
	if _, err := settlement.ParsePeriodKey(string(period)); err != nil {
		return nil, settlement.NewErrorf(settlement.ErrValidation, "close period: %v", err)
	}

	claimed, err := c.store.BeginBatch(ctx, period)
	if err != nil {
		if settlement.IsErrorCode(err, settlement.ErrConflict) {
			// Someone else is building this period. Wait for their
			// commit and hand their batch back; the race is not an
			// error for our caller.
			return c.waitForCommit(ctx, period)
		}
		return nil, errors.Wrapf(err, "claiming period %s", period)
	}

	if claimed.State == settlement.StateCommitted {
		log.Debug().Str("period", period.String()).Msg("period already committed")
		return claimed, nil
	}

	batch, err := c.buildBatch(ctx, period)
	if err != nil {
		// No partial state may survive a failed build: release the
		// claim so a later invocation can start clean.
		if abortErr := c.store.AbortBatch(ctx, period); abortErr != nil {
			log.Error().Err(abortErr).Str("period", period.String()).Msg("abort after failed build")
		}
		return nil, err
	}

	if err := c.store.CommitBatch(ctx, batch); err != nil {
		return nil, errors.Wrapf(err, "committing period %s", period)
	}
	batch.State = settlement.StateCommitted

	if err := c.store.StampMerkleRoot(ctx, period, batch.Root); err != nil {
		// The batch is committed; the stamp is derivable and a retry
		// of any proof request will still find the root on the batch.
		log.Error().Err(err).Str("period", period.String()).Msg("stamping merkle root")
	}

	log.Info().
		Str("period", period.String()).
		Str("root", batch.Root.String()).
		Uint32("records", batch.RecordCount).
		Msg("period committed")

	return batch, nil
}

// buildBatch aggregates the period and constructs the full tree. It
// writes reward records but leaves the batch claim untouched; the
// caller owns the commit or abort.
func (c *Controller) buildBatch(ctx context.Context, period settlement.PeriodKey) (*settlement.MerkleBatch, error) {
	records, err := c.aggregator.CollectPeriod(ctx, period)
	if err != nil {
		return nil, err
	}

	if err := c.store.PutRewardRecords(ctx, period, records); err != nil {
		return nil, errors.Wrapf(err, "storing reward records for period %s", period)
	}

	leaves := make([]chainhash.Hash, len(records))
	for i := range records {
		leaves[records[i].LeafIndex] = settlement.LeafHash(&records[i])
	}

	layers := chainhash.BuildMerkleTreeLayers(leaves)
	if layers == nil {
		return nil, settlement.NewErrorf(settlement.ErrValidation,
			"period %s produced no leaves", period)
	}

	// A cancelled build must never commit.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &settlement.MerkleBatch{
		PeriodKey:   period,
		State:       settlement.StateBuilding,
		Leaves:      leaves,
		Layers:      layers,
		Root:        layers[len(layers)-1][0],
		RecordCount: uint32(len(records)),
		CommittedAt: time.Now().UTC(),
	}, nil
}

// waitForCommit polls for the winner's committed batch. Give-up is
// bounded by both the context and the configured timeout; running out
// surfaces as a transient error, safe to retry.
func (c *Controller) waitForCommit(ctx context.Context, period settlement.PeriodKey) (*settlement.MerkleBatch, error) {
	deadline := time.Now().Add(c.params.ConflictWaitTimeout.D())

	for {
		batch, err := c.store.Batch(ctx, period)
		switch {
		case err == nil && batch.State == settlement.StateCommitted:
			return batch, nil
		case err != nil && !settlement.IsErrorCode(err, settlement.ErrNotFound):
			return nil, errors.Wrapf(err, "waiting for period %s", period)
		}

		if time.Now().After(deadline) {
			return nil, settlement.NewErrorf(settlement.ErrTransientStore,
				"timed out waiting for concurrent build of period %s", period)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(conflictPollInterval):
		}
	}
}
