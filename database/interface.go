// Copyright (c) 2025 The TYT Platform developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package database

import (
	"context"

	"gitlab.com/tytlab/core/settlement.core/types/chainhash"
	"gitlab.com/tytlab/core/settlement.core/types/settlement"
)

// Store is the record CRUD surface the settlement engine runs against.
//
// Error contract: domain conditions come back as settlement.Error
// values (ErrNotFound for missing keys, ErrConflict when a unique
// insert loses a race); backend I/O failures are returned wrapped and
// are treated as transient by the engine, since every write below is
// idempotent by key.
//
// Every call honours cancellation of the passed context.
type Store interface {
	// --- aggregation inputs -------------------------------------------------

	// ActiveMiners returns the snapshots of miners active in the given
	// period, in unspecified order. Leaf ordering is assigned later by
	// the engine's deterministic sort, never by this read.
	ActiveMiners(ctx context.Context, period settlement.PeriodKey) ([]settlement.MinerSnapshot, error)

	// UserSnapshot returns the discount/reinvest inputs for one user.
	UserSnapshot(ctx context.Context, userID string) (*settlement.UserSnapshot, error)

	// PutMinerSnapshots and PutUserSnapshot seed the inputs; used by
	// the ingestion path and by tests.
	PutMinerSnapshots(ctx context.Context, period settlement.PeriodKey, miners []settlement.MinerSnapshot) error
	PutUserSnapshot(ctx context.Context, user *settlement.UserSnapshot) error

	// --- reward records -----------------------------------------------------

	// PutRewardRecords writes the period's records. Keyed by (period,
	// miner), so a retry overwrites with identical content instead of
	// duplicating.
	PutRewardRecords(ctx context.Context, period settlement.PeriodKey, records []settlement.RewardRecord) error

	// RewardRecords returns the period's records in ascending leaf
	// index order. ErrNotFound when the period has none.
	RewardRecords(ctx context.Context, period settlement.PeriodKey) ([]settlement.RewardRecord, error)

	// StampMerkleRoot sets the committed root on every record of the
	// period.
	StampMerkleRoot(ctx context.Context, period settlement.PeriodKey, root chainhash.Hash) error

	// --- merkle batches -----------------------------------------------------

	// BeginBatch atomically claims the period for building. On the
	// first call it persists a Building marker and returns nil. If the
	// period is already claimed or committed it returns ErrConflict or
	// the committed batch respectively; only one concurrent caller ever
	// wins the claim.
	BeginBatch(ctx context.Context, period settlement.PeriodKey) (*settlement.MerkleBatch, error)

	// CommitBatch transitions Building -> Committed, persisting the
	// full batch (leaves, layers, root). Committing an already
	// committed period is a no-op returning the stored batch.
	CommitBatch(ctx context.Context, batch *settlement.MerkleBatch) error

	// AbortBatch removes a Building marker after a failed or cancelled
	// build so a later attempt can claim the period again. Aborting a
	// committed batch is an error.
	AbortBatch(ctx context.Context, period settlement.PeriodKey) error

	// Batch returns the batch for the period, ErrNotFound if none.
	Batch(ctx context.Context, period settlement.PeriodKey) (*settlement.MerkleBatch, error)

	// --- fee events & distribution ------------------------------------------

	// PutFeeEvents ingests fee events, keyed by event id.
	PutFeeEvents(ctx context.Context, events []settlement.FeeEvent) error

	// UnconsumedFeeEvents returns the events inside the window that no
	// prior distribution has consumed, ordered by event id.
	UnconsumedFeeEvents(ctx context.Context, window settlement.Window) ([]settlement.FeeEvent, error)

	// MarkFeeEventsConsumed stamps the events with the window key so
	// they can never be counted in a second window.
	MarkFeeEventsConsumed(ctx context.Context, window settlement.Window, eventIDs []string) error

	// PutDistribution persists the window's result. ErrConflict when a
	// different result is already stored for the window.
	PutDistribution(ctx context.Context, result *settlement.DistributionResult) error

	// Distribution returns the stored result, ErrNotFound if none.
	Distribution(ctx context.Context, window settlement.Window) (*settlement.DistributionResult, error)

	// Close releases backend resources.
	Close() error
}
