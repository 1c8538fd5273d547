// Copyright (c) 2025 The TYT Platform developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package database_test

import (
	"context"
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/tytlab/core/settlement.core/database"
	_ "gitlab.com/tytlab/core/settlement.core/database/badgerdb"
	_ "gitlab.com/tytlab/core/settlement.core/database/memdb"
	"gitlab.com/tytlab/core/settlement.core/types/chainhash"
	"gitlab.com/tytlab/core/settlement.core/types/settlement"
)

func TestSupportedDrivers(t *testing.T) {
	assert.ElementsMatch(t, []string{"memdb", "badgerdb"}, database.SupportedDrivers())

	_, err := database.Open("bolt")
	assert.Error(t, err)
}

func openStores(t *testing.T) map[string]database.Store {
	memStore, err := database.Open("memdb")
	require.NoError(t, err)

	badgerStore, err := database.Open("badgerdb", t.TempDir())
	require.NoError(t, err)

	return map[string]database.Store{
		"memdb":    memStore,
		"badgerdb": badgerStore,
	}
}

func TestStoreRewardRecords(t *testing.T) {
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			defer store.Close()
			ctx := context.Background()
			period := settlement.PeriodKey("2025-06-01")

			_, err := store.RewardRecords(ctx, period)
			assert.True(t, settlement.IsErrorCode(err, settlement.ErrNotFound))

			records := []settlement.RewardRecord{
				{MinerID: "m2", UserID: "u1", PeriodKey: period, Net: 250, LeafIndex: 1},
				{MinerID: "m1", UserID: "u1", PeriodKey: period, Net: 100, LeafIndex: 0},
			}
			require.NoError(t, store.PutRewardRecords(ctx, period, records))

			got, err := store.RewardRecords(ctx, period)
			require.NoError(t, err)
			require.Len(t, got, 2)
			assert.Equal(t, "m1", got[0].MinerID, "records come back in leaf index order")
			assert.Equal(t, "m2", got[1].MinerID)

			root := chainhash.HashH([]byte("root"))
			require.NoError(t, store.StampMerkleRoot(ctx, period, root))
			got, err = store.RewardRecords(ctx, period)
			require.NoError(t, err)
			assert.Equal(t, root, got[0].MerkleRoot)
			assert.Equal(t, root, got[1].MerkleRoot)
		})
	}
}

func TestStoreBatchLifecycle(t *testing.T) {
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			defer store.Close()
			ctx := context.Background()
			period := settlement.PeriodKey("2025-06-01")

			claimed, err := store.BeginBatch(ctx, period)
			require.NoError(t, err)
			assert.Equal(t, settlement.StateBuilding, claimed.State)

			// Second claim while building loses the race.
			_, err = store.BeginBatch(ctx, period)
			assert.True(t, settlement.IsErrorCode(err, settlement.ErrConflict))

			leaves := []chainhash.Hash{chainhash.HashH([]byte("a")), chainhash.HashH([]byte("b"))}
			batch := &settlement.MerkleBatch{
				PeriodKey:   period,
				Leaves:      leaves,
				Layers:      chainhash.BuildMerkleTreeLayers(leaves),
				Root:        chainhash.MerkleTreeRoot(leaves),
				RecordCount: 2,
				CommittedAt: time.Now().UTC(),
			}
			require.NoError(t, store.CommitBatch(ctx, batch))

			// Re-claim after commit returns the committed batch.
			existing, err := store.BeginBatch(ctx, period)
			require.NoError(t, err)
			assert.Equal(t, settlement.StateCommitted, existing.State)
			assert.Equal(t, batch.Root, existing.Root)

			// Re-commit is a no-op success.
			require.NoError(t, store.CommitBatch(ctx, batch))

			// Abort after commit is refused.
			err = store.AbortBatch(ctx, period)
			assert.True(t, settlement.IsErrorCode(err, settlement.ErrValidation))

			got, err := store.Batch(ctx, period)
			require.NoError(t, err)
			assert.Equal(t, batch.Root, got.Root)
			if !assert.Equal(t, batch.Layers, got.Layers) {
				t.Logf("stored batch: %s", spew.Sdump(got))
			}
		})
	}
}

func TestStoreBatchAbort(t *testing.T) {
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			defer store.Close()
			ctx := context.Background()
			period := settlement.PeriodKey("2025-06-02")

			_, err := store.BeginBatch(ctx, period)
			require.NoError(t, err)
			require.NoError(t, store.AbortBatch(ctx, period))

			// The period can be claimed again after an abort.
			claimed, err := store.BeginBatch(ctx, period)
			require.NoError(t, err)
			assert.Equal(t, settlement.StateBuilding, claimed.State)
		})
	}
}

func TestStoreFeeEventConsumption(t *testing.T) {
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			defer store.Close()
			ctx := context.Background()

			week1 := settlement.Window{Start: "2025-06-01", End: "2025-06-08"}
			week2 := settlement.Window{Start: "2025-06-08", End: "2025-06-15"}

			events := []settlement.FeeEvent{
				{ID: "e1", SourceType: settlement.FeeSourceMaintenance, Asset: "TYT", Amount: 100,
					Timestamp: time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC), UserID: "u1"},
				{ID: "e2", SourceType: settlement.FeeSourceMarketplace, Asset: "TYT", Amount: 50,
					Timestamp: time.Date(2025, 6, 9, 10, 0, 0, 0, time.UTC), UserID: "u2"},
			}
			require.NoError(t, store.PutFeeEvents(ctx, events))

			got, err := store.UnconsumedFeeEvents(ctx, week1)
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, "e1", got[0].ID)

			require.NoError(t, store.MarkFeeEventsConsumed(ctx, week1, []string{"e1"}))

			// e1 is gone for every window from now on.
			got, err = store.UnconsumedFeeEvents(ctx, week1)
			require.NoError(t, err)
			assert.Empty(t, got)

			got, err = store.UnconsumedFeeEvents(ctx, week2)
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, "e2", got[0].ID)
		})
	}
}

func TestStoreDistribution(t *testing.T) {
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			defer store.Close()
			ctx := context.Background()
			window := settlement.Window{Start: "2025-06-01", End: "2025-06-08"}

			_, err := store.Distribution(ctx, window)
			assert.True(t, settlement.IsErrorCode(err, settlement.ErrNotFound))

			result := &settlement.DistributionResult{
				Window:      window,
				Asset:       "TYT",
				TotalAmount: 10000,
				Buckets: []settlement.BucketShare{
					{Name: "treasury", Bps: 10000, Amount: 10000},
				},
			}
			require.NoError(t, store.PutDistribution(ctx, result))

			err = store.PutDistribution(ctx, result)
			assert.True(t, settlement.IsErrorCode(err, settlement.ErrConflict))

			got, err := store.Distribution(ctx, window)
			require.NoError(t, err)
			assert.Equal(t, result.TotalAmount, got.TotalAmount)
		})
	}
}

func TestStoreSnapshots(t *testing.T) {
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			defer store.Close()
			ctx := context.Background()
			period := settlement.PeriodKey("2025-06-01")

			miners := []settlement.MinerSnapshot{
				{MinerID: "m1", OwnerID: "u1", HashrateTH: 100, EfficiencyWTH: 20, RegionRateKWh: 0.05, Active: true},
				{MinerID: "m2", OwnerID: "u2", HashrateTH: 50, EfficiencyWTH: 30, RegionRateKWh: 0.05, Active: false},
			}
			require.NoError(t, store.PutMinerSnapshots(ctx, period, miners))

			active, err := store.ActiveMiners(ctx, period)
			require.NoError(t, err)
			require.Len(t, active, 1, "inactive miners are filtered out")
			assert.Equal(t, "m1", active[0].MinerID)

			_, err = store.UserSnapshot(ctx, "u1")
			assert.True(t, settlement.IsErrorCode(err, settlement.ErrNotFound))

			user := &settlement.UserSnapshot{UserID: "u1", VIPDiscountBps: 500, ReinvestPercent: 30}
			require.NoError(t, store.PutUserSnapshot(ctx, user))

			got, err := store.UserSnapshot(ctx, "u1")
			require.NoError(t, err)
			assert.Equal(t, int64(500), got.VIPDiscountBps)

			// Cancelled contexts are honoured.
			cancelled, cancel := context.WithCancel(ctx)
			cancel()
			_, err = store.UserSnapshot(cancelled, "u1")
			assert.Error(t, err)
		})
	}
}
