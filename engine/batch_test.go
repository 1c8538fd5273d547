// Copyright (c) 2025 The TYT Platform developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package engine

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/tytlab/core/settlement.core/database"
	"gitlab.com/tytlab/core/settlement.core/database/memdb"
	"gitlab.com/tytlab/core/settlement.core/network/rates"
	"gitlab.com/tytlab/core/settlement.core/types/settlement"
)

const testPeriod = settlement.PeriodKey("2024-03-01")

// flatParams disables all costs so each miner's net equals its
// hashrate times one minor unit, keeping the tree fixtures checkable
// by hand.
func flatParams() Params {
	params := DefaultParams()
	params.ServiceFeeBps = 0
	return params
}

func flatRates() rates.Source {
	return rates.Static{Rates: rates.PeriodRates{YieldPerTH: 1, ElectricityPerKWh: 0}}
}

func seedMiners(t *testing.T, store database.Store, period settlement.PeriodKey, hashrates map[string]float64) {
	t.Helper()
	miners := make([]settlement.MinerSnapshot, 0, len(hashrates))
	for minerID, th := range hashrates {
		miners = append(miners, settlement.MinerSnapshot{
			MinerID:    minerID,
			OwnerID:    "owner-" + minerID,
			HashrateTH: th,
			Active:     true,
		})
	}
	require.NoError(t, store.PutMinerSnapshots(context.Background(), period, miners))
}

func newTestController(t *testing.T, params Params, oracle rates.Source) (*Controller, database.Store) {
	t.Helper()
	store := memdb.New()
	t.Cleanup(func() { _ = store.Close() })
	controller, err := NewController(store, oracle, params)
	require.NoError(t, err)
	return controller, store
}

func TestClosePeriodFiveLeaves(t *testing.T) {
	controller, _ := newTestController(t, flatParams(), flatRates())

	// Net values 100, 250, 75, 400, 175 in miner id order.
	seedMiners(t, controllerStore(controller), testPeriod, map[string]float64{
		"m1": 100, "m2": 250, "m3": 75, "m4": 400, "m5": 175,
	})

	batch, err := controller.ClosePeriod(context.Background(), testPeriod)
	require.NoError(t, err)
	assert.Equal(t, settlement.StateCommitted, batch.State)
	assert.EqualValues(t, 5, batch.RecordCount)

	// Five leaves reduce 5 -> 3 -> 2 -> 1 under the promotion rule.
	require.Len(t, batch.Layers, 4)
	assert.Len(t, batch.Layers[0], 5)
	assert.Len(t, batch.Layers[1], 3)
	assert.Len(t, batch.Layers[2], 2)
	assert.Len(t, batch.Layers[3], 1)
	assert.Equal(t, batch.Layers[3][0], batch.Root)

	// Leaf index 3 is miner m4; its proof carries one sibling per
	// non-root layer.
	proof, err := controller.GetProof(context.Background(), testPeriod, "m4")
	require.NoError(t, err)
	assert.EqualValues(t, 3, proof.LeafIndex)
	require.Len(t, proof.SiblingHashes, 3)
	assert.True(t, Verify(proof))
}

func TestClosePeriodProofTamperDetection(t *testing.T) {
	controller, _ := newTestController(t, flatParams(), flatRates())
	seedMiners(t, controllerStore(controller), testPeriod, map[string]float64{
		"m1": 100, "m2": 250, "m3": 75, "m4": 400, "m5": 175,
	})

	_, err := controller.ClosePeriod(context.Background(), testPeriod)
	require.NoError(t, err)

	proof, err := controller.GetProof(context.Background(), testPeriod, "m4")
	require.NoError(t, err)
	require.True(t, Verify(proof))

	proof.SiblingHashes[1][0] ^= 0x01
	assert.False(t, Verify(proof))
}

func TestClosePeriodIdempotent(t *testing.T) {
	controller, _ := newTestController(t, flatParams(), flatRates())
	seedMiners(t, controllerStore(controller), testPeriod, map[string]float64{
		"m1": 10, "m2": 20,
	})

	first, err := controller.ClosePeriod(context.Background(), testPeriod)
	require.NoError(t, err)

	second, err := controller.ClosePeriod(context.Background(), testPeriod)
	require.NoError(t, err)

	assert.Equal(t, first.Root, second.Root)
	assert.Equal(t, first.RecordCount, second.RecordCount)
	assert.Equal(t, settlement.StateCommitted, second.State)
}

func TestClosePeriodConcurrent(t *testing.T) {
	controller, _ := newTestController(t, flatParams(), flatRates())
	seedMiners(t, controllerStore(controller), testPeriod, map[string]float64{
		"m1": 10, "m2": 20, "m3": 30,
	})

	const callers = 8
	results := make([]*settlement.MerkleBatch, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = controller.ClosePeriod(context.Background(), testPeriod)
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i], "caller %d", i)
		require.NotNil(t, results[i], "caller %d", i)
		assert.Equal(t, results[0].Root, results[i].Root, "caller %d", i)
	}
}

func TestClosePeriodEmptyPeriod(t *testing.T) {
	controller, _ := newTestController(t, flatParams(), flatRates())

	_, err := controller.ClosePeriod(context.Background(), testPeriod)
	require.Error(t, err)
	assert.True(t, settlement.IsErrorCode(err, settlement.ErrValidation))

	// A failed build must release the claim so a later attempt can run.
	seedMiners(t, controllerStore(controller), testPeriod, map[string]float64{"m1": 10})
	batch, err := controller.ClosePeriod(context.Background(), testPeriod)
	require.NoError(t, err)
	assert.Equal(t, settlement.StateCommitted, batch.State)
}

func TestClosePeriodInvalidKey(t *testing.T) {
	controller, _ := newTestController(t, flatParams(), flatRates())

	_, err := controller.ClosePeriod(context.Background(), "03/01/2024")
	require.Error(t, err)
	assert.True(t, settlement.IsErrorCode(err, settlement.ErrValidation))
}

// controllerStore exposes the controller's store for fixture seeding.
func controllerStore(c *Controller) database.Store { return c.store }
