// Copyright (c) 2025 The TYT Platform developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/tytlab/core/settlement.core/types/settlement"
)

func TestCSVStorageRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rewards.csv")
	storage := NewCSVStorage(path)

	records := []settlement.RewardRecord{
		{
			MinerID:        "m1",
			UserID:         "u1",
			PeriodKey:      "2024-03-01",
			HashrateTH:     120,
			Gross:          100000,
			Net:            85000,
			ClaimableShare: 85000,
		},
		{
			MinerID:         "m2",
			UserID:          "u2",
			PeriodKey:       "2024-03-01",
			HashrateTH:      95,
			Gross:           80000,
			Net:             0,
			MaintenanceDebt: 4200,
			LeafIndex:       1,
		},
	}
	require.NoError(t, storage.SaveRewards(records))

	loaded, err := NewCSVStorage(path).LoadRewards()
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, records[0].MinerID, loaded[0].MinerID)
	assert.Equal(t, records[0].Gross, loaded[0].Gross)
	assert.Equal(t, records[1].MaintenanceDebt, loaded[1].MaintenanceDebt)
	assert.EqualValues(t, 1, loaded[1].LeafIndex)
}
