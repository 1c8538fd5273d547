// Copyright (c) 2025 The TYT Platform developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package settlement

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testRecord() *RewardRecord {
	return &RewardRecord{
		MinerID:         "miner-007",
		UserID:          "user-42",
		PeriodKey:       "2025-06-01",
		Gross:           150000,
		MaintenanceCost: 50000,
		Net:             100000,
		ReinvestShare:   30000,
		ClaimableShare:  70000,
	}
}

func TestEncodeLeafDeterminism(t *testing.T) {
	a := EncodeLeaf(testRecord())
	b := EncodeLeaf(testRecord())
	assert.Equal(t, a, b)
	assert.Equal(t, LeafEncodingVersion, a[0])

	// LeafIndex and stamps are positions/annotations, not leaf content.
	stamped := testRecord()
	stamped.LeafIndex = 9
	stamped.Claimed = true
	assert.Equal(t, a, EncodeLeaf(stamped))
}

func TestEncodeLeafFieldSensitivity(t *testing.T) {
	base := LeafHash(testRecord())

	mutations := []func(*RewardRecord){
		func(r *RewardRecord) { r.MinerID = "miner-008" },
		func(r *RewardRecord) { r.UserID = "user-43" },
		func(r *RewardRecord) { r.PeriodKey = "2025-06-02" },
		func(r *RewardRecord) { r.Gross++ },
		func(r *RewardRecord) { r.MaintenanceCost++ },
		func(r *RewardRecord) { r.Net++ },
		func(r *RewardRecord) { r.ReinvestShare++ },
		func(r *RewardRecord) { r.ClaimableShare++ },
	}
	for i, mutate := range mutations {
		r := testRecord()
		mutate(r)
		assert.NotEqual(t, base, LeafHash(r), "mutation %d did not change the leaf hash", i)
	}
}

func TestEncodeLeafNoFieldBleed(t *testing.T) {
	// Length prefixes keep adjacent identifiers apart: moving a byte
	// from one field to the next must change the encoding.
	a := testRecord()
	a.MinerID, a.UserID = "ab", "cd"
	b := testRecord()
	b.MinerID, b.UserID = "abc", "d"
	assert.NotEqual(t, EncodeLeaf(a), EncodeLeaf(b))
}
