// Copyright (c) 2025 The TYT Platform developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package engine

import (
	"context"

	"gitlab.com/tytlab/core/settlement.core/types/chainhash"
	"gitlab.com/tytlab/core/settlement.core/types/settlement"
)

// GetProof builds the inclusion proof of one miner's reward for a
// committed period. The batch root is re-derived from the stored leaves
// before any proof leaves the engine; a mismatch means the store was
// tampered with or corrupted and surfaces as ErrIntegrity.
func (c *Controller) GetProof(ctx context.Context, period settlement.PeriodKey, minerID string) (*settlement.InclusionProof, error) {
	batch, err := c.store.Batch(ctx, period)
	if err != nil {
		return nil, err
	}
	if batch.State != settlement.StateCommitted {
		return nil, settlement.NewErrorf(settlement.ErrNotFound,
			"period %s is not committed yet", period)
	}

	records, err := c.store.RewardRecords(ctx, period)
	if err != nil {
		return nil, err
	}

	var record *settlement.RewardRecord
	for i := range records {
		if records[i].MinerID == minerID {
			record = &records[i]
			break
		}
	}
	if record == nil {
		return nil, settlement.NewErrorf(settlement.ErrNotFound,
			"miner %s has no reward in period %s", minerID, period)
	}

	if err := verifyBatchIntegrity(batch, records); err != nil {
		return nil, err
	}

	siblings, err := chainhash.BuildMerkleTreeProof(batch.Layers, record.LeafIndex)
	if err != nil {
		return nil, settlement.NewErrorf(settlement.ErrIntegrity,
			"leaf index %d of period %s: %v", record.LeafIndex, period, err)
	}

	leaf := batch.Leaves[record.LeafIndex]
	if !chainhash.ValidateMerkleTreeProof(leaf, siblings, batch.Root) {
		return nil, settlement.NewErrorf(settlement.ErrIntegrity,
			"generated proof for miner %s does not validate against root of period %s",
			minerID, period)
	}

	return &settlement.InclusionProof{
		PeriodKey:     period,
		LeafIndex:     record.LeafIndex,
		LeafHash:      leaf,
		SiblingHashes: siblings,
		Root:          batch.Root,
	}, nil
}

// Rewards returns the period's settled records in leaf order.
func (c *Controller) Rewards(ctx context.Context, period settlement.PeriodKey) ([]settlement.RewardRecord, error) {
	return c.store.RewardRecords(ctx, period)
}

// Verify checks a proof against a known root without touching the
// store. Pure function of its inputs; anyone holding the published root
// can run the same check.
func Verify(proof *settlement.InclusionProof) bool {
	if proof == nil {
		return false
	}
	return chainhash.ValidateMerkleTreeProof(proof.LeafHash, proof.SiblingHashes, proof.Root)
}

// verifyBatchIntegrity re-derives the batch root from its stored leaves
// and cross-checks every record's leaf hash. Any divergence between the
// records, the leaves and the committed root is ErrIntegrity.
func verifyBatchIntegrity(batch *settlement.MerkleBatch, records []settlement.RewardRecord) error {
	if uint32(len(records)) != batch.RecordCount || len(records) != len(batch.Leaves) {
		return settlement.NewErrorf(settlement.ErrIntegrity,
			"period %s has %d records but the batch committed %d leaves",
			batch.PeriodKey, len(records), len(batch.Leaves))
	}

	for i := range records {
		idx := records[i].LeafIndex
		if int(idx) >= len(batch.Leaves) {
			return settlement.NewErrorf(settlement.ErrIntegrity,
				"record %s of period %s has leaf index %d beyond the batch",
				records[i].MinerID, batch.PeriodKey, idx)
		}
		if hash := settlement.LeafHash(&records[i]); !hash.IsEqual(&batch.Leaves[idx]) {
			return settlement.NewErrorf(settlement.ErrIntegrity,
				"record %s of period %s no longer matches its committed leaf",
				records[i].MinerID, batch.PeriodKey)
		}
	}

	if root := chainhash.MerkleTreeRoot(batch.Leaves); !root.IsEqual(&batch.Root) {
		return settlement.NewErrorf(settlement.ErrIntegrity,
			"recomputed root of period %s does not match the committed root %s",
			batch.PeriodKey, batch.Root)
	}
	return nil
}
