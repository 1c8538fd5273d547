// Copyright (c) 2025 The TYT Platform developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package settlement

import (
	"time"

	"gitlab.com/tytlab/core/settlement.core/types/chainhash"
)

// RewardRecord is one miner's settled result for one period. Records
// are created once when the aggregator closes a period and are
// immutable afterwards except for the leaf index assignment and the
// merkle root / claimed stamps. One record exists per (MinerID,
// PeriodKey); superseding records are forbidden.
type RewardRecord struct {
	MinerID   string    `json:"miner_id" csv:"miner_id"`
	UserID    string    `json:"user_id" csv:"user_id"`
	PeriodKey PeriodKey `json:"period_key" csv:"period_key"`

	// HashrateTH is the hash power attributed to the miner for the
	// period, in TH/s. Snapshot input, not a monetary value.
	HashrateTH float64 `json:"hashrate_th" csv:"hashrate_th"`

	Gross           Amount `json:"gross" csv:"gross"`
	MaintenanceCost Amount `json:"maintenance_cost" csv:"maintenance_cost"`
	Net             Amount `json:"net" csv:"net"`

	// MaintenanceDebt is the unpaid remainder when maintenance exceeds
	// gross. Net is floored at zero; the shortfall accrues here instead
	// of going negative.
	MaintenanceDebt Amount `json:"maintenance_debt,omitempty" csv:"maintenance_debt"`

	// ReinvestShare plus ClaimableShare always equals Net. The split is
	// computed as a subtraction from Net so rounding can never leak.
	ReinvestShare  Amount `json:"reinvest_share" csv:"reinvest_share"`
	ClaimableShare Amount `json:"claimable_share" csv:"claimable_share"`

	// LeafIndex is the record's position in the batch leaf ordering,
	// assigned by one deterministic sort pass. Stable once assigned.
	LeafIndex uint32 `json:"leaf_index" csv:"leaf_index"`

	// MerkleRoot is stamped after the batch commits.
	MerkleRoot chainhash.Hash `json:"merkle_root,omitempty" csv:"-"`
	Claimed    bool           `json:"claimed" csv:"claimed"`
}

// BatchState tracks the idempotency state machine of a settlement
// batch. Transitions only ever move forward; Committed is terminal.
type BatchState uint8

const (
	StateNotStarted BatchState = iota
	StateBuilding
	StateCommitted
)

func (s BatchState) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateBuilding:
		return "building"
	case StateCommitted:
		return "committed"
	default:
		return "unknown"
	}
}

// MerkleBatch is the settlement tree for one period: the ordered leaf
// hashes, every retained layer, and the committed root. Layers are
// persisted so proofs are always generated from the exact tree that
// produced the root.
type MerkleBatch struct {
	PeriodKey PeriodKey  `json:"period_key"`
	State     BatchState `json:"state"`

	Leaves []chainhash.Hash   `json:"leaves"`
	Layers [][]chainhash.Hash `json:"layers"`
	Root   chainhash.Hash     `json:"root"`

	RecordCount uint32    `json:"record_count"`
	CommittedAt time.Time `json:"committed_at"`
}

// InclusionProof lets a holder of the period root verify one reward
// leaf without seeing any other leaf. Response object only, never
// persisted.
type InclusionProof struct {
	PeriodKey     PeriodKey        `json:"period_key"`
	LeafIndex     uint32           `json:"leaf_index"`
	LeafHash      chainhash.Hash   `json:"leaf_hash"`
	SiblingHashes []chainhash.Hash `json:"sibling_hashes"`
	Root          chainhash.Hash   `json:"root"`
}

// Fee event source types.
const (
	FeeSourceMaintenance = "maintenance"
	FeeSourceMarketplace = "marketplace"
	FeeSourceUpgrade     = "upgrade"
)

// FeeEvent is one fee-generating action inside a distribution window.
type FeeEvent struct {
	ID         string    `json:"id" csv:"id"`
	SourceType string    `json:"source_type" csv:"source_type"`
	Asset      string    `json:"asset" csv:"asset"`
	Amount     Amount    `json:"amount" csv:"amount"`
	Timestamp  time.Time `json:"timestamp" csv:"timestamp"`
	UserID     string    `json:"user_id" csv:"user_id"`
}

// BucketShare is one named slice of a distribution total.
type BucketShare struct {
	Name   string `json:"name" csv:"name"`
	Bps    int64  `json:"bps" csv:"bps"`
	Amount Amount `json:"amount" csv:"amount"`
}

// ProviderShare is one hashrate provider's pro-rata cut of the
// hashrate bucket.
type ProviderShare struct {
	UserID     string  `json:"user_id" csv:"user_id"`
	HashrateTH float64 `json:"hashrate_th" csv:"hashrate_th"`
	Amount     Amount  `json:"amount" csv:"amount"`
}

// DistributionResult is the committed outcome of one fee window. The
// bucket amounts sum exactly to TotalAmount: the integer-division
// remainder is assigned to the treasury bucket, never dropped.
type DistributionResult struct {
	Window      Window    `json:"window"`
	Asset       string    `json:"asset"`
	TotalAmount Amount    `json:"total_amount"`
	EventCount  int       `json:"event_count"`
	ComputedAt  time.Time `json:"computed_at"`

	Buckets []BucketShare `json:"buckets"`

	// EventIDs lists the fee events folded into this result. Kept so a
	// retry that finds the result already stored can re-stamp the
	// consumption markers instead of double-counting.
	EventIDs []string `json:"event_ids"`

	// CharityMint is minted alongside the burn, proportional to the
	// window total. Informational; not part of the bucket split.
	CharityMint Amount `json:"charity_mint"`

	// ProviderShares is the pro-rata sub-distribution of the hashrate
	// providers bucket, ordered by user id. The last recipient absorbs
	// the rounding remainder.
	ProviderShares []ProviderShare `json:"provider_shares,omitempty"`
}

// Bucket returns the named bucket share, or nil.
func (d *DistributionResult) Bucket(name string) *BucketShare {
	for i := range d.Buckets {
		if d.Buckets[i].Name == name {
			return &d.Buckets[i]
		}
	}
	return nil
}

// MinerSnapshot is the external store's view of one active miner for a
// period: identity, attributed hashrate, power efficiency and the
// hosting region's electricity price. RegionRateKWh is in USD per kWh;
// zero means the miner pays the period's flat rate instead.
type MinerSnapshot struct {
	MinerID        string  `json:"miner_id"`
	OwnerID        string  `json:"owner_id"`
	HashrateTH     float64 `json:"hashrate_th"`
	EfficiencyWTH  float64 `json:"efficiency_w_th"`
	RegionRateKWh  float64 `json:"region_rate_kwh"`
	Active         bool    `json:"active"`
}

// UserSnapshot carries the per-user inputs of the discount model and
// the reinvest split.
type UserSnapshot struct {
	UserID             string    `json:"user_id"`
	VIPDiscountBps     int64     `json:"vip_discount_bps"`
	TokenPayment       bool      `json:"token_payment"`
	ServicePressedAt   time.Time `json:"service_pressed_at"`
	MaintenanceBalance Amount    `json:"maintenance_balance"`
	ReinvestPercent    int64     `json:"reinvest_percent"`
}
