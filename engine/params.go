// Copyright (c) 2025 The TYT Platform developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package engine

import (
	"time"

	"gitlab.com/tytlab/core/settlement.core/types/settlement"
)

// Bucket names used by the default split. Buckets are configuration,
// not constants: operators may rename or reweigh them as long as the
// weights sum to 10000 bps and a treasury bucket exists to absorb the
// division remainder.
const (
	BucketTreasury          = "treasury"
	BucketCharity           = "charity"
	BucketAcademy           = "academy"
	BucketHashrateProviders = "hashrate_providers"
	BucketBurn              = "burn"
)

// BucketConfig is one weighted slice of the fee split.
type BucketConfig struct {
	Name string `yaml:"name" json:"name"`
	Bps  int64  `yaml:"bps" json:"bps"`
}

// CoverageTier grants a maintenance discount when the user's prepaid
// maintenance balance covers at least MinDays of daily cost.
type CoverageTier struct {
	MinDays int64 `yaml:"min_days" json:"min_days"`
	Bps     int64 `yaml:"bps" json:"bps"`
}

// Params carries every tunable of the settlement engine.
type Params struct {
	// ServiceFeeBps is the platform cut of gross mining output.
	ServiceFeeBps int64 `yaml:"service_fee_bps"`

	// MaxDiscountBps caps the combined maintenance discount.
	MaxDiscountBps int64 `yaml:"max_discount_bps"`

	// TokenPaymentDiscountBps applies when the user pays maintenance in
	// the platform token.
	TokenPaymentDiscountBps int64 `yaml:"token_payment_discount_bps"`

	// ServiceButtonDiscountBps applies when the user pressed the
	// service button within ServiceButtonWindow of period close.
	ServiceButtonDiscountBps int64               `yaml:"service_button_discount_bps"`
	ServiceButtonWindow      settlement.Duration `yaml:"service_button_window"`

	// CoverageTiers grant discounts for prepaid maintenance balances,
	// ordered by MinDays descending; the first matching tier applies.
	CoverageTiers []CoverageTier `yaml:"coverage_tiers"`

	// FeeAsset is the currency the distribution engine settles.
	FeeAsset string `yaml:"fee_asset"`

	// MarketplaceShareBps is the portion of marketplace platform fees
	// that enters the distribution pool.
	MarketplaceShareBps int64 `yaml:"marketplace_share_bps"`

	// Buckets is the ordered fee split; weights must sum to 10000.
	Buckets []BucketConfig `yaml:"buckets"`

	// RemainderBucket absorbs the floor-division remainder so bucket
	// amounts always sum exactly to the pool.
	RemainderBucket string `yaml:"remainder_bucket"`

	// CharityMintBps is minted alongside the burn, proportional to the
	// window total.
	CharityMintBps int64 `yaml:"charity_mint_bps"`

	// ConflictWaitTimeout bounds how long a batch-race loser waits for
	// the winner's commit before giving up.
	ConflictWaitTimeout settlement.Duration `yaml:"conflict_wait_timeout"`
}

// DefaultParams mirrors the production platform settings: 15% service
// fee, discounts capped at 50%, weekly 40/30/20/10 split with a 25%
// charity mint.
func DefaultParams() Params {
	return Params{
		ServiceFeeBps:            1500,
		MaxDiscountBps:           5000,
		TokenPaymentDiscountBps:  200,
		ServiceButtonDiscountBps: 300,
		ServiceButtonWindow:      settlement.Duration(24 * time.Hour),
		CoverageTiers: []CoverageTier{
			{MinDays: 360, Bps: 1800},
			{MinDays: 180, Bps: 1300},
			{MinDays: 90, Bps: 900},
			{MinDays: 30, Bps: 500},
			{MinDays: 20, Bps: 200},
		},
		FeeAsset:            "TYT",
		MarketplaceShareBps: 5000,
		Buckets: []BucketConfig{
			{Name: BucketHashrateProviders, Bps: 4000},
			{Name: BucketBurn, Bps: 3000},
			{Name: BucketTreasury, Bps: 2000},
			{Name: BucketCharity, Bps: 1000},
		},
		RemainderBucket:     BucketTreasury,
		CharityMintBps:      2500,
		ConflictWaitTimeout: settlement.Duration(30 * time.Second),
	}
}

// Validate rejects configurations that would corrupt settlement before
// any state is touched.
func (p *Params) Validate() error {
	if p.ServiceFeeBps < 0 || p.ServiceFeeBps > settlement.MaxBasisPoints {
		return settlement.NewErrorf(settlement.ErrValidation,
			"service fee %d bps out of range", p.ServiceFeeBps)
	}
	if p.MaxDiscountBps < 0 || p.MaxDiscountBps > settlement.MaxBasisPoints {
		return settlement.NewErrorf(settlement.ErrValidation,
			"max discount %d bps out of range", p.MaxDiscountBps)
	}
	if len(p.Buckets) == 0 {
		return settlement.NewError(settlement.ErrValidation, "no distribution buckets configured")
	}

	var sum int64
	seen := make(map[string]bool, len(p.Buckets))
	remainderFound := false
	for _, bucket := range p.Buckets {
		if bucket.Name == "" {
			return settlement.NewError(settlement.ErrValidation, "bucket with empty name")
		}
		if seen[bucket.Name] {
			return settlement.NewErrorf(settlement.ErrValidation, "duplicate bucket %q", bucket.Name)
		}
		seen[bucket.Name] = true
		if bucket.Bps < 0 {
			return settlement.NewErrorf(settlement.ErrValidation,
				"bucket %q has negative weight", bucket.Name)
		}
		sum += bucket.Bps
		if bucket.Name == p.RemainderBucket {
			remainderFound = true
		}
	}
	if sum != settlement.MaxBasisPoints {
		return settlement.NewErrorf(settlement.ErrValidation,
			"bucket weights sum to %d bps, want %d", sum, settlement.MaxBasisPoints)
	}
	if !remainderFound {
		return settlement.NewErrorf(settlement.ErrValidation,
			"remainder bucket %q is not among the configured buckets", p.RemainderBucket)
	}
	return nil
}
