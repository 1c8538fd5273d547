// Copyright (c) 2025 The TYT Platform developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package engine

import (
	"time"

	"gitlab.com/tytlab/core/settlement.core/types/settlement"
)

// discountBps combines every maintenance discount the user qualifies
// for, clamped to the configured maximum. dailyCost is the user's
// undiscounted daily maintenance, used for the balance-coverage tiers.
func (p *Params) discountBps(user *settlement.UserSnapshot, dailyCost settlement.Amount, periodClose time.Time) int64 {
	total := user.VIPDiscountBps

	if user.TokenPayment {
		total += p.TokenPaymentDiscountBps
	}

	if !user.ServicePressedAt.IsZero() &&
		periodClose.Sub(user.ServicePressedAt) >= 0 &&
		periodClose.Sub(user.ServicePressedAt) < p.ServiceButtonWindow.D() {
		total += p.ServiceButtonDiscountBps
	}

	if dailyCost > 0 {
		coveredDays := int64(user.MaintenanceBalance / dailyCost)
		for _, tier := range p.CoverageTiers {
			if coveredDays >= tier.MinDays {
				total += tier.Bps
				break
			}
		}
	}

	if total > p.MaxDiscountBps {
		total = p.MaxDiscountBps
	}
	if total < 0 {
		total = 0
	}
	return total
}
