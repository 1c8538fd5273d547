// Copyright (c) 2025 The TYT Platform developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package settlement

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// AmountDecimals is the number of decimal places carried by every
// monetary value in the ledger. All BTC and token quantities are stored
// as integer minor units (1e-8), never as floats, so sums and splits
// are exact and root recomputation is byte-stable.
const AmountDecimals = 8

// amountScale is 10^AmountDecimals.
const amountScale = 100000000

// MaxBasisPoints is the whole: bucket splits are expressed in basis
// points and must sum to exactly this value.
const MaxBasisPoints = 10000

// Amount is a monetary or token quantity in integer minor units.
type Amount int64

// String renders the amount as a fixed 8-decimal string, e.g.
// "1.05000000". The formatting is locale independent and stable, which
// makes it safe to embed into hashed leaf encodings.
func (a Amount) String() string {
	sign := ""
	v := int64(a)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%08d", sign, v/amountScale, v%amountScale)
}

// MulBps multiplies the amount by a basis-point fraction with floor
// division. 10000 bps is the identity.
func (a Amount) MulBps(bps int64) Amount {
	return Amount(int64(a) * bps / MaxBasisPoints)
}

// MulPct multiplies the amount by a whole percentage (0-100) with floor
// division.
func (a Amount) MulPct(pct int64) Amount {
	return Amount(int64(a) * pct / 100)
}

// AmountFromString parses a decimal string with up to 8 fractional
// digits into an Amount. It is the only conversion point between
// display strings and minor units.
func AmountFromString(s string) (Amount, error) {
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	intPart := s
	fracPart := ""
	if dot := strings.IndexByte(s, '.'); dot >= 0 {
		intPart, fracPart = s[:dot], s[dot+1:]
	}
	if intPart == "" {
		intPart = "0"
	}
	if len(fracPart) > AmountDecimals {
		return 0, errors.Errorf("amount %q has more than %d decimals", s, AmountDecimals)
	}

	units, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid amount %q", s)
	}

	frac := int64(0)
	if fracPart != "" {
		frac, err = strconv.ParseInt(fracPart+strings.Repeat("0", AmountDecimals-len(fracPart)), 10, 64)
		if err != nil {
			return 0, errors.Wrapf(err, "invalid amount %q", s)
		}
	}

	v := units*amountScale + frac
	if neg {
		v = -v
	}
	return Amount(v), nil
}
