// Copyright (c) 2025 The TYT Platform developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package settlement

import (
	"time"

	"github.com/pkg/errors"
)

// periodLayout is the canonical day-granularity form of a period key.
const periodLayout = "2006-01-02"

// PeriodKey identifies one settlement day. It is the batching unit for
// reward aggregation and merkle tree construction: at most one batch
// ever exists per key.
type PeriodKey string

// NewPeriodKey truncates a point in time to its UTC settlement day.
func NewPeriodKey(t time.Time) PeriodKey {
	return PeriodKey(t.UTC().Format(periodLayout))
}

// ParsePeriodKey validates the string form of a period key.
func ParsePeriodKey(s string) (PeriodKey, error) {
	if _, err := time.Parse(periodLayout, s); err != nil {
		return "", errors.Wrapf(err, "invalid period key %q", s)
	}
	return PeriodKey(s), nil
}

// Time returns the start of the period's day in UTC.
func (k PeriodKey) Time() time.Time {
	t, _ := time.Parse(periodLayout, string(k))
	return t
}

func (k PeriodKey) String() string { return string(k) }

// Window is a half-open [Start, End) span of settlement days used by
// the fee distribution engine.
type Window struct {
	Start PeriodKey `json:"window_start" yaml:"window_start"`
	End   PeriodKey `json:"window_end" yaml:"window_end"`
}

// Key is the idempotency key of the window.
func (w Window) Key() string {
	return w.Start.String() + ".." + w.End.String()
}

// Contains reports whether the timestamp falls inside the window.
func (w Window) Contains(ts time.Time) bool {
	day := ts.UTC().Format(periodLayout)
	return day >= string(w.Start) && day < string(w.End)
}

// Validate checks that both bounds parse and are ordered.
func (w Window) Validate() error {
	if _, err := ParsePeriodKey(string(w.Start)); err != nil {
		return err
	}
	if _, err := ParsePeriodKey(string(w.End)); err != nil {
		return err
	}
	if string(w.Start) >= string(w.End) {
		return errors.Errorf("window start %s is not before end %s", w.Start, w.End)
	}
	return nil
}
