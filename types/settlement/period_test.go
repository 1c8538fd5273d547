// Copyright (c) 2025 The TYT Platform developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package settlement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPeriodKey(t *testing.T) {
	k := NewPeriodKey(time.Date(2025, 6, 1, 23, 59, 0, 0, time.UTC))
	assert.Equal(t, PeriodKey("2025-06-01"), k)

	parsed, err := ParsePeriodKey("2025-06-01")
	assert.NoError(t, err)
	assert.Equal(t, k, parsed)

	_, err = ParsePeriodKey("01.06.2025")
	assert.Error(t, err)
}

func TestWindow(t *testing.T) {
	w := Window{Start: "2025-06-01", End: "2025-06-08"}
	assert.NoError(t, w.Validate())
	assert.Equal(t, "2025-06-01..2025-06-08", w.Key())

	assert.True(t, w.Contains(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, w.Contains(time.Date(2025, 6, 7, 23, 59, 59, 0, time.UTC)))
	assert.False(t, w.Contains(time.Date(2025, 6, 8, 0, 0, 0, 0, time.UTC)))
	assert.False(t, w.Contains(time.Date(2025, 5, 31, 12, 0, 0, 0, time.UTC)))

	assert.Error(t, Window{Start: "2025-06-08", End: "2025-06-01"}.Validate())
	assert.Error(t, Window{Start: "garbage", End: "2025-06-01"}.Validate())
}
