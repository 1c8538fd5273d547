// Copyright (c) 2025 The TYT Platform developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package badgerdb

import "gitlab.com/tytlab/core/settlement.core/types/settlement"

// One-byte key prefixes separate the record families inside a single
// badger keyspace. The separator byte keeps composite keys unambiguous
// even though ids are variable length.
const (
	prefixMinerSnapshot = byte(0x01)
	prefixUserSnapshot  = byte(0x02)
	prefixReward        = byte(0x03)
	prefixBatch         = byte(0x04)
	prefixFeeEvent      = byte(0x05)
	prefixConsumed      = byte(0x06)
	prefixDistribution  = byte(0x07)

	keySeparator = byte(0x00)
)

func compositeKey(prefix byte, parts ...string) []byte {
	size := 1
	for _, p := range parts {
		size += len(p) + 1
	}

	key := make([]byte, 0, size)
	key = append(key, prefix)
	for i, p := range parts {
		if i > 0 {
			key = append(key, keySeparator)
		}
		key = append(key, p...)
	}
	return key
}

func minerSnapshotKey(period settlement.PeriodKey, minerID string) []byte {
	return compositeKey(prefixMinerSnapshot, string(period), minerID)
}

func minerSnapshotPrefix(period settlement.PeriodKey) []byte {
	return compositeKey(prefixMinerSnapshot, string(period), "")
}

func userSnapshotKey(userID string) []byte {
	return compositeKey(prefixUserSnapshot, userID)
}

func rewardKey(period settlement.PeriodKey, minerID string) []byte {
	return compositeKey(prefixReward, string(period), minerID)
}

func rewardPrefix(period settlement.PeriodKey) []byte {
	return compositeKey(prefixReward, string(period), "")
}

func batchKey(period settlement.PeriodKey) []byte {
	return compositeKey(prefixBatch, string(period))
}

func feeEventKey(eventID string) []byte {
	return compositeKey(prefixFeeEvent, eventID)
}

func feeEventPrefix() []byte {
	return []byte{prefixFeeEvent}
}

func consumedKey(eventID string) []byte {
	return compositeKey(prefixConsumed, eventID)
}

func distributionKey(window settlement.Window) []byte {
	return compositeKey(prefixDistribution, window.Key())
}
