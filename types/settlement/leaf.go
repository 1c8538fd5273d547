// Copyright (c) 2025 The TYT Platform developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package settlement

import (
	"bytes"
	"encoding/binary"

	"gitlab.com/tytlab/core/settlement.core/types/chainhash"
)

// LeafEncodingVersion is committed into every leaf. The encoding is
// part of the storage format: changing it invalidates all unclaimed
// proofs against already-committed roots, so any format change must
// bump this version and keep the old decoder for open batches.
const LeafEncodingVersion = byte(0x01)

// EncodeLeaf serializes one reward record into the canonical bytes fed
// to the leaf hash. Fixed field order, length-prefixed identifiers and
// fixed 8-decimal amount strings; byte-identical input always yields
// byte-identical output regardless of runtime or locale.
func EncodeLeaf(record *RewardRecord) []byte {
	buf := bytes.NewBuffer(make([]byte, 0, 128))
	buf.WriteByte(LeafEncodingVersion)

	writeField(buf, record.MinerID)
	writeField(buf, record.UserID)
	writeField(buf, string(record.PeriodKey))
	writeField(buf, record.Gross.String())
	writeField(buf, record.MaintenanceCost.String())
	writeField(buf, record.Net.String())
	writeField(buf, record.ReinvestShare.String())
	writeField(buf, record.ClaimableShare.String())

	return buf.Bytes()
}

// LeafHash hashes the canonical encoding of the record.
func LeafHash(record *RewardRecord) chainhash.Hash {
	return chainhash.HashH(EncodeLeaf(record))
}

func writeField(buf *bytes.Buffer, s string) {
	var l [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(l[:], uint64(len(s)))
	buf.Write(l[:n])
	buf.WriteString(s)
}
