// Copyright (c) 2025 The TYT Platform developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package chainhash provides the hash primitive of the settlement ledger.
//
// Every reward leaf, every internal merkle node and every published root
// is a Hash produced by the same SHA-256 function, so a batch root is a
// pure function of its leaves and can be recomputed bit-for-bit anywhere.
package chainhash
