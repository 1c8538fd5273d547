// Copyright (c) 2025 The TYT Platform developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package settlement defines the data model of the reward ledger: fixed
// point amounts, settlement periods, reward records, merkle batches,
// fee events and distribution results, together with the canonical leaf
// encoding and the error taxonomy shared by the engine packages.
package settlement
