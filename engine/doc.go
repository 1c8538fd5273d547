// Copyright (c) 2025 The TYT Platform developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package engine implements the settlement engine: period reward
// aggregation, merkle batch construction with at-most-once commit per
// period, inclusion proof service, and the fee/burn distribution over
// rolling windows.
//
// The engine is stateless between invocations. Every run is an
// independent unit of work against the injected store; invocations for
// different periods may run concurrently, invocations for the same
// period serialize through the store's batch claim.
package engine
