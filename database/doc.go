// Copyright (c) 2025 The TYT Platform developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package database defines the persistent record store consumed by the
// settlement engine and a driver registry for its backends.
//
// The engine treats the store as schema-agnostic record CRUD: reward
// records, merkle batches, distribution results, fee events and their
// consumption markers, plus the miner/user snapshots the aggregator
// reads. All durable state lives here; the engine itself keeps no
// shared mutable state between invocations.
//
// Backends register themselves via RegisterDriver from their package
// init, so importing a backend for side effects is enough to make it
// available to Open:
//
//	import _ "gitlab.com/tytlab/core/settlement.core/database/badgerdb"
//
//	db, err := database.Open("badgerdb", dbPath)
package database
