// Copyright (c) 2025 The TYT Platform developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package memdb implements the database.Store interface on plain maps.
// It exists for tests and for ephemeral runs; nothing survives process
// exit.
package memdb

import (
	"context"
	"sort"
	"sync"

	"gitlab.com/tytlab/core/settlement.core/database"
	"gitlab.com/tytlab/core/settlement.core/types/chainhash"
	"gitlab.com/tytlab/core/settlement.core/types/settlement"
)

const dbType = "memdb"

func init() {
	err := database.RegisterDriver(database.Driver{
		DbType: dbType,
		Open: func(args ...interface{}) (database.Store, error) {
			return New(), nil
		},
	})
	if err != nil {
		panic(err)
	}
}

type memStore struct {
	mu sync.Mutex

	miners        map[settlement.PeriodKey][]settlement.MinerSnapshot
	users         map[string]*settlement.UserSnapshot
	rewards       map[settlement.PeriodKey][]settlement.RewardRecord
	batches       map[settlement.PeriodKey]*settlement.MerkleBatch
	feeEvents     map[string]settlement.FeeEvent
	consumed      map[string]string // event id -> window key
	distributions map[string]*settlement.DistributionResult
}

// New returns an empty in-memory store.
func New() database.Store {
	return &memStore{
		miners:        make(map[settlement.PeriodKey][]settlement.MinerSnapshot),
		users:         make(map[string]*settlement.UserSnapshot),
		rewards:       make(map[settlement.PeriodKey][]settlement.RewardRecord),
		batches:       make(map[settlement.PeriodKey]*settlement.MerkleBatch),
		feeEvents:     make(map[string]settlement.FeeEvent),
		consumed:      make(map[string]string),
		distributions: make(map[string]*settlement.DistributionResult),
	}
}

func (m *memStore) ActiveMiners(ctx context.Context, period settlement.PeriodKey) ([]settlement.MinerSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var active []settlement.MinerSnapshot
	for _, miner := range m.miners[period] {
		if miner.Active {
			active = append(active, miner)
		}
	}
	return active, nil
}

func (m *memStore) UserSnapshot(ctx context.Context, userID string) (*settlement.UserSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[userID]
	if !ok {
		return nil, settlement.NewErrorf(settlement.ErrNotFound, "no snapshot for user %s", userID)
	}
	cp := *user
	return &cp, nil
}

func (m *memStore) PutMinerSnapshots(ctx context.Context, period settlement.PeriodKey, miners []settlement.MinerSnapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.miners[period] = append([]settlement.MinerSnapshot(nil), miners...)
	return nil
}

func (m *memStore) PutUserSnapshot(ctx context.Context, user *settlement.UserSnapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *user
	m.users[user.UserID] = &cp
	return nil
}

func (m *memStore) PutRewardRecords(ctx context.Context, period settlement.PeriodKey, records []settlement.RewardRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.rewards[period] = append([]settlement.RewardRecord(nil), records...)
	return nil
}

func (m *memStore) RewardRecords(ctx context.Context, period settlement.PeriodKey) ([]settlement.RewardRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	records, ok := m.rewards[period]
	if !ok || len(records) == 0 {
		return nil, settlement.NewErrorf(settlement.ErrNotFound, "no reward records for period %s", period)
	}

	out := append([]settlement.RewardRecord(nil), records...)
	sort.Slice(out, func(i, j int) bool { return out[i].LeafIndex < out[j].LeafIndex })
	return out, nil
}

func (m *memStore) StampMerkleRoot(ctx context.Context, period settlement.PeriodKey, root chainhash.Hash) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	records := m.rewards[period]
	for i := range records {
		records[i].MerkleRoot = root
	}
	return nil
}

func (m *memStore) BeginBatch(ctx context.Context, period settlement.PeriodKey) (*settlement.MerkleBatch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.batches[period]; ok {
		if existing.State == settlement.StateCommitted {
			return copyBatch(existing), nil
		}
		return nil, settlement.NewErrorf(settlement.ErrConflict,
			"batch for period %s is already being built", period)
	}

	building := &settlement.MerkleBatch{PeriodKey: period, State: settlement.StateBuilding}
	m.batches[period] = building
	return copyBatch(building), nil
}

func (m *memStore) CommitBatch(ctx context.Context, batch *settlement.MerkleBatch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.batches[batch.PeriodKey]
	if !ok {
		return settlement.NewErrorf(settlement.ErrValidation,
			"commit without building claim for period %s", batch.PeriodKey)
	}
	if existing.State == settlement.StateCommitted {
		// Safe retry: the terminal state wins.
		return nil
	}

	committed := copyBatch(batch)
	committed.State = settlement.StateCommitted
	m.batches[batch.PeriodKey] = committed
	return nil
}

func (m *memStore) AbortBatch(ctx context.Context, period settlement.PeriodKey) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.batches[period]
	if !ok {
		return nil
	}
	if existing.State == settlement.StateCommitted {
		return settlement.NewErrorf(settlement.ErrValidation,
			"cannot abort committed batch for period %s", period)
	}
	delete(m.batches, period)
	return nil
}

func (m *memStore) Batch(ctx context.Context, period settlement.PeriodKey) (*settlement.MerkleBatch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.batches[period]
	if !ok {
		return nil, settlement.NewErrorf(settlement.ErrNotFound, "no batch for period %s", period)
	}
	return copyBatch(existing), nil
}

func (m *memStore) PutFeeEvents(ctx context.Context, events []settlement.FeeEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, event := range events {
		m.feeEvents[event.ID] = event
	}
	return nil
}

func (m *memStore) UnconsumedFeeEvents(ctx context.Context, window settlement.Window) ([]settlement.FeeEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []settlement.FeeEvent
	for id, event := range m.feeEvents {
		if _, taken := m.consumed[id]; taken {
			continue
		}
		if window.Contains(event.Timestamp) {
			out = append(out, event)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) MarkFeeEventsConsumed(ctx context.Context, window settlement.Window, eventIDs []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, id := range eventIDs {
		m.consumed[id] = window.Key()
	}
	return nil
}

func (m *memStore) PutDistribution(ctx context.Context, result *settlement.DistributionResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	key := result.Window.Key()
	if _, exists := m.distributions[key]; exists {
		return settlement.NewErrorf(settlement.ErrConflict,
			"distribution for window %s already stored", key)
	}

	cp := *result
	m.distributions[key] = &cp
	return nil
}

func (m *memStore) Distribution(ctx context.Context, window settlement.Window) (*settlement.DistributionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	result, ok := m.distributions[window.Key()]
	if !ok {
		return nil, settlement.NewErrorf(settlement.ErrNotFound,
			"no distribution for window %s", window.Key())
	}
	cp := *result
	return &cp, nil
}

func (m *memStore) Close() error { return nil }

func copyBatch(b *settlement.MerkleBatch) *settlement.MerkleBatch {
	cp := *b
	cp.Leaves = append([]chainhash.Hash(nil), b.Leaves...)
	cp.Layers = make([][]chainhash.Hash, len(b.Layers))
	for i := range b.Layers {
		cp.Layers[i] = append([]chainhash.Hash(nil), b.Layers[i]...)
	}
	return &cp
}
