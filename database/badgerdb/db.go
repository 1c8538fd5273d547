// Copyright (c) 2025 The TYT Platform developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package badgerdb implements the database.Store interface on top of an
// embedded badger key-value store. Records are stored as JSON values
// under one-byte-prefixed composite keys.
package badgerdb

import (
	"context"
	"encoding/json"
	"sort"

	badger "github.com/dgraph-io/badger"
	"github.com/pkg/errors"

	"gitlab.com/tytlab/core/settlement.core/database"
	"gitlab.com/tytlab/core/settlement.core/types/chainhash"
	"gitlab.com/tytlab/core/settlement.core/types/settlement"
)

const dbType = "badgerdb"

func init() {
	err := database.RegisterDriver(database.Driver{
		DbType: dbType,
		Open:   openDriver,
	})
	if err != nil {
		panic(err)
	}
}

func openDriver(args ...interface{}) (database.Store, error) {
	if len(args) != 1 {
		return nil, errors.Errorf("%s driver expects a single path argument", dbType)
	}
	path, ok := args[0].(string)
	if !ok {
		return nil, errors.Errorf("%s driver path must be a string", dbType)
	}
	return Open(path)
}

type badgerStore struct {
	db *badger.DB
}

// Open opens (or creates) the badger database at path.
func Open(path string) (database.Store, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrapf(err, "can't open badger store at %s", path)
	}
	logger := database.Log()
	logger.Debug().Str("path", path).Msg("badger store opened")
	return &badgerStore{db: db}, nil
}

func (b *badgerStore) Close() error {
	return b.db.Close()
}

// get unmarshals one JSON value into out. Missing keys return false.
func get(txn *badger.Txn, key []byte, out interface{}) (bool, error) {
	item, err := txn.Get(key)
	if err == badger.ErrKeyNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	data, err := item.ValueCopy(nil)
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal(data, out)
}

func set(txn *badger.Txn, key []byte, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return txn.Set(key, data)
}

func (b *badgerStore) ActiveMiners(ctx context.Context, period settlement.PeriodKey) ([]settlement.MinerSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var miners []settlement.MinerSnapshot
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = minerSnapshotPrefix(period)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			data, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			var miner settlement.MinerSnapshot
			if err := json.Unmarshal(data, &miner); err != nil {
				return err
			}
			if miner.Active {
				miners = append(miners, miner)
			}
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "reading miner snapshots")
	}
	return miners, nil
}

func (b *badgerStore) UserSnapshot(ctx context.Context, userID string) (*settlement.UserSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var user settlement.UserSnapshot
	var found bool
	err := b.db.View(func(txn *badger.Txn) (err error) {
		found, err = get(txn, userSnapshotKey(userID), &user)
		return
	})
	if err != nil {
		return nil, errors.Wrap(err, "reading user snapshot")
	}
	if !found {
		return nil, settlement.NewErrorf(settlement.ErrNotFound, "no snapshot for user %s", userID)
	}
	return &user, nil
}

func (b *badgerStore) PutMinerSnapshots(ctx context.Context, period settlement.PeriodKey, miners []settlement.MinerSnapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return b.db.Update(func(txn *badger.Txn) error {
		for i := range miners {
			if err := set(txn, minerSnapshotKey(period, miners[i].MinerID), &miners[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *badgerStore) PutUserSnapshot(ctx context.Context, user *settlement.UserSnapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return b.db.Update(func(txn *badger.Txn) error {
		return set(txn, userSnapshotKey(user.UserID), user)
	})
}

func (b *badgerStore) PutRewardRecords(ctx context.Context, period settlement.PeriodKey, records []settlement.RewardRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return b.db.Update(func(txn *badger.Txn) error {
		for i := range records {
			if err := set(txn, rewardKey(period, records[i].MinerID), &records[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *badgerStore) RewardRecords(ctx context.Context, period settlement.PeriodKey) ([]settlement.RewardRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var records []settlement.RewardRecord
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = rewardPrefix(period)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			data, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			var record settlement.RewardRecord
			if err := json.Unmarshal(data, &record); err != nil {
				return err
			}
			records = append(records, record)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "reading reward records")
	}
	if len(records) == 0 {
		return nil, settlement.NewErrorf(settlement.ErrNotFound, "no reward records for period %s", period)
	}

	sort.Slice(records, func(i, j int) bool { return records[i].LeafIndex < records[j].LeafIndex })
	return records, nil
}

func (b *badgerStore) StampMerkleRoot(ctx context.Context, period settlement.PeriodKey, root chainhash.Hash) error {
	records, err := b.RewardRecords(ctx, period)
	if err != nil {
		return err
	}
	for i := range records {
		records[i].MerkleRoot = root
	}
	return b.PutRewardRecords(ctx, period, records)
}

func (b *badgerStore) BeginBatch(ctx context.Context, period settlement.PeriodKey) (*settlement.MerkleBatch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var result *settlement.MerkleBatch
	err := b.db.Update(func(txn *badger.Txn) error {
		var existing settlement.MerkleBatch
		found, err := get(txn, batchKey(period), &existing)
		if err != nil {
			return err
		}
		if found {
			if existing.State == settlement.StateCommitted {
				result = &existing
				return nil
			}
			return settlement.NewErrorf(settlement.ErrConflict,
				"batch for period %s is already being built", period)
		}

		building := settlement.MerkleBatch{PeriodKey: period, State: settlement.StateBuilding}
		if err := set(txn, batchKey(period), &building); err != nil {
			return err
		}
		result = &building
		return nil
	})
	if err == badger.ErrConflict {
		// Another writer claimed the period between our read and write.
		return nil, settlement.NewErrorf(settlement.ErrConflict,
			"batch for period %s was claimed concurrently", period)
	}
	if err != nil {
		if settlement.IsErrorCode(err, settlement.ErrConflict) {
			return nil, err
		}
		return nil, errors.Wrap(err, "claiming batch")
	}
	return result, nil
}

func (b *badgerStore) CommitBatch(ctx context.Context, batch *settlement.MerkleBatch) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := b.db.Update(func(txn *badger.Txn) error {
		var existing settlement.MerkleBatch
		found, err := get(txn, batchKey(batch.PeriodKey), &existing)
		if err != nil {
			return err
		}
		if !found {
			return settlement.NewErrorf(settlement.ErrValidation,
				"commit without building claim for period %s", batch.PeriodKey)
		}
		if existing.State == settlement.StateCommitted {
			// Safe retry: the terminal state wins.
			return nil
		}

		committed := *batch
		committed.State = settlement.StateCommitted
		return set(txn, batchKey(batch.PeriodKey), &committed)
	})
	if err != nil && !settlement.IsErrorCode(err, settlement.ErrValidation) {
		return errors.Wrap(err, "committing batch")
	}
	return err
}

func (b *badgerStore) AbortBatch(ctx context.Context, period settlement.PeriodKey) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return b.db.Update(func(txn *badger.Txn) error {
		var existing settlement.MerkleBatch
		found, err := get(txn, batchKey(period), &existing)
		if err != nil {
			return err
		}
		if !found {
			return nil
		}
		if existing.State == settlement.StateCommitted {
			return settlement.NewErrorf(settlement.ErrValidation,
				"cannot abort committed batch for period %s", period)
		}
		return txn.Delete(batchKey(period))
	})
}

func (b *badgerStore) Batch(ctx context.Context, period settlement.PeriodKey) (*settlement.MerkleBatch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var batch settlement.MerkleBatch
	var found bool
	err := b.db.View(func(txn *badger.Txn) (err error) {
		found, err = get(txn, batchKey(period), &batch)
		return
	})
	if err != nil {
		return nil, errors.Wrap(err, "reading batch")
	}
	if !found {
		return nil, settlement.NewErrorf(settlement.ErrNotFound, "no batch for period %s", period)
	}
	return &batch, nil
}

func (b *badgerStore) PutFeeEvents(ctx context.Context, events []settlement.FeeEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return b.db.Update(func(txn *badger.Txn) error {
		for i := range events {
			if err := set(txn, feeEventKey(events[i].ID), &events[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *badgerStore) UnconsumedFeeEvents(ctx context.Context, window settlement.Window) ([]settlement.FeeEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var events []settlement.FeeEvent
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = feeEventPrefix()
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			data, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			var event settlement.FeeEvent
			if err := json.Unmarshal(data, &event); err != nil {
				return err
			}
			if !window.Contains(event.Timestamp) {
				continue
			}
			if _, err := txn.Get(consumedKey(event.ID)); err == nil {
				continue
			} else if err != badger.ErrKeyNotFound {
				return err
			}
			events = append(events, event)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "reading fee events")
	}

	sort.Slice(events, func(i, j int) bool { return events[i].ID < events[j].ID })
	return events, nil
}

func (b *badgerStore) MarkFeeEventsConsumed(ctx context.Context, window settlement.Window, eventIDs []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return b.db.Update(func(txn *badger.Txn) error {
		for _, id := range eventIDs {
			if err := txn.Set(consumedKey(id), []byte(window.Key())); err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *badgerStore) PutDistribution(ctx context.Context, result *settlement.DistributionResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := b.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(distributionKey(result.Window)); err == nil {
			return settlement.NewErrorf(settlement.ErrConflict,
				"distribution for window %s already stored", result.Window.Key())
		} else if err != badger.ErrKeyNotFound {
			return err
		}
		return set(txn, distributionKey(result.Window), result)
	})
	if err != nil && !settlement.IsErrorCode(err, settlement.ErrConflict) {
		return errors.Wrap(err, "storing distribution")
	}
	return err
}

func (b *badgerStore) Distribution(ctx context.Context, window settlement.Window) (*settlement.DistributionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var result settlement.DistributionResult
	var found bool
	err := b.db.View(func(txn *badger.Txn) (err error) {
		found, err = get(txn, distributionKey(window), &result)
		return
	})
	if err != nil {
		return nil, errors.Wrap(err, "reading distribution")
	}
	if !found {
		return nil, settlement.NewErrorf(settlement.ErrNotFound,
			"no distribution for window %s", window.Key())
	}
	return &result, nil
}
