// Copyright (c) 2025 The TYT Platform developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"os"

	"github.com/gocarina/gocsv"

	"gitlab.com/tytlab/core/settlement.core/types/settlement"
)

// CSVStorage writes settlement exports for spreadsheets and external
// accounting tools.
type CSVStorage struct {
	path string
	file *os.File
}

func NewCSVStorage(path string) *CSVStorage {
	return &CSVStorage{path: path}
}

func (storage *CSVStorage) open(readOnly, truncate bool) error {
	mode := os.O_RDWR | os.O_CREATE
	if truncate {
		mode |= os.O_TRUNC
	}
	if readOnly {
		mode = os.O_RDONLY
	}

	file, err := os.OpenFile(storage.path, mode, 0644)
	storage.file = file
	return err
}

func (storage *CSVStorage) Close() {
	if storage.file != nil {
		_ = storage.file.Close()
	}
}

// SaveRewards writes the period's reward records, one row per miner.
func (storage *CSVStorage) SaveRewards(records []settlement.RewardRecord) error {
	if err := storage.open(false, true); err != nil {
		return err
	}
	defer storage.Close()

	return gocsv.MarshalFile(&records, storage.file)
}

// LoadRewards reads records back, for verification workflows.
func (storage *CSVStorage) LoadRewards() ([]settlement.RewardRecord, error) {
	if err := storage.open(true, false); err != nil {
		return nil, err
	}
	defer storage.Close()

	records := make([]settlement.RewardRecord, 0)
	err := gocsv.UnmarshalFile(storage.file, &records)
	return records, err
}
