// Copyright (c) 2025 The TYT Platform developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package database

import (
	"fmt"

	"github.com/pkg/errors"
)

// Driver defines a structure for backend drivers to use when they
// register themselves as a backend which implements the Store
// interface.
type Driver struct {
	// DbType is the identifier used to uniquely identify a specific
	// database driver. There can be only one driver with the same name.
	DbType string

	// Open is the function that will be invoked with all user-specified
	// arguments to open the database.
	Open func(args ...interface{}) (Store, error)
}

// driverList holds all of the registered database backends.
var drivers = make(map[string]*Driver)

// RegisterDriver adds a backend database driver to available
// interfaces. An error is returned if the database type for the driver
// has already been registered.
func RegisterDriver(driver Driver) error {
	if _, exists := drivers[driver.DbType]; exists {
		return errors.Errorf("driver %q is already registered", driver.DbType)
	}

	drivers[driver.DbType] = &driver
	return nil
}

// SupportedDrivers returns a slice of strings that represent the
// database drivers that have been registered and are therefore
// supported.
func SupportedDrivers() []string {
	supportedDBs := make([]string, 0, len(drivers))
	for _, drv := range drivers {
		supportedDBs = append(supportedDBs, drv.DbType)
	}
	return supportedDBs
}

// Open opens an existing database (creating it when the backend
// supports that) for the specified type. The arguments are specific to
// the database type driver.
func Open(dbType string, args ...interface{}) (Store, error) {
	drv, exists := drivers[dbType]
	if !exists {
		return nil, fmt.Errorf("driver %q is not registered, supported: %v",
			dbType, SupportedDrivers())
	}

	return drv.Open(args...)
}
