// Copyright (c) 2025 The TYT Platform developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package config

import (
	"github.com/rs/zerolog"

	"gitlab.com/tytlab/core/settlement.core/corelog"
	"gitlab.com/tytlab/core/settlement.core/database"
	"gitlab.com/tytlab/core/settlement.core/engine"
	"gitlab.com/tytlab/core/settlement.core/network/rpc"
)

// Subsystem identifiers. Each package with a UseLogger hook gets its
// own unit tag so log lines can be filtered per subsystem.
const (
	logUnitMain = "SETD"
	logUnitSRDB = "SRDB"
	logUnitENGN = "ENGN"
	logUnitRPCS = "RPCS"
)

// subsystemUsers maps each subsystem identifier to the hook that
// installs its logger.
var subsystemUsers = map[string]func(zerolog.Logger){
	logUnitSRDB: database.UseLogger,
	logUnitENGN: engine.UseLogger,
	logUnitRPCS: rpc.UseLogger,
}

// SetupLoggers initializes all package loggers from the config and
// returns the main daemon logger. Unknown level strings fall back to
// the default level rather than failing startup.
func SetupLoggers(cfg *Config) zerolog.Logger {
	level := corelog.ParseLevel(cfg.LogLevel)

	logCfg := cfg.LogConfig
	if cfg.DisableFileLogging {
		logCfg.FileLoggingEnabled = false
	}

	for unit, useLogger := range subsystemUsers {
		useLogger(corelog.New(unit, level, logCfg))
	}
	return corelog.New(logUnitMain, level, logCfg)
}
