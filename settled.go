// Copyright (c) 2025 The TYT Platform developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"gitlab.com/tytlab/core/settlement.core/config"
	"gitlab.com/tytlab/core/settlement.core/engine"
	"gitlab.com/tytlab/core/settlement.core/network/rates"
	"gitlab.com/tytlab/core/settlement.core/network/rpc"

	_ "gitlab.com/tytlab/core/settlement.core/database/badgerdb"
	_ "gitlab.com/tytlab/core/settlement.core/database/memdb"
)

const version = "0.4.1"

func main() {
	// Use all processor cores.
	runtime.GOMAXPROCS(runtime.NumCPU())

	// Work around defer not working after os.Exit()
	if err := settledMain(); err != nil {
		fmt.Println("FATAL:", err)
		os.Exit(1)
	}
}

// settledMain is the real main function for settled.  It is necessary
// to work around the fact that deferred functions do not run when
// os.Exit() is called.
func settledMain() error {
	// Load configuration and parse command line.  This function also
	// initializes logging and configures it accordingly.
	cfg, err := config.LoadConfig("settled", os.Args[1:])
	if err != nil {
		return err
	}
	if cfg.ShowVersion {
		fmt.Printf("settled version %s (%s)\n", version, runtime.Version())
		return nil
	}

	log := config.SetupLoggers(cfg)
	log.Info().Str("version", version).Msg("settled starting")

	// Get a channel that will be closed when a shutdown signal has been
	// triggered either from an OS signal such as SIGINT (Ctrl+C) or from
	// another subsystem.
	interrupt := interruptListener(log)

	store, err := cfg.OpenStore()
	if err != nil {
		return err
	}
	defer func() {
		log.Info().Msg("gracefully shutting down the settlement store")
		if err := store.Close(); err != nil {
			log.Error().Err(err).Msg("closing settlement store")
		}
	}()

	controller, err := engine.NewController(store, rates.NewHTTPSource(cfg.Rates), cfg.Settlement)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-interrupt
		cancel()
	}()

	server := rpc.NewServer(cfg.API, controller)
	if err := server.Start(ctx); err != nil {
		return err
	}

	log.Info().Msg("shutdown complete")
	return nil
}
