// Copyright (c) 2025 The TYT Platform developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
)

// shutdownRequestChannel lets a subsystem ask the daemon to stop
// through the same path as an OS interrupt, so there is exactly one
// shutdown sequence.
var shutdownRequestChannel = make(chan struct{})

// interruptSignals are the signals a process supervisor sends the
// settlement daemon to stop it cleanly.
var interruptSignals = []os.Signal{syscall.SIGINT, syscall.SIGTERM}

// interruptListener returns a channel that closes on the first
// interrupt or internal shutdown request. Settlement runs in flight
// get a chance to finish; the store must not be closed under them.
func interruptListener(log zerolog.Logger) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		interruptChannel := make(chan os.Signal, 1)
		signal.Notify(interruptChannel, interruptSignals...)

		select {
		case sig := <-interruptChannel:
			log.Info().Str("signal", sig.String()).Msg("interrupt received, stopping settlement daemon")

		case <-shutdownRequestChannel:
			log.Info().Msg("shutdown requested, stopping settlement daemon")
		}
		close(done)

		// Keep draining so impatient repeats are acknowledged instead
		// of killing the process mid-commit.
		for {
			select {
			case sig := <-interruptChannel:
				log.Info().Str("signal", sig.String()).Msg("interrupt received, shutdown already in progress")

			case <-shutdownRequestChannel:
				log.Info().Msg("shutdown already in progress")
			}
		}
	}()

	return done
}
