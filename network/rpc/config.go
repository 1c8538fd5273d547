// Copyright (c) 2025 The TYT Platform developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rpc

import (
	"time"

	"gitlab.com/tytlab/core/settlement.core/types/settlement"
)

// Config holds the API server settings.
type Config struct {
	// ListenAddr is the host:port the HTTP server binds to.
	ListenAddr string `yaml:"listen_addr"`

	// CronSecret authorizes the mutating endpoints. Callers send it as
	// a bearer token; an empty secret disables those endpoints rather
	// than leaving them open.
	CronSecret string `yaml:"cron_secret"`

	// ReadTimeout bounds how long a client may take to deliver its
	// request.
	ReadTimeout settlement.Duration `yaml:"read_timeout"`
}

// Default returns the standard local configuration.
func (cfg Config) Default() Config {
	return Config{
		ListenAddr:  "127.0.0.1:18333",
		ReadTimeout: settlement.Duration(10 * time.Second),
	}
}
