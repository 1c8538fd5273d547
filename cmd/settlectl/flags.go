// Copyright (c) 2025 The TYT Platform developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.
package main

import "github.com/urfave/cli/v2"

const (
	flagAPI       = "api"
	flagSecret    = "secret"
	flagPeriod    = "period"
	flagMiner     = "miner"
	flagOutput    = "output"
	flagProofFile = "proof-file"
	flagFrom      = "from"
	flagTo        = "to"
	flagDataFile  = "data-file"
)

func getFlags() map[string]cli.Flag {
	return map[string]cli.Flag{
		flagAPI: &cli.StringFlag{
			Name:    flagAPI,
			Aliases: []string{"a"},
			Value:   "http://127.0.0.1:18333",
			EnvVars: []string{"SETTLED_API"},
			Usage:   "base URL of the settled API",
		},
		flagSecret: &cli.StringFlag{
			Name:    flagSecret,
			Aliases: []string{"s"},
			EnvVars: []string{"SETTLED_CRON_SECRET"},
			Usage:   "bearer secret for the mutating endpoints",
		},
		flagPeriod: &cli.StringFlag{
			Name:     flagPeriod,
			Aliases:  []string{"p"},
			Usage:    "settlement day in YYYY-MM-DD form",
			Required: true,
		},
		flagMiner: &cli.StringFlag{
			Name:     flagMiner,
			Aliases:  []string{"m"},
			Usage:    "miner identifier",
			Required: true,
		},
		flagOutput: &cli.StringFlag{
			Name:    flagOutput,
			Aliases: []string{"o"},
			Usage:   "write the proof to this file instead of stdout",
		},
		flagProofFile: &cli.StringFlag{
			Name:     flagProofFile,
			Aliases:  []string{"f"},
			Usage:    "path to a proof JSON file",
			Required: true,
		},
		flagFrom: &cli.StringFlag{
			Name:     flagFrom,
			Usage:    "window start day, inclusive",
			Required: true,
		},
		flagTo: &cli.StringFlag{
			Name:     flagTo,
			Usage:    "window end day, exclusive",
			Required: true,
		},
		flagDataFile: &cli.StringFlag{
			Name:    flagDataFile,
			Aliases: []string{"f"},
			Value:   "rewards.csv",
			Usage:   "path to CSV output",
		},
	}
}

// flagSet picks named flags from the common table.
func flagSet(names ...string) []cli.Flag {
	all := getFlags()
	set := make([]cli.Flag, 0, len(names))
	for _, name := range names {
		set = append(set, all[name])
	}
	return set
}
