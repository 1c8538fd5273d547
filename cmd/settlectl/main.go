// Copyright (c) 2025 The TYT Platform developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// settlectl talks to a running settled daemon: close periods, fetch
// and verify proofs, run fee distributions and export reward records
// to CSV.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"gitlab.com/tytlab/core/settlement.core/engine"
	"gitlab.com/tytlab/core/settlement.core/types/settlement"
)

func main() {
	app := &App{}
	cliApp := &cli.App{
		Name:   "settlectl",
		Usage:  "control the TYT settlement daemon",
		Flags:  app.InitFlags(),
		Before: app.InitClient,
		Commands: []*cli.Command{
			{
				Name:   "close-period",
				Usage:  "aggregate a settlement day and commit its merkle batch",
				Flags:  flagSet(flagPeriod),
				Action: app.ClosePeriodCmd,
			},
			{
				Name:   "proof",
				Usage:  "fetch the inclusion proof of one miner's reward",
				Flags:  flagSet(flagPeriod, flagMiner, flagOutput),
				Action: app.ProofCmd,
			},
			{
				Name:   "verify",
				Usage:  "verify a previously fetched proof file locally",
				Flags:  flagSet(flagProofFile),
				Action: app.VerifyCmd,
			},
			{
				Name:   "distribute",
				Usage:  "run the fee distribution over a window of days",
				Flags:  flagSet(flagFrom, flagTo),
				Action: app.DistributeCmd,
			},
			{
				Name:   "export-rewards",
				Usage:  "export a period's reward records to a CSV file",
				Flags:  flagSet(flagPeriod, flagDataFile),
				Action: app.ExportRewardsCmd,
			},
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		println(err.Error())
		os.Exit(1)
	}
}

func (app *App) ClosePeriodCmd(c *cli.Context) error {
	var result json.RawMessage
	err := app.postJSON("/v1/periods/close",
		map[string]string{"period_key": c.String(flagPeriod)}, &result)
	if err != nil {
		return err
	}
	return printJSON(result)
}

func (app *App) ProofCmd(c *cli.Context) error {
	var proof settlement.InclusionProof
	err := app.getJSON(fmt.Sprintf("/v1/proofs?period=%s&miner=%s",
		c.String(flagPeriod), c.String(flagMiner)), &proof)
	if err != nil {
		return err
	}

	if output := c.String(flagOutput); output != "" {
		raw, err := json.MarshalIndent(proof, "", "  ")
		if err != nil {
			return err
		}
		return os.WriteFile(output, raw, 0600)
	}
	return printJSON(proof)
}

func (app *App) VerifyCmd(c *cli.Context) error {
	raw, err := os.ReadFile(c.String(flagProofFile))
	if err != nil {
		return errors.Wrap(err, "reading proof file")
	}

	var proof settlement.InclusionProof
	if err := json.Unmarshal(raw, &proof); err != nil {
		return errors.Wrap(err, "parsing proof file")
	}

	if !engine.Verify(&proof) {
		return errors.Errorf("proof for leaf %d of period %s does NOT validate",
			proof.LeafIndex, proof.PeriodKey)
	}
	fmt.Printf("OK: leaf %d of period %s is included under root %s\n",
		proof.LeafIndex, proof.PeriodKey, proof.Root)
	return nil
}

func (app *App) DistributeCmd(c *cli.Context) error {
	var result json.RawMessage
	err := app.postJSON("/v1/distributions", map[string]string{
		"window_start": c.String(flagFrom),
		"window_end":   c.String(flagTo),
	}, &result)
	if err != nil {
		return err
	}
	return printJSON(result)
}

func (app *App) ExportRewardsCmd(c *cli.Context) error {
	var records []settlement.RewardRecord
	err := app.getJSON("/v1/rewards?period="+c.String(flagPeriod), &records)
	if err != nil {
		return err
	}

	storage := NewCSVStorage(c.String(flagDataFile))
	if err := storage.SaveRewards(records); err != nil {
		return errors.Wrap(err, "writing CSV")
	}
	fmt.Printf("exported %d records to %s\n", len(records), c.String(flagDataFile))
	return nil
}

func printJSON(payload interface{}) error {
	raw, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(raw))
	return nil
}
