// Copyright (c) 2025 The TYT Platform developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rates

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"gitlab.com/tytlab/core/settlement.core/types/settlement"
)

const defaultPriceURL = "https://api.coingecko.com/api/v3/simple/price?ids=bitcoin&vs_currencies=usd"

// HTTPConfig tunes the oracle client.
type HTTPConfig struct {
	PriceURL string              `yaml:"price_url"`
	Timeout  settlement.Duration `yaml:"timeout"`

	// FallbackPriceUSD is used when the price endpoint is unreachable,
	// so a flaky oracle cannot block period settlement.
	FallbackPriceUSD float64 `yaml:"fallback_price_usd"`

	// Network parameters for the yield model.
	Difficulty           float64 `yaml:"difficulty"`
	BlockReward          float64 `yaml:"block_reward"`
	BlocksPerDay         int     `yaml:"blocks_per_day"`
	ElectricityUSDPerKWh float64 `yaml:"electricity_usd_per_kwh"`
}

// DefaultHTTPConfig mirrors the production defaults.
func DefaultHTTPConfig() HTTPConfig {
	return HTTPConfig{
		PriceURL:             defaultPriceURL,
		Timeout:              settlement.Duration(10 * time.Second),
		FallbackPriceUSD:     95000,
		Difficulty:           109780000000000,
		BlockReward:          3.125,
		BlocksPerDay:         144,
		ElectricityUSDPerKWh: 0.05,
	}
}

// HTTPSource derives period rates from a live BTC price quote.
type HTTPSource struct {
	cfg    HTTPConfig
	client *http.Client
}

// NewHTTPSource builds an oracle client with a bounded request timeout.
func NewHTTPSource(cfg HTTPConfig) *HTTPSource {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultHTTPConfig().Timeout
	}
	return &HTTPSource{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout.D()},
	}
}

func (s *HTTPSource) PeriodRates(ctx context.Context, _ settlement.PeriodKey) (*PeriodRates, error) {
	price, err := s.fetchPriceUSD(ctx)
	if err != nil {
		if s.cfg.FallbackPriceUSD <= 0 {
			return nil, err
		}
		price = s.cfg.FallbackPriceUSD
	}

	rates := Derive(s.cfg.Difficulty, s.cfg.BlockReward, s.cfg.BlocksPerDay,
		price, s.cfg.ElectricityUSDPerKWh)
	return &rates, nil
}

func (s *HTTPSource) fetchPriceUSD(ctx context.Context) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.PriceURL, nil)
	if err != nil {
		return 0, errors.Wrap(err, "building price request")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, errors.Wrap(err, "fetching BTC price")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, errors.Errorf("price endpoint returned %s", resp.Status)
	}

	var payload struct {
		Bitcoin struct {
			USD float64 `json:"usd"`
		} `json:"bitcoin"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, errors.Wrap(err, "decoding price response")
	}
	if payload.Bitcoin.USD <= 0 {
		return 0, errors.New("price response has no usd quote")
	}
	return payload.Bitcoin.USD, nil
}
