// Copyright (c) 2025 The TYT Platform developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

// App holds the API client shared by all commands.
type App struct {
	apiURL string
	secret string
	client *http.Client
}

func (app *App) InitFlags() []cli.Flag {
	return flagSet(flagAPI, flagSecret)
}

func (app *App) InitClient(c *cli.Context) error {
	app.apiURL = c.String(flagAPI)
	app.secret = c.String(flagSecret)
	app.client = &http.Client{Timeout: 60 * time.Second}
	return nil
}

func (app *App) getJSON(path string, dst interface{}) error {
	req, err := http.NewRequest(http.MethodGet, app.apiURL+path, nil)
	if err != nil {
		return err
	}
	return app.do(req, dst)
}

func (app *App) postJSON(path string, payload, dst interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, app.apiURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return app.do(req, dst)
}

func (app *App) do(req *http.Request, dst interface{}) error {
	if app.secret != "" {
		req.Header.Set("Authorization", "Bearer "+app.secret)
	}

	resp, err := app.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "calling settled API")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error != "" {
			return errors.Errorf("API error (%s): %s", resp.Status, apiErr.Error)
		}
		return errors.Errorf("API error: %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}
