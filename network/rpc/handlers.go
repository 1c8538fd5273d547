// Copyright (c) 2025 The TYT Platform developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rpc

import (
	"encoding/json"
	"net/http"

	"gitlab.com/tytlab/core/settlement.core/engine"
	"gitlab.com/tytlab/core/settlement.core/types/chainhash"
	"gitlab.com/tytlab/core/settlement.core/types/settlement"
)

// maxRequestBody bounds request bodies; every request here is a small
// JSON document.
const maxRequestBody = 1 << 16

type errorResponse struct {
	Error string `json:"error"`
}

type closePeriodRequest struct {
	PeriodKey string `json:"period_key"`
}

type closePeriodResponse struct {
	PeriodKey   settlement.PeriodKey `json:"period_key"`
	Root        chainhash.Hash       `json:"root"`
	RecordCount uint32               `json:"record_count"`
	State       string               `json:"state"`
}

type runDistributionRequest struct {
	WindowStart string `json:"window_start"`
	WindowEnd   string `json:"window_end"`
}

type verifyRequest struct {
	PeriodKey     settlement.PeriodKey `json:"period_key"`
	LeafIndex     uint32               `json:"leaf_index"`
	LeafHash      chainhash.Hash       `json:"leaf_hash"`
	SiblingHashes []chainhash.Hash     `json:"sibling_hashes"`
	Root          chainhash.Hash       `json:"root"`
}

type verifyResponse struct {
	Valid bool `json:"valid"`
}

func (server *Server) handleClosePeriod(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErrorStatus(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	var req closePeriodRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	batch, err := server.controller.ClosePeriod(r.Context(), settlement.PeriodKey(req.PeriodKey))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, closePeriodResponse{
		PeriodKey:   batch.PeriodKey,
		Root:        batch.Root,
		RecordCount: batch.RecordCount,
		State:       batch.State.String(),
	})
}

func (server *Server) handleGetProof(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorStatus(w, http.StatusMethodNotAllowed, "GET required")
		return
	}

	period := r.URL.Query().Get("period")
	minerID := r.URL.Query().Get("miner")
	if period == "" || minerID == "" {
		writeErrorStatus(w, http.StatusBadRequest, "period and miner query parameters are required")
		return
	}

	proof, err := server.controller.GetProof(r.Context(), settlement.PeriodKey(period), minerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, proof)
}

// handleListRewards dumps the period's settled records. Protected:
// the listing exposes every user's reward, unlike a single proof.
func (server *Server) handleListRewards(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorStatus(w, http.StatusMethodNotAllowed, "GET required")
		return
	}

	period := r.URL.Query().Get("period")
	if period == "" {
		writeErrorStatus(w, http.StatusBadRequest, "period query parameter is required")
		return
	}

	records, err := server.controller.Rewards(r.Context(), settlement.PeriodKey(period))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (server *Server) handleRunDistribution(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErrorStatus(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	var req runDistributionRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	window := settlement.Window{
		Start: settlement.PeriodKey(req.WindowStart),
		End:   settlement.PeriodKey(req.WindowEnd),
	}
	result, err := server.controller.RunDistribution(r.Context(), window)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleVerify is open to anyone: verification is a pure function of
// the request, no store access and nothing to protect.
func (server *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErrorStatus(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	var req verifyRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	valid := engine.Verify(&settlement.InclusionProof{
		PeriodKey:     req.PeriodKey,
		LeafIndex:     req.LeafIndex,
		LeafHash:      req.LeafHash,
		SiblingHashes: req.SiblingHashes,
		Root:          req.Root,
	})
	writeJSON(w, http.StatusOK, verifyResponse{Valid: valid})
}

func decodeRequest(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err := decoder.Decode(dst); err != nil {
		writeErrorStatus(w, http.StatusBadRequest, "malformed request body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("writing API response")
	}
}

func writeErrorStatus(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeError maps the settlement error taxonomy onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case settlement.IsErrorCode(err, settlement.ErrValidation):
		status = http.StatusBadRequest
	case settlement.IsErrorCode(err, settlement.ErrNotFound):
		status = http.StatusNotFound
	case settlement.IsErrorCode(err, settlement.ErrConflict):
		status = http.StatusConflict
	case settlement.IsErrorCode(err, settlement.ErrTransientStore):
		status = http.StatusServiceUnavailable
	case settlement.IsErrorCode(err, settlement.ErrIntegrity):
		status = http.StatusInternalServerError
	}
	writeErrorStatus(w, status, err.Error())
}
