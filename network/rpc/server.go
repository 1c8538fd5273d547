// Copyright (c) 2025 The TYT Platform developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rpc

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"gitlab.com/tytlab/core/settlement.core/engine"
)

// Server is the settlement API: period close, proofs, distributions
// and proof verification over plain HTTP/JSON.
type Server struct {
	started  int32
	shutdown int32

	cfg        Config
	controller *engine.Controller

	// secretSHA is the pre-hashed cron secret; requests are compared in
	// constant time against this digest, never against the raw secret.
	secretSHA [sha256.Size]byte
	hasSecret bool

	httpServer *http.Server
	wg         sync.WaitGroup
	quit       chan struct{}
}

// NewServer wires the API around a settlement controller.
func NewServer(cfg Config, controller *engine.Controller) *Server {
	server := &Server{
		cfg:        cfg,
		controller: controller,
		quit:       make(chan struct{}),
	}
	if cfg.CronSecret != "" {
		server.secretSHA = sha256.Sum256([]byte(cfg.CronSecret))
		server.hasSecret = true
	}

	readTimeout := cfg.ReadTimeout.D()
	if readTimeout <= 0 {
		readTimeout = 10 * time.Second
	}
	server.httpServer = &http.Server{
		Handler: server.Handler(),
		// Timeout connections which don't deliver their request within
		// the allowed timeframe.
		ReadTimeout: readTimeout,
	}
	return server
}

// Handler returns the route table. Exposed separately so tests can
// drive the server through httptest without binding a port.
func (server *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/periods/close", server.authorized(server.handleClosePeriod))
	mux.HandleFunc("/v1/distributions", server.authorized(server.handleRunDistribution))
	mux.HandleFunc("/v1/rewards", server.authorized(server.handleListRewards))
	mux.HandleFunc("/v1/proofs", server.handleGetProof)
	mux.HandleFunc("/v1/verify", server.handleVerify)
	return mux
}

// Start begins listening and serves until the context is cancelled.
func (server *Server) Start(ctx context.Context) error {
	if atomic.AddInt32(&server.started, 1) != 1 {
		return nil
	}

	listener, err := net.Listen("tcp", server.cfg.ListenAddr)
	if err != nil {
		return errors.Wrapf(err, "binding API listener on %s", server.cfg.ListenAddr)
	}

	server.wg.Add(1)
	go func() {
		defer server.wg.Done()
		log.Info().Str("addr", listener.Addr().String()).Msg("API server listening")
		if err := server.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("API server stopped")
		}
	}()

	<-ctx.Done()

	log.Info().Msg("shutting down the API server")
	if err := server.Stop(); err != nil {
		return err
	}
	log.Info().Msg("API server gracefully stopped")
	return nil
}

// Stop shuts the listener down and waits for in-flight requests.
func (server *Server) Stop() error {
	if atomic.AddInt32(&server.shutdown, 1) != 1 {
		log.Info().Msg("API server is already in the process of shutting down")
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := server.httpServer.Shutdown(shutdownCtx)

	close(server.quit)
	server.wg.Wait()
	return err
}

// authorized gates mutating endpoints behind the cron secret. The
// comparison runs over sha256 digests in constant time, so neither the
// secret length nor its content leaks through timing.
func (server *Server) authorized(handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !server.hasSecret {
			writeErrorStatus(w, http.StatusForbidden, "mutating endpoints are disabled: no cron secret configured")
			return
		}

		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		tokenSHA := sha256.Sum256([]byte(token))
		if subtle.ConstantTimeCompare(tokenSHA[:], server.secretSHA[:]) != 1 {
			log.Warn().Str("remote", r.RemoteAddr).Str("path", r.URL.Path).Msg("rejected unauthorized request")
			writeErrorStatus(w, http.StatusUnauthorized, "invalid cron secret")
			return
		}
		handler(w, r)
	}
}
