// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package admin serves the operator endpoints: log level control and ledger health.
package admin

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/vechain/stakeledger/api/utils"
	"github.com/vechain/stakeledger/log"
	"github.com/vechain/stakeledger/thor"
)

// Ledger is the part of the ledger health is judged on.
type Ledger interface {
	CurrentEpoch() thor.Epoch
	Halted() error
}

func New(logLevel *slog.LevelVar, ledger Ledger) http.HandlerFunc {
	router := mux.NewRouter()
	sub := router.PathPrefix("/admin").Subrouter()

	sub.Path("/loglevel").
		Methods(http.MethodGet).
		Name("GET /admin/loglevel").
		HandlerFunc(utils.WrapHandlerFunc(getLogLevelHandler(logLevel)))
	sub.Path("/loglevel").
		Methods(http.MethodPost).
		Name("POST /admin/loglevel").
		HandlerFunc(utils.WrapHandlerFunc(postLogLevelHandler(logLevel)))
	sub.Path("/health").
		Methods(http.MethodGet).
		Name("GET /admin/health").
		HandlerFunc(utils.WrapHandlerFunc(healthHandler(ledger)))

	return handlers.CompressHandler(router).ServeHTTP
}

// StartServer serves the admin endpoints on addr. It returns the base url and a function
// that shuts the server down.
func StartServer(addr string, logLevel *slog.LevelVar, ledger Ledger) (string, func(), error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, errors.Wrapf(err, "listen admin API addr [%v]", addr)
	}

	srv := &http.Server{Handler: New(logLevel, ledger), ReadHeaderTimeout: time.Second, ReadTimeout: 5 * time.Second}
	var g errgroup.Group
	g.Go(func() error {
		if err := srv.Serve(listener); err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	return "http://" + listener.Addr().String() + "/admin", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
		if err := g.Wait(); err != nil {
			log.Root().Warn("admin server", "error", err)
		}
	}, nil
}
