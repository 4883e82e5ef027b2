// Copyright (c) 2026 The Stasis developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"net/http"
	"net/http/pprof"
	"strings"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	apievents "github.com/stasisprotocol/stasis/api/events"
	apihealth "github.com/stasisprotocol/stasis/api/health"
	apistaking "github.com/stasisprotocol/stasis/api/staking"
	"github.com/stasisprotocol/stasis/eventdb"
	"github.com/stasisprotocol/stasis/health"
	"github.com/stasisprotocol/stasis/log"
	"github.com/stasisprotocol/stasis/staking"
)

var logger = log.WithContext("pkg", "api")

type Options struct {
	AllowedOrigins  string
	PprofOn         bool
	EnableMetrics   bool
	EnableReqLogger bool
	EventsLimit     uint64
}

// New returns the api router.
func New(
	ledger *staking.Staking,
	eventDB *eventdb.EventDB,
	best apistaking.BestFunc,
	healthStatus *health.Health,
	opts Options,
) http.HandlerFunc {
	origins := strings.Split(strings.TrimSpace(opts.AllowedOrigins), ",")
	for i, o := range origins {
		origins[i] = strings.ToLower(strings.TrimSpace(o))
	}

	router := mux.NewRouter()

	apistaking.New(ledger, best).
		Mount(router, "/staking")
	if eventDB != nil {
		apievents.New(eventDB, opts.EventsLimit).
			Mount(router, "/events")
	}
	if healthStatus != nil {
		apihealth.New(healthStatus).
			Mount(router, "/health")
	}

	if opts.PprofOn {
		router.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		router.HandleFunc("/debug/pprof/profile", pprof.Profile)
		router.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		router.HandleFunc("/debug/pprof/trace", pprof.Trace)
		router.PathPrefix("/debug/pprof/").HandlerFunc(pprof.Index)
	}

	if opts.EnableMetrics {
		router.Use(metricsMiddleware)
	}

	handler := handlers.CompressHandler(router)
	handler = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedHeaders([]string{"content-type"}),
	)(handler)

	if opts.EnableReqLogger {
		handler = RequestLoggerHandler(handler, logger)
	}

	return handler.ServeHTTP
}
