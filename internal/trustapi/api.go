// Copyright 2021 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package trustapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/metrics"
	"github.com/ethereum/go-ethereum/metrics/prometheus"
	lru "github.com/hashicorp/golang-lru"
	"github.com/julienschmidt/httprouter"
	"github.com/probeum/go-trustless/core"
	"github.com/probeum/go-trustless/core/registry"
	"github.com/probeum/go-trustless/core/types"
	"github.com/rs/cors"
	"golang.org/x/time/rate"
)

const (
	defaultLogLimit = 100
	maxLogLimit     = 1000
	maxRequestSize  = 512 * 1024
	maxLimiters     = 4096 // Number of client addresses tracked by the rate limiter
)

var (
	requestMeter     = metrics.NewRegisteredMeter("api/requests", nil)
	errorMeter       = metrics.NewRegisteredMeter("api/errors", nil)
	rateLimitedMeter = metrics.NewRegisteredMeter("api/ratelimited", nil)
)

// HTTPConfig are the options of the HTTP API handler.
type HTTPConfig struct {
	Cors      []string // Allowed CORS origins
	RateLimit float64  // Requests per second per client, zero disables limiting
	RateBurst int
	Metrics   bool // Serve the metrics registry in prometheus format
}

type errorResponse struct {
	Error string `json:"error"`
	Class string `json:"class,omitempty"`
}

// API serves the ledger over HTTP.
type API struct {
	b Backend
}

// NewHandler creates the HTTP handler of the API.
func NewHandler(b Backend, config HTTPConfig) http.Handler {
	api := &API{b: b}

	router := httprouter.New()
	router.POST("/tx", api.sendTransaction)
	router.GET("/tx/:hash", api.getReceipt)
	router.GET("/record/:address", api.getRecord)
	router.GET("/agent/:address", api.getAgent)
	router.GET("/job/:reference", api.getJob)
	router.GET("/feedback/:reference", api.getFeedback)
	router.GET("/logs", api.getLogs)
	router.GET("/status", api.status)
	if config.Metrics {
		router.Handler(http.MethodGet, "/debug/metrics/prometheus", prometheus.Handler(metrics.DefaultRegistry))
	}
	var handler http.Handler = router
	if config.RateLimit > 0 {
		handler = newRateLimiter(config.RateLimit, config.RateBurst).handler(handler)
	}
	if len(config.Cors) > 0 {
		handler = cors.New(cors.Options{
			AllowedOrigins: config.Cors,
			AllowedMethods: []string{http.MethodGet, http.MethodPost},
			AllowedHeaders: []string{"*"},
			MaxAge:         600,
		}).Handler(handler)
	}
	return countRequests(handler)
}

func countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestMeter.Mark(1)
		next.ServeHTTP(w, r)
	})
}

func (api *API) sendTransaction(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var args TransactionArgs
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestSize)).Decode(&args); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request: %v", err))
		return
	}
	tx, err := args.ToTransaction()
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	receipt, err := api.b.SendTx(r.Context(), tx)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, RPCMarshalReceipt(receipt))
	case errors.Is(err, core.ErrAlreadyKnown):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, core.ErrLedgerClosed), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, err)
	default:
		writeError(w, http.StatusBadRequest, err)
	}
}

func (api *API) getReceipt(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	hash, err := parseHash(ps.ByName("hash"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	receipt, err := api.b.GetReceipt(r.Context(), hash)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if receipt == nil {
		writeError(w, http.StatusNotFound, errors.New("unknown transaction"))
		return
	}
	writeJSON(w, http.StatusOK, RPCMarshalReceipt(receipt))
}

func (api *API) getRecord(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	addr, err := parseAddress(ps.ByName("address"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	api.serveRecord(w, r, addr)
}

func (api *API) getAgent(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	agent, err := parseAddress(ps.ByName("address"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	api.serveRecord(w, r, registry.AgentAddress(api.b.RegistryConfig().ProgramAddress, agent))
}

func (api *API) getJob(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ref, err := parseHash(ps.ByName("reference"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	api.serveRecord(w, r, registry.JobAddress(api.b.RegistryConfig().ProgramAddress, ref))
}

func (api *API) getFeedback(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ref, err := parseHash(ps.ByName("reference"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	program := api.b.RegistryConfig().ProgramAddress
	api.serveRecord(w, r, registry.FeedbackAddress(program, registry.JobAddress(program, ref)))
}

func (api *API) serveRecord(w http.ResponseWriter, r *http.Request, addr common.Address) {
	rec, err := api.b.GetRecord(r.Context(), addr)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, fmt.Errorf("no record at %x", addr))
		return
	}
	fields := RPCMarshalRecord(rec)
	fields["address"] = addr
	writeJSON(w, http.StatusOK, fields)
}

func (api *API) getLogs(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var (
		from  uint64
		limit = defaultLogLimit
		err   error
		query = r.URL.Query()
	)
	if s := query.Get("from"); s != "" {
		if from, err = strconv.ParseUint(s, 0, 64); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid from: %v", err))
			return
		}
	}
	if s := query.Get("limit"); s != "" {
		if limit, err = strconv.Atoi(s); err != nil || limit <= 0 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid limit %q", s))
			return
		}
		if limit > maxLogLimit {
			limit = maxLogLimit
		}
	}
	logs, err := api.b.GetLogs(r.Context(), from, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if logs == nil {
		logs = []*types.Log{}
	}
	writeJSON(w, http.StatusOK, logs)
}

func (api *API) status(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	config := api.b.RegistryConfig()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"stateRoot":    api.b.StateRoot(),
		"registry":     config.ProgramAddress,
		"tokenProgram": config.TokenProgram,
	})
}

func parseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid address %q", s)
	}
	return common.HexToAddress(s), nil
}

func parseHash(s string) (common.Hash, error) {
	var hash common.Hash
	if err := hash.UnmarshalText([]byte(s)); err != nil {
		return common.Hash{}, fmt.Errorf("invalid hash %q: %v", s, err)
	}
	return hash, nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Debug("Failed to write API response", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	errorMeter.Mark(1)
	resp := errorResponse{Error: err.Error()}
	if class := registry.Classify(err); class != registry.ClassHost && class != registry.ClassNone {
		resp.Class = class.String()
	}
	writeJSON(w, status, resp)
}

// rateLimiter is a per client token bucket limiter.
type rateLimiter struct {
	limit    rate.Limit
	burst    int
	limiters *lru.Cache
}

func newRateLimiter(limit float64, burst int) *rateLimiter {
	if burst <= 0 {
		burst = 1
	}
	cache, _ := lru.New(maxLimiters)
	return &rateLimiter{limit: rate.Limit(limit), burst: burst, limiters: cache}
}

func (rl *rateLimiter) allow(client string) bool {
	l := rate.NewLimiter(rl.limit, rl.burst)
	if ok, _ := rl.limiters.ContainsOrAdd(client, l); ok {
		if cached, ok := rl.limiters.Get(client); ok {
			l = cached.(*rate.Limiter)
		}
	}
	return l.Allow()
}

func (rl *rateLimiter) handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		client, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			client = r.RemoteAddr
		}
		if !rl.allow(client) {
			rateLimitedMeter.Mark(1)
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, errors.New("rate limit exceeded"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
