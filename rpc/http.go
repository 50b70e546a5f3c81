package rpc

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	nativecommon "github.com/baseddev11/basedRewarder/native/common"
	"github.com/baseddev11/basedRewarder/native/referral"
	"github.com/baseddev11/basedRewarder/native/rewarder"
	"github.com/baseddev11/basedRewarder/observability/metrics"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB

	authTokenEnv = "BASED_RPC_TOKEN"
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeUnauthorized   = -32001
	codeServerError    = -32000
	codeStateConflict  = -32010
	codeRateLimited    = -32020
)

// Server exposes the referral registry and rewarder engine over JSON-RPC.
// Mutating methods are serialised by a single mutex, providing the
// run-to-completion ordering the engines rely on for their delta checks.
type Server struct {
	referrals *referral.Registry
	engine    *rewarder.Engine
	logger    *slog.Logger
	metrics   *metrics.RewarderMetrics

	writeMu sync.Mutex

	limitMu     sync.Mutex
	limiters    map[string]*rate.Limiter
	limitPerMin int
	authToken   string
}

// NewServer wires a server around the given modules. rateLimitPerMin of zero
// disables rate limiting. The mutation auth token is read from the
// BASED_RPC_TOKEN environment variable; when unset, mutators are open.
func NewServer(referrals *referral.Registry, engine *rewarder.Engine, logger *slog.Logger, rateLimitPerMin int) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		referrals:   referrals,
		engine:      engine,
		logger:      logger,
		metrics:     metrics.Rewarder(),
		limiters:    make(map[string]*rate.Limiter),
		limitPerMin: rateLimitPerMin,
		authToken:   strings.TrimSpace(os.Getenv(authTokenEnv)),
	}
}

// Router builds the HTTP routing table: the JSON-RPC endpoint plus health and
// metrics.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/", s.handle)
	return r
}

// Start serves the router on addr until ctx is cancelled, then drains in-flight
// requests before returning.
func (s *Server) Start(ctx context.Context, addr string) error {
	s.logger.Info("starting JSON-RPC server", "addr", addr)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	errs := make(chan error, 1)
	go func() { errs <- srv.ListenAndServe() }()
	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}
	s.logger.Info("shutting down JSON-RPC server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

type rpcRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      interface{}       `json:"id"`
}

type rpcResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *rpcError   `json:"error,omitempty"`
}

type rpcError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func writeError(w http.ResponseWriter, status int, id interface{}, code int, message string) {
	if status <= 0 {
		status = http.StatusBadRequest
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	resp := rpcResponse{JSONRPC: jsonRPCVersion, ID: id, Error: &rpcError{Code: code, Message: message}}
	_ = json.NewEncoder(w).Encode(resp)
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	resp := rpcResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result}
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) allow(remote string) bool {
	if s.limitPerMin <= 0 {
		return true
	}
	host, _, err := net.SplitHostPort(remote)
	if err != nil {
		host = remote
	}
	s.limitMu.Lock()
	defer s.limitMu.Unlock()
	limiter, ok := s.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(float64(s.limitPerMin)/60.0), s.limitPerMin)
		s.limiters[host] = limiter
	}
	return limiter.Allow()
}

func (s *Server) authorized(r *http.Request) bool {
	if s.authToken == "" {
		return true
	}
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(strings.TrimSpace(token)), []byte(s.authToken)) == 1
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Request-Id", uuid.NewString())

	if !s.allow(r.RemoteAddr) {
		s.metrics.ObserveRateLimited()
		writeError(w, http.StatusTooManyRequests, nil, codeRateLimited, "rate limit exceeded")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "unable to read request body")
		return
	}
	var req rpcRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "invalid JSON payload")
		return
	}
	if req.JSONRPC != "" && req.JSONRPC != jsonRPCVersion {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "unsupported jsonrpc version")
		return
	}

	handler, ok := s.methods()[req.Method]
	if !ok {
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, "method not found")
		return
	}
	if handler.mutates {
		if !s.authorized(r) {
			writeError(w, http.StatusUnauthorized, req.ID, codeUnauthorized, "missing or invalid auth token")
			return
		}
		s.writeMu.Lock()
		defer s.writeMu.Unlock()
	}

	s.metrics.ObserveRPCRequest(req.Method)
	result, rpcErr := handler.fn(req.Params)
	if rpcErr != nil {
		s.logger.Warn("rpc call failed", "method", req.Method, "code", rpcErr.Code, "err", rpcErr.Message)
		writeError(w, http.StatusOK, req.ID, rpcErr.Code, rpcErr.Message)
		return
	}
	writeResult(w, req.ID, result)
}

type method struct {
	mutates bool
	fn      func(params []json.RawMessage) (interface{}, *rpcError)
}

func (s *Server) methods() map[string]method {
	return map[string]method{
		"referral_ogMint":               {mutates: true, fn: s.referralOGMint},
		"referral_safeMint":             {mutates: true, fn: s.referralSafeMint},
		"referral_safeMintWithReferrer": {mutates: true, fn: s.referralSafeMintWithReferrer},
		"referral_setReferrer":          {mutates: true, fn: s.referralSetReferrer},
		"referral_setTokenInUse":        {mutates: true, fn: s.referralSetTokenInUse},
		"referral_transfer":             {mutates: true, fn: s.referralTransfer},
		"referral_increaseLocked":       {mutates: true, fn: s.referralIncreaseLocked},
		"referral_decreaseLocked":       {mutates: true, fn: s.referralDecreaseLocked},
		"referral_isActive":             {fn: s.referralIsActive},
		"referral_tokenInUse":           {fn: s.referralTokenInUse},
		"referral_ownerOf":              {fn: s.referralOwnerOf},
		"referral_balanceOf":            {fn: s.referralBalanceOf},
		"rewarder_fill":                 {mutates: true, fn: s.rewarderFill},
		"rewarder_claim":                {mutates: true, fn: s.rewarderClaim},
		"rewarder_setRewardToken":       {mutates: true, fn: s.rewarderSetRewardToken},
		"rewarder_totalReward":          {fn: s.rewarderTotalReward},
		"rewarder_claimed":              {fn: s.rewarderClaimed},
		"rewarder_currentDay":           {fn: s.rewarderCurrentDay},
	}
}

// errorFor maps module sentinel errors onto JSON-RPC error codes.
func errorFor(err error) *rpcError {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, referral.ErrUnauthorized),
		errors.Is(err, referral.ErrNotOwner),
		errors.Is(err, rewarder.ErrUnauthorized):
		return &rpcError{Code: codeUnauthorized, Message: err.Error()}
	case errors.Is(err, referral.ErrDuplicateCode),
		errors.Is(err, referral.ErrReferrerAlreadySet),
		errors.Is(err, rewarder.ErrNothingToClaim):
		return &rpcError{Code: codeStateConflict, Message: err.Error()}
	case errors.Is(err, referral.ErrInvalidReferrer),
		errors.Is(err, referral.ErrInactiveReferrer),
		errors.Is(err, referral.ErrTokenNotFound),
		errors.Is(err, referral.ErrInvalidAmount),
		errors.Is(err, referral.ErrEmptyCode),
		errors.Is(err, rewarder.ErrInvalidAmount),
		errors.Is(err, rewarder.ErrNoTokenInUse),
		errors.Is(err, rewarder.ErrInvalidSignature),
		errors.Is(err, rewarder.ErrStaleAttestation):
		return &rpcError{Code: codeInvalidParams, Message: err.Error()}
	case errors.Is(err, nativecommon.ErrModulePaused):
		return &rpcError{Code: codeServerError, Message: err.Error()}
	default:
		return &rpcError{Code: codeServerError, Message: err.Error()}
	}
}
