package rpc

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"stakeshare/native/gate"
	"stakeshare/native/lst"
	"stakeshare/native/staker"
	"stakeshare/observability"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeUnauthorized   = -32001
	codeServerError    = -32000
	codeRateLimited    = -32020
)

// Config tunes the HTTP surface.
type Config struct {
	AuthSecret         string
	RateLimitPerSecond float64
	RateLimitBurst     int
	ReadTimeout        time.Duration
}

// Server exposes the accounting engine, the staking ledger operator knobs and
// the withdrawal gate over JSON-RPC.
type Server struct {
	engine  *lst.Engine
	gate    *gate.Gate
	staking *staker.StateLedger
	log     *slog.Logger
	cfg     Config

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewServer wires the RPC surface to the engine and its collaborators.
func NewServer(engine *lst.Engine, g *gate.Gate, staking *staker.StateLedger, log *slog.Logger, cfg Config) *Server {
	if log == nil {
		log = slog.Default()
	}
	if cfg.RateLimitPerSecond <= 0 {
		cfg.RateLimitPerSecond = 20
	}
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = 40
	}
	return &Server{
		engine:   engine,
		gate:     g,
		staking:  staking,
		log:      log,
		cfg:      cfg,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Router builds the chi handler tree for the server.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/", s.handle)
	return r
}

// RPCRequest is the JSON-RPC 2.0 request envelope.
type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      int               `json:"id"`
}

// RPCResponse is the JSON-RPC 2.0 response envelope.
type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

// RPCError carries a structured JSON-RPC error.
type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func writeError(w http.ResponseWriter, status int, id interface{}, code int, message string, data interface{}) {
	if status <= 0 {
		status = http.StatusBadRequest
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	errObj := &RPCError{Code: code, Message: message}
	if data != nil {
		errObj.Data = data
	}
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Error: errObj}
	_ = json.NewEncoder(w).Encode(resp)
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result}
	_ = json.NewEncoder(w).Encode(resp)
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return host
}

func (s *Server) limiterFor(client string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	limiter, ok := s.limiters[client]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(s.cfg.RateLimitPerSecond), s.cfg.RateLimitBurst)
		s.limiters[client] = limiter
	}
	return limiter
}

// requireAuth checks the Bearer token on owner-facing methods. The token is a
// HMAC-signed JWT sharing the daemon's configured secret.
func (s *Server) requireAuth(r *http.Request) *RPCError {
	secret := strings.TrimSpace(s.cfg.AuthSecret)
	if secret == "" {
		return &RPCError{Code: codeUnauthorized, Message: "owner methods disabled: no auth secret configured"}
	}
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if !strings.HasPrefix(header, "Bearer ") {
		return &RPCError{Code: codeUnauthorized, Message: "missing bearer token"}
	}
	tokenStr := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}))
	if err != nil || !token.Valid {
		return &RPCError{Code: codeUnauthorized, Message: "invalid bearer token"}
	}
	return nil
}

type handlerFunc func(w http.ResponseWriter, r *http.Request, req *RPCRequest)

func (s *Server) methods() map[string]handlerFunc {
	return map[string]handlerFunc{
		"lst_stake":            s.handleStake,
		"lst_unstake":          s.handleUnstake,
		"lst_transfer":         s.handleTransfer,
		"lst_transferExact":    s.handleTransferExact,
		"lst_transferFrom":     s.handleTransferFrom,
		"lst_approve":          s.handleApprove,
		"lst_permit":           s.handlePermit,
		"lst_permitNonce":      s.handlePermitNonce,
		"lst_updateDelegation": s.handleUpdateDelegation,
		"lst_updateDeposit":    s.handleUpdateDeposit,
		"lst_claimRewards":     s.handleClaimRewards,
		"lst_balanceOf":        s.handleBalanceOf,
		"lst_sharesOf":         s.handleSharesOf,
		"lst_holder":           s.handleHolder,
		"lst_totals":           s.handleTotals,
		"lst_tokenInfo":        s.handleTokenInfo,
		"lst_allowance":        s.handleAllowance,
		"lst_rewardParams":     s.handleRewardParams,
		"lst_depositFor":       s.handleDepositFor,

		"lst_enactOverride":   s.handleEnactOverride,
		"lst_revokeOverride":  s.handleRevokeOverride,
		"lst_migrateOverride": s.handleMigrateOverride,
		"lst_isOverridden":    s.handleIsOverridden,

		"fixed_stakeAndConvert":   s.handleFixedStakeAndConvert,
		"fixed_convertToFixed":    s.handleConvertToFixed,
		"fixed_convertToRebasing": s.handleConvertToRebasing,
		"fixed_transfer":          s.handleFixedTransfer,

		"gate_completeWithdrawal": s.handleGateComplete,
		"gate_completeWithSig":    s.handleGateCompleteWithSig,
		"gate_pendingWithdrawal":  s.handleGatePending,
		"gate_delay":              s.handleGateDelay,

		"admin_setRewardParameters": s.handleSetRewardParameters,
		"admin_setMaxOverrideTip":   s.handleSetMaxOverrideTip,
		"admin_setMinQualifying":    s.handleSetMinQualifying,
		"admin_setFixedCaller":      s.handleSetFixedCaller,
		"admin_setDefaultDelegatee": s.handleSetDefaultDelegatee,
		"admin_setGuardian":         s.handleSetGuardian,
		"admin_setGateDelay":        s.handleSetGateDelay,
		"staker_setScore":           s.handleStakerSetScore,
		"staker_accrueReward":       s.handleStakerAccrue,
	}
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	client := clientKey(r)
	if !s.limiterFor(client).Allow() {
		observability.Engine().RecordThrottle(client)
		writeError(w, http.StatusTooManyRequests, nil, codeRateLimited, "rate limit exceeded", nil)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "failed to read request body", nil)
		return
	}
	var req RPCRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "invalid JSON payload", err.Error())
		return
	}
	if req.JSONRPC != "" && req.JSONRPC != jsonRPCVersion {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "unsupported jsonrpc version", nil)
		return
	}
	handler, ok := s.methods()[req.Method]
	if !ok {
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, fmt.Sprintf("method %q not found", req.Method), nil)
		return
	}

	start := time.Now()
	handler(w, r, &req)
	observability.Engine().ObserveLatency(req.Method, start)
	s.log.Debug("rpc request", "method", req.Method, "client", client)
}
