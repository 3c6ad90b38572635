package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"namechain/core"
	"namechain/gateway/middleware"
	"namechain/observability"
	"namechain/rpc/modules"
)

const (
	jsonRPCVersion      = "2.0"
	defaultMaxBodyBytes = 1 << 20
	writeScope          = "tx:write"
	metricsModule       = "rpc"
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeUnauthorized   = -32001
	codeServerError    = -32000
)

type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      interface{}       `json:"id"`
}

type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ServerConfig tunes the HTTP surface. A zero RateLimit disables throttling.
type ServerConfig struct {
	Auth         middleware.AuthConfig
	RateLimit    middleware.RateLimit
	CORS         middleware.CORSConfig
	MaxBodyBytes int64
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	LogRequests  bool
}

type methodFunc func(ctx context.Context, params json.RawMessage) (interface{}, *modules.ModuleError)

type method struct {
	write bool
	call  methodFunc
}

type Server struct {
	cfg     ServerConfig
	logger  *slog.Logger
	auth    *middleware.Authenticator
	obs     *middleware.Observability
	methods map[string]method
	handler http.Handler
}

func NewServer(node *core.Node, history modules.HistorySource, cfg ServerConfig, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "rpc")
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}
	s := &Server{
		cfg:    cfg,
		logger: logger,
		auth:   middleware.NewAuthenticator(cfg.Auth, logger),
		obs:    middleware.NewObservability(middleware.ObservabilityConfig{LogRequests: cfg.LogRequests}, logger),
	}
	s.methods = registerMethods(
		modules.NewNamesModule(node),
		modules.NewAccessModule(node),
		modules.NewChainModule(node, history),
		modules.NewTransactionsModule(node),
	)

	limits := map[string]middleware.RateLimit{}
	if cfg.RateLimit.RatePerSecond > 0 {
		limits[metricsModule] = cfg.RateLimit
	}
	limiter := middleware.NewRateLimiter(limits, logger)

	r := chi.NewRouter()
	r.Use(middleware.CORS(cfg.CORS))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", s.obs.MetricsHandler())
	r.With(s.obs.Middleware(metricsModule), limiter.Middleware(metricsModule)).Post("/", s.handle)
	s.handler = otelhttp.NewHandler(r, "namechain-rpc")
	return s
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler { return s.handler }

// Start serves on addr until ctx is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadTimeout:       s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("json-rpc server listening", slog.String("address", addr))
		errCh <- srv.ListenAndServe()
	}()
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	reader := http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	defer func() {
		_ = reader.Close()
	}()

	w.Header().Set("Content-Type", "application/json")

	body, err := io.ReadAll(reader)
	if err != nil {
		status := http.StatusBadRequest
		message := "failed to read request body"
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			status = http.StatusRequestEntityTooLarge
			message = fmt.Sprintf("request body exceeds %d bytes", s.cfg.MaxBodyBytes)
		}
		writeError(w, status, nil, codeInvalidRequest, message, err.Error())
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		writeError(w, http.StatusBadRequest, nil, codeInvalidRequest, "request body required", nil)
		return
	}

	req := &RPCRequest{}
	if err := json.Unmarshal(body, req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "invalid JSON payload", err.Error())
		return
	}
	if req.JSONRPC != "" && req.JSONRPC != jsonRPCVersion {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "unsupported jsonrpc version", req.JSONRPC)
		return
	}
	if req.Method == "" {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "method required", nil)
		return
	}

	start := time.Now()
	code := s.dispatch(w, r, req)
	observability.ModuleMetrics().Observe(metricsModule, req.Method, code, time.Since(start))
}

// dispatch runs req and returns the JSON-RPC error code written, zero on
// success.
func (s *Server) dispatch(w http.ResponseWriter, r *http.Request, req *RPCRequest) int {
	m, ok := s.methods[req.Method]
	if !ok {
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, fmt.Sprintf("unknown method %s", req.Method), nil)
		return codeMethodNotFound
	}
	if m.write {
		if err := s.auth.Authorize(r, writeScope); err != nil {
			status := http.StatusUnauthorized
			if errors.Is(err, middleware.ErrInsufficientScope) {
				status = http.StatusForbidden
			}
			writeError(w, status, req.ID, codeUnauthorized, err.Error(), nil)
			return codeUnauthorized
		}
	}
	if len(req.Params) > 1 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "expected a single parameter object", nil)
		return codeInvalidParams
	}
	var params json.RawMessage
	if len(req.Params) == 1 {
		params = req.Params[0]
	}
	result, modErr := m.call(r.Context(), params)
	if modErr != nil {
		if modErr.Code == codeServerError {
			s.logger.Error("rpc method failed",
				slog.String("method", req.Method),
				slog.String("request_id", middleware.RequestID(r.Context())),
				slog.Any("error", modErr.Message))
		}
		writeError(w, modErr.HTTPStatus, req.ID, modErr.Code, modErr.Message, modErr.Data)
		return modErr.Code
	}
	if m.write {
		s.logger.Info("transaction accepted",
			slog.String("method", req.Method),
			slog.String("request_id", middleware.RequestID(r.Context())))
	}
	writeResult(w, req.ID, result)
	return 0
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
