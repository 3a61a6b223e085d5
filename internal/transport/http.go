package transport

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RPCHandler handles method dispatch.
type RPCHandler interface {
	Handle(ctx context.Context, sessionID, method string, params json.RawMessage) (any, error)
}

// rpcCoder is implemented by errors that carry their own JSON-RPC code.
type rpcCoder interface {
	RPCCode() int
}

// apiError is implemented by errors that carry a stable application code.
type apiError interface {
	CodeValue() string
	MessageValue() string
	RecoveryHintValue() string
}

// Server wires HTTP handlers.
type Server struct {
	handler RPCHandler
	logger  *slog.Logger
}

// Options configures the router.
type Options struct {
	// Auth, when non-nil, guards every route except /health.
	Auth func(http.Handler) http.Handler
	// MCP, when non-nil, is mounted at /mcp.
	MCP    http.Handler
	Logger *slog.Logger
}

// NewServer creates an HTTP router serving POST /rpc, GET /health and optionally /mcp.
func NewServer(handler RPCHandler, opts Options) *chi.Mux {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	r := chi.NewRouter()
	srv := &Server{handler: handler, logger: logger}

	r.Get("/health", srv.handleHealth)
	r.Group(func(r chi.Router) {
		if opts.Auth != nil {
			r.Use(opts.Auth)
		}
		if opts.MCP != nil {
			r.Handle("/mcp", opts.MCP)
			r.Handle("/mcp/*", opts.MCP)
		}
		r.With(SessionMiddleware).Post("/rpc", srv.handleRPC)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	req, err := ParseRequest(r.Body)
	if err != nil {
		code := ErrInvalidReq
		if errors.Is(err, errParse) {
			code = ErrParseCode
		}
		WriteError(w, nil, code, err.Error(), nil)
		return
	}

	sessionID, _ := SessionIDFromContext(r.Context())

	result, err := s.handler.Handle(r.Context(), sessionID, req.Method, req.Params)
	if err != nil {
		code, data := classify(err)
		if code == ErrInternal {
			s.logger.Error("rpc call failed", "method", req.Method, "session_id", sessionID, "error", err)
		}
		WriteError(w, req.ID, code, err.Error(), data)
		return
	}

	WriteResult(w, req.ID, result)
}

func classify(err error) (int, any) {
	code := ErrInternal
	var coder rpcCoder
	if errors.As(err, &coder) {
		code = coder.RPCCode()
	}
	var app apiError
	if errors.As(err, &app) {
		return code, map[string]string{
			"code":          app.CodeValue(),
			"message":       app.MessageValue(),
			"recovery_hint": app.RecoveryHintValue(),
		}
	}
	return code, nil
}
