package mcp

import (
	"context"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// SessionRegistry hands out controllers and drops them when their MCP session ends.
type SessionRegistry interface {
	ControllerSource
	Close(key string)
}

// Config contains server configuration.
type Config struct {
	Sessions SessionRegistry
	Activity ActivityService
	Logger   *slog.Logger
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "tally",
		Version: "0.1.0",
	}, &sdkmcp.ServerOptions{
		Instructions:       serverInstructions,
		Logger:             cfg.Logger,
		InitializedHandler: closeOnSessionEnd(cfg.Sessions, cfg.Logger),
	})

	registerDocResources(server)

	server.AddReceivingMiddleware(sessionMiddleware())
	server.AddReceivingMiddleware(trafficLoggingMiddleware(cfg.Logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(cfg.Logger, "outbound"))

	registerTools(server, NewHandler(cfg.Sessions, cfg.Activity))

	return server
}

// closeOnSessionEnd drops the session's controller once the transport session
// closes, whether the client disconnects or the HTTP session times out.
// Stdio sessions have no ID and live as long as the process.
func closeOnSessionEnd(sessions SessionRegistry, logger *slog.Logger) func(context.Context, *sdkmcp.InitializedRequest) {
	return func(_ context.Context, req *sdkmcp.InitializedRequest) {
		ss := req.Session
		if ss == nil || ss.ID() == "" {
			return
		}
		id := ss.ID()
		go func() {
			_ = ss.Wait()
			sessions.Close(id)
			logger.Debug("mcp session ended", "session_id", id)
		}()
	}
}
