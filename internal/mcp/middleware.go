package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

type contextKey int

const sessionIDKey contextKey = iota

// getSessionID returns the client session key, or "" to use the default controller.
func getSessionID(ctx context.Context) string {
	v, _ := ctx.Value(sessionIDKey).(string)
	return v
}

// sessionMiddleware tags the context with the Mcp-Session-Id header on HTTP,
// or with _meta.session_id on stdio.
func sessionMiddleware() sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			if id := requestSessionID(req); id != "" {
				ctx = context.WithValue(ctx, sessionIDKey, id)
			}
			return next(ctx, method, req)
		}
	}
}

func requestSessionID(req sdkmcp.Request) string {
	if extra := req.GetExtra(); extra != nil && extra.Header != nil {
		if id := extra.Header.Get("Mcp-Session-Id"); id != "" {
			return id
		}
	}
	params := req.GetParams()
	if params == nil {
		return ""
	}
	return metaSessionID(params)
}

// metaSessionID recovers from GetMeta on typed-nil params, which notifications
// such as "initialized" carry.
func metaSessionID(params sdkmcp.Params) (id string) {
	defer func() {
		if recover() != nil {
			id = ""
		}
	}()
	if meta := params.GetMeta(); meta != nil {
		id, _ = meta["session_id"].(string)
	}
	return id
}
