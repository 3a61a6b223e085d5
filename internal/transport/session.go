package transport

import (
	"context"
	"net/http"
)

type sessionKey struct{}

// SessionIDFromContext returns the client session key stored by SessionMiddleware.
func SessionIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(sessionKey{}).(string)
	return id, ok
}

// sessionHeaders are consulted in order.
var sessionHeaders = []string{"Mcp-Session-Id", "X-Session-Id"}

// SessionMiddleware stores the first non-empty session header in the request context.
func SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, h := range sessionHeaders {
			if id := r.Header.Get(h); id != "" {
				r = r.WithContext(context.WithValue(r.Context(), sessionKey{}, id))
				break
			}
		}
		next.ServeHTTP(w, r)
	})
}
