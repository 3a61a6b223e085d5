package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStaticToken(t *testing.T) {
	v := NewStaticToken("secret")
	require.NoError(t, v.Verify(context.Background(), "secret"))
	require.ErrorIs(t, v.Verify(context.Background(), "guess"), ErrUnauthorized)
}

func TestAuthMiddleware(t *testing.T) {
	handler := AuthMiddleware(NewStaticToken("token"))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid", "Bearer token", http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"invalid", "Bearer other", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)
			require.Equal(t, tt.want, rec.Code)
		})
	}
}
