// Package testserver runs the full HTTP stack in-process for end-to-end tests.
package testserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/tally/internal/codec"
	"github.com/rpggio/tally/internal/domain/activity"
	"github.com/rpggio/tally/internal/domain/session"
	"github.com/rpggio/tally/internal/mcp"
	"github.com/rpggio/tally/internal/sqlite"
	"github.com/rpggio/tally/internal/transport"
	"github.com/stretchr/testify/require"
)

type TestServer struct {
	Server   *httptest.Server
	DB       *sqlite.DB
	Registry *session.Registry
	Token    string
}

// RPCResponse is a decoded JSON-RPC reply.
type RPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
	ID      any             `json:"id,omitempty"`
}

type RPCError struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

// New starts a server over a fresh in-memory database. An empty token disables auth.
func New(t *testing.T, token string) *TestServer {
	t.Helper()

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.RunMigrations())

	return Start(t, db, token)
}

// Start serves an existing database, so tests can restart over the same data.
func Start(t *testing.T, db *sqlite.DB, token string) *TestServer {
	t.Helper()

	activitySvc := activity.NewService(sqlite.NewActivityRepository(db), nil)
	registry := session.NewRegistry(session.Config{
		Store:    sqlite.NewProjectStore(db, codec.JSON{}, nil),
		Activity: activitySvc,
	})
	mcpServer := mcp.NewServer(mcp.Config{Sessions: registry, Activity: activitySvc})

	var auth func(http.Handler) http.Handler
	if token != "" {
		auth = transport.AuthMiddleware(transport.NewStaticToken(token))
	}
	router := transport.NewServer(mcp.NewHandler(registry, activitySvc), transport.Options{
		Auth: auth,
		MCP: sdkmcp.NewStreamableHTTPHandler(
			func(*http.Request) *sdkmcp.Server { return mcpServer },
			&sdkmcp.StreamableHTTPOptions{SessionTimeout: time.Minute},
		),
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &TestServer{
		Server:   server,
		DB:       db,
		Registry: registry,
		Token:    token,
	}
}

// RPC posts one JSON-RPC call to /rpc as sessionID.
func (ts *TestServer) RPC(t *testing.T, sessionID, method string, params any) RPCResponse {
	t.Helper()

	payload := map[string]any{
		"jsonrpc": "2.0",
		"method":  method,
		"id":      1,
	}
	if params != nil {
		payload["params"] = params
	}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, ts.Server.URL+"/rpc", bytes.NewBuffer(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if ts.Token != "" {
		req.Header.Set("Authorization", "Bearer "+ts.Token)
	}
	if sessionID != "" {
		req.Header.Set("Mcp-Session-Id", sessionID)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out RPCResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// Result calls RPC, requires success and decodes the result into T.
func Result[T any](t *testing.T, ts *TestServer, sessionID, method string, params any) T {
	t.Helper()
	resp := ts.RPC(t, sessionID, method, params)
	require.Nil(t, resp.Error, "%s failed: %+v", method, resp.Error)
	var out T
	require.NoError(t, json.Unmarshal(resp.Result, &out))
	return out
}

type bearerTransport struct {
	token string
	base  http.RoundTripper
}

func (b bearerTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	r.Header.Set("Authorization", "Bearer "+b.token)
	return b.base.RoundTrip(r)
}

// ConnectMCP opens an MCP client session over streamable HTTP.
func (ts *TestServer) ConnectMCP(t *testing.T) *sdkmcp.ClientSession {
	t.Helper()

	httpClient := ts.Server.Client()
	if ts.Token != "" {
		httpClient = &http.Client{Transport: bearerTransport{token: ts.Token, base: http.DefaultTransport}}
	}
	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "testserver", Version: "v0.0.1"}, nil)

	cs, err := client.Connect(context.Background(), &sdkmcp.StreamableClientTransport{
		Endpoint:   ts.Server.URL + "/mcp",
		HTTPClient: httpClient,
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cs.Close() })
	return cs
}
