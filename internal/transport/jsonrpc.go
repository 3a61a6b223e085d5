package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// JSON-RPC 2.0 error codes.
const (
	ErrParseCode      = -32700
	ErrInvalidReq     = -32600
	ErrMethodNotFound = -32601
	ErrInvalidParams  = -32602
	ErrInternal       = -32603
)

// Request represents a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      any             `json:"id,omitempty"`
}

// Response represents a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string `json:"jsonrpc"`
	Result  any    `json:"result,omitempty"`
	Error   *Error `json:"error,omitempty"`
	ID      any    `json:"id,omitempty"`
}

// Error represents a JSON-RPC 2.0 error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Version is the only protocol version accepted and emitted.
const Version = "2.0"

// maxRequestBytes bounds a single /rpc body.
const maxRequestBytes = 1 << 20

var (
	errParse      = errors.New("parse error")
	errInvalidReq = errors.New("invalid request")
)

// ParseRequest decodes one JSON-RPC call and rejects a missing method or foreign version.
func ParseRequest(body io.Reader) (Request, error) {
	var req Request
	if err := json.NewDecoder(io.LimitReader(body, maxRequestBytes)).Decode(&req); err != nil {
		return Request{}, fmt.Errorf("%w: %v", errParse, err)
	}
	if req.JSONRPC != Version || req.Method == "" {
		return Request{}, errInvalidReq
	}
	return req, nil
}

// WriteResult writes a success response. Errors are reported in-band, so the status is always 200.
func WriteResult(w http.ResponseWriter, id any, result any) {
	writeResponse(w, Response{JSONRPC: Version, Result: result, ID: id})
}

// WriteError writes an error response.
func WriteError(w http.ResponseWriter, id any, code int, message string, data any) {
	writeResponse(w, Response{
		JSONRPC: Version,
		Error:   &Error{Code: code, Message: message, Data: data},
		ID:      id,
	})
}

func writeResponse(w http.ResponseWriter, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}
