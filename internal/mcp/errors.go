package mcp

import (
	"errors"
	"fmt"

	"github.com/rpggio/tally/internal/domain/ledger"
	"github.com/rpggio/tally/internal/domain/session"
)

var (
	// ErrUnknownMethod is returned by Handle for unrecognized method names.
	ErrUnknownMethod = errors.New("unknown method")
	// ErrInvalidParams wraps parameter decoding failures.
	ErrInvalidParams = errors.New("invalid params")
	// ErrUnknownKey is returned by press_key for keys outside the keypad.
	ErrUnknownKey = errors.New("unknown key")
)

// JSON-RPC codes carried by APIError.
const (
	rpcMethodNotFound = -32601
	rpcInvalidParams  = -32602
)

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Details      any    `json:"details,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) CodeValue() string {
	return e.Code
}

func (e *APIError) MessageValue() string {
	return e.Message
}

func (e *APIError) DetailsValue() any {
	return e.Details
}

func (e *APIError) RecoveryHintValue() string {
	return e.RecoveryHint
}

// RPCCode is the JSON-RPC error code for this error.
func (e *APIError) RPCCode() int {
	if e.Code == "UNKNOWN_METHOD" {
		return rpcMethodNotFound
	}
	return rpcInvalidParams
}

// MapError maps domain errors to MCP error codes.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.Is(err, ledger.ErrInvalidInput):
		return &APIError{Code: "VALIDATION_ERROR", Message: err.Error(), RecoveryHint: "Provide a name and 1 to 6 members"}
	case errors.Is(err, ledger.ErrRoundOutOfRange), errors.Is(err, session.ErrPositionOutOfRange):
		return &APIError{Code: "RANGE_ERROR", Message: err.Error(), RecoveryHint: "Call get_active_project for valid indexes"}
	case errors.Is(err, ledger.ErrTotalOverflow):
		return &APIError{Code: "RANGE_ERROR", Message: err.Error(), RecoveryHint: "Enter smaller values; the edit is still open"}
	case errors.Is(err, session.ErrNoActiveProject):
		return &APIError{Code: "NO_ACTIVE_PROJECT", Message: "no project selected", RecoveryHint: "Call select_project or create_project first"}
	case errors.Is(err, session.ErrNotEditing):
		return &APIError{Code: "NOT_EDITING", Message: "no round edit open", RecoveryHint: "Call begin_add_round or begin_edit_round first"}
	case errors.Is(err, session.ErrEditInProgress):
		return &APIError{Code: "EDIT_IN_PROGRESS", Message: "a round edit is open", RecoveryHint: "Call commit_round or cancel_round_edit first"}
	case errors.Is(err, ErrUnknownKey):
		return &APIError{Code: "VALIDATION_ERROR", Message: err.Error(), RecoveryHint: "Use 0-9, sign, backspace or clear"}
	case errors.Is(err, ErrInvalidParams):
		return &APIError{Code: "INVALID_PARAMS", Message: err.Error()}
	case errors.Is(err, ErrUnknownMethod):
		return &APIError{Code: "UNKNOWN_METHOD", Message: err.Error()}
	default:
		return nil
	}
}

func mapError(err error) error {
	if apiErr := MapError(err); apiErr != nil {
		return apiErr
	}
	return err
}
