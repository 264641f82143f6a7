package mcp

import (
	"errors"
	"fmt"

	"github.com/rpggio/socialxp/internal/domain/ledger"
)

// ErrUnknownMethod indicates a method name the handler does not serve.
var ErrUnknownMethod = errors.New("unknown method")

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

// MapError maps domain errors to MCP error codes.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	switch {
	case errors.Is(err, ledger.ErrInvalidArgument):
		return &APIError{Code: "INVALID_ARGUMENT", Message: "invalid argument", Details: err.Error(), RecoveryHint: "Check ids, amounts and addresses"}
	case errors.Is(err, ledger.ErrUnauthorized):
		return &APIError{Code: "UNAUTHORIZED", Message: "caller lacks the required role", Details: err.Error(), RecoveryHint: "Project operations need the relay; fees and audit need the owner"}
	case errors.Is(err, ledger.ErrRateLimited):
		return &APIError{Code: "RATE_LIMITED", Message: "role was assigned less than 24 hours ago", Details: err.Error(), RecoveryHint: "Retry after the time in details"}
	case errors.Is(err, ledger.ErrInsufficientCredit):
		return &APIError{Code: "INSUFFICIENT_CREDIT", Message: "top up required", Details: err.Error(), RecoveryHint: "Deposit credit for the project, then retry"}
	case errors.Is(err, ledger.ErrInsufficientBalance):
		return &APIError{Code: "INSUFFICIENT_BALANCE", Message: "balance too low", Details: err.Error(), RecoveryHint: "Burn at most the account balance"}
	case errors.Is(err, ledger.ErrRequestConflict):
		return &APIError{Code: "REQUEST_CONFLICT", Message: "request id already used for a different call", Details: err.Error(), RecoveryHint: "Use a fresh request id for each distinct operation"}
	case errors.Is(err, ErrUnknownMethod):
		return &APIError{Code: "METHOD_NOT_FOUND", Message: err.Error(), RecoveryHint: "List tools to see available methods"}
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
