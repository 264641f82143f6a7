package ledger

import "errors"

var (
	// ErrInvalidArgument indicates an empty identifier, zero amount, null address or overflow.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrUnauthorized indicates the caller does not hold the required role.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrRateLimited indicates the 24 hour update lock has not elapsed.
	ErrRateLimited = errors.New("rate limited")
	// ErrInsufficientCredit indicates the project deposit cannot cover the fee.
	ErrInsufficientCredit = errors.New("insufficient credit")
	// ErrInsufficientBalance indicates a burn larger than the holder's balance.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrRequestConflict indicates a request id reused for a different
	// operation, caller or arguments.
	ErrRequestConflict = errors.New("request id conflict")
)
