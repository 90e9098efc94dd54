package settlement

import "errors"

// Service errors
var (
	ErrInsufficientFunds      = errors.New("insufficient funds")
	ErrAccountNotFound        = errors.New("account not found")
	ErrConcurrentModification = errors.New("concurrent modification")
	ErrLimitExceeded          = errors.New("limit exceeded")
	ErrInvalidAmount          = errors.New("invalid amount")
	ErrItemNoLongerAvailable  = errors.New("item no longer available")
	ErrSettlementFailed       = errors.New("settlement failed")

	// ErrGroupingUnavailable is returned by a Store whose backend cannot
	// commit multiple records as one unit. The service then runs on the
	// compare-and-swap fallback path.
	ErrGroupingUnavailable = errors.New("grouped commit unavailable")
)
