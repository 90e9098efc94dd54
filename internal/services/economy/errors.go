package economy

import "errors"

// Service errors
var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrSelfTransfer    = errors.New("cannot transfer to self")
	ErrSelfRob         = errors.New("cannot rob yourself")
	ErrNothingToRob    = errors.New("target has nothing to rob")
	ErrLimitExceeded   = errors.New("limit exceeded")
	ErrOnCooldown      = errors.New("activity on cooldown")
)
