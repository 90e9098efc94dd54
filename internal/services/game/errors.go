package game

import "errors"

// Service errors
var (
	ErrInvalidBet       = errors.New("invalid bet")
	ErrSessionNotFound  = errors.New("game session not found")
	ErrSessionExpired   = errors.New("game session expired")
	ErrNotYourTurn      = errors.New("action not allowed in current state")
	ErrDoubleAfterHit   = errors.New("double only allowed before hitting")
	ErrInvalidChoice    = errors.New("invalid choice")
)
