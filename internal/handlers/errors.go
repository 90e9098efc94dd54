// Package handlers exposes the HTTP API consumed by platform gateway
// adapters. Handlers parse the request, hand it to a service, and translate
// service errors into status codes; no business rules live here.
package handlers

import (
	"errors"

	"casino/internal/repositories"
	"casino/internal/services/economy"
	"casino/internal/services/game"
	"casino/internal/services/investment"
	"casino/internal/services/loan"
	"casino/internal/services/market"
	"casino/internal/services/settlement"
	"casino/internal/utils"

	"github.com/gofiber/fiber/v2"
)

// respondError maps domain errors to HTTP responses. Unknown errors become a
// 500 with a generic message so internals never leak to the gateway.
func respondError(c *fiber.Ctx, err error) error {
	var cd *economy.CooldownError
	if errors.As(err, &cd) {
		return utils.TooManyRequests(c, fiber.Map{
			"error":             "on cooldown",
			"activity":          cd.Activity,
			"remaining_seconds": int64(cd.Remaining.Seconds()),
		})
	}

	switch {
	case errors.Is(err, settlement.ErrInsufficientFunds):
		return utils.BadRequest(c, "insufficient funds")
	case errors.Is(err, settlement.ErrInvalidAmount),
		errors.Is(err, economy.ErrInvalidAmount),
		errors.Is(err, market.ErrInvalidAmount),
		errors.Is(err, investment.ErrInvalidAmount),
		errors.Is(err, loan.ErrInvalidAmount),
		errors.Is(err, game.ErrInvalidBet):
		return utils.BadRequest(c, "invalid amount")
	case errors.Is(err, settlement.ErrLimitExceeded),
		errors.Is(err, economy.ErrLimitExceeded):
		return utils.BadRequest(c, "account limit exceeded")
	case errors.Is(err, loan.ErrLimitExceeded):
		return utils.BadRequest(c, "loan limit exceeded")
	case errors.Is(err, loan.ErrNoActiveLoan):
		return utils.BadRequest(c, "no active loan")
	case errors.Is(err, economy.ErrSelfTransfer),
		errors.Is(err, economy.ErrSelfRob),
		errors.Is(err, market.ErrSelfPurchase):
		return utils.BadRequest(c, "cannot target yourself")
	case errors.Is(err, economy.ErrNothingToRob):
		return utils.BadRequest(c, "nothing to rob")
	case errors.Is(err, investment.ErrInvalidType):
		return utils.BadRequest(c, "invalid investment type")
	case errors.Is(err, investment.ErrInvalidDuration):
		return utils.BadRequest(c, "invalid investment duration")
	case errors.Is(err, game.ErrInvalidChoice):
		return utils.BadRequest(c, "invalid choice")
	case errors.Is(err, game.ErrDoubleAfterHit):
		return utils.BadRequest(c, "cannot double after hitting")
	case errors.Is(err, game.ErrNotYourTurn):
		return utils.Conflict(c, "hand already resolved")
	case errors.Is(err, game.ErrSessionExpired):
		return utils.Conflict(c, "session expired")
	case errors.Is(err, game.ErrSessionNotFound),
		errors.Is(err, settlement.ErrAccountNotFound),
		errors.Is(err, repositories.ErrUserNotFound),
		errors.Is(err, repositories.ErrWalletNotFound),
		errors.Is(err, repositories.ErrLoanNotFound),
		errors.Is(err, repositories.ErrInvestmentNotFound),
		errors.Is(err, repositories.ErrListingNotFound),
		errors.Is(err, market.ErrOfferNotFound):
		return utils.NotFound(c, err.Error())
	case errors.Is(err, game.ErrSessionNotOwned),
		errors.Is(err, market.ErrNotOwner),
		errors.Is(err, market.ErrNotRecipient):
		return utils.Forbidden(c, err.Error())
	case errors.Is(err, market.ErrItemNoLongerAvailable),
		errors.Is(err, settlement.ErrItemNoLongerAvailable):
		return utils.Conflict(c, "item no longer available")
	case errors.Is(err, market.ErrOfferExpired):
		return utils.Conflict(c, "trade offer expired")
	}
	return utils.InternalError(c, "internal error")
}
