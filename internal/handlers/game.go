package handlers

import (
	"context"

	"casino/internal/models"
	"casino/internal/services/game"
	"casino/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type GameHandler struct {
	gameService *game.Service
}

func NewGameHandler(gameService *game.Service) *GameHandler {
	return &GameHandler{gameService: gameService}
}

func (h *GameHandler) Coinflip(c *fiber.Ctx) error {
	ident, err := identityFrom(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}
	var input struct {
		Bet    int64  `json:"bet"`
		Choice string `json:"choice"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}

	result, err := h.gameService.PlayCoinflip(c.Context(), ident, input.Bet, input.Choice)
	if err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, result)
}

func (h *GameHandler) Dice(c *fiber.Ctx) error {
	ident, err := identityFrom(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}
	var input struct {
		Bet int64 `json:"bet"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}

	result, err := h.gameService.PlayDice(c.Context(), ident, input.Bet)
	if err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, result)
}

func (h *GameHandler) Slots(c *fiber.Ctx) error {
	ident, err := identityFrom(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}
	var input struct {
		Bet int64 `json:"bet"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}

	result, err := h.gameService.PlaySlots(c.Context(), ident, input.Bet)
	if err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, result)
}

func (h *GameHandler) BlackjackStart(c *fiber.Ctx) error {
	ident, err := identityFrom(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}
	var input struct {
		Bet int64 `json:"bet"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}

	view, err := h.gameService.StartBlackjack(c.Context(), ident, input.Bet)
	if err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, view)
}

func (h *GameHandler) BlackjackHit(c *fiber.Ctx) error {
	return h.blackjackAction(c, h.gameService.BlackjackHit)
}

func (h *GameHandler) BlackjackStand(c *fiber.Ctx) error {
	return h.blackjackAction(c, h.gameService.BlackjackStand)
}

func (h *GameHandler) BlackjackDouble(c *fiber.Ctx) error {
	return h.blackjackAction(c, h.gameService.BlackjackDouble)
}

func (h *GameHandler) blackjackAction(c *fiber.Ctx, action func(ctx context.Context, ident models.Identity, sessionID string) (*game.BlackjackView, error)) error {
	ident, err := identityFrom(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}
	sessionID := c.Params("id")
	if sessionID == "" {
		return utils.BadRequest(c, "session id is required")
	}

	view, err := action(c.Context(), ident, sessionID)
	if err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, view)
}
