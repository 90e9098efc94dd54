package handlers

import (
	"casino/internal/models"
	"casino/internal/services/economy"
	"casino/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type EconomyHandler struct {
	economyService *economy.Service
}

func NewEconomyHandler(economyService *economy.Service) *EconomyHandler {
	return &EconomyHandler{economyService: economyService}
}

// identityFrom pulls the authenticated identity out of the request context.
func identityFrom(c *fiber.Ctx) (models.Identity, error) {
	claims, ok := c.Locals("claims").(*models.UserClaims)
	if !ok || claims == nil {
		return models.Identity{}, fiber.ErrUnauthorized
	}
	return claims.Identity(), nil
}

func (h *EconomyHandler) GetBalance(c *fiber.Ctx) error {
	ident, err := identityFrom(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	summary, err := h.economyService.Balance(c.Context(), ident)
	if err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, summary)
}

// amountInput is the body shared by deposit, withdraw and similar endpoints.
type amountInput struct {
	Amount int64 `json:"amount"`
}

func (h *EconomyHandler) Deposit(c *fiber.Ctx) error {
	ident, err := identityFrom(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}
	var input amountInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}

	summary, err := h.economyService.Deposit(c.Context(), ident, input.Amount)
	if err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, summary)
}

func (h *EconomyHandler) Withdraw(c *fiber.Ctx) error {
	ident, err := identityFrom(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}
	var input amountInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}

	summary, err := h.economyService.Withdraw(c.Context(), ident, input.Amount)
	if err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, summary)
}

func (h *EconomyHandler) Transfer(c *fiber.Ctx) error {
	ident, err := identityFrom(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}
	var input struct {
		To     string `json:"to"`
		Amount int64  `json:"amount"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}
	if input.To == "" {
		return utils.BadRequest(c, "recipient is required")
	}

	summary, err := h.economyService.Transfer(c.Context(), ident, input.To, input.Amount)
	if err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, summary)
}

func (h *EconomyHandler) Daily(c *fiber.Ctx) error {
	ident, err := identityFrom(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	summary, err := h.economyService.Daily(c.Context(), ident)
	if err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, summary)
}

func (h *EconomyHandler) Work(c *fiber.Ctx) error {
	ident, err := identityFrom(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	summary, err := h.economyService.Work(c.Context(), ident)
	if err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, summary)
}

func (h *EconomyHandler) Rob(c *fiber.Ctx) error {
	ident, err := identityFrom(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}
	var input struct {
		Victim string `json:"victim"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}
	if input.Victim == "" {
		return utils.BadRequest(c, "victim is required")
	}

	result, err := h.economyService.Rob(c.Context(), ident, input.Victim)
	if err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, result)
}

func (h *EconomyHandler) History(c *fiber.Ctx) error {
	ident, err := identityFrom(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}
	limit := c.QueryInt("limit", 20)
	offset := c.QueryInt("offset", 0)

	history, err := h.economyService.History(c.Context(), ident, limit, offset)
	if err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, fiber.Map{"transactions": history})
}
