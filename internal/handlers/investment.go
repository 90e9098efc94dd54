package handlers

import (
	"casino/internal/services/investment"
	"casino/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type InvestmentHandler struct {
	investmentService *investment.Service
}

func NewInvestmentHandler(investmentService *investment.Service) *InvestmentHandler {
	return &InvestmentHandler{investmentService: investmentService}
}

func (h *InvestmentHandler) Create(c *fiber.Ctx) error {
	ident, err := identityFrom(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}
	var input struct {
		Type   string `json:"type"`
		Amount int64  `json:"amount"`
		Days   int    `json:"days"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}

	created, err := h.investmentService.Create(c.Context(), ident, input.Type, input.Amount, input.Days)
	if err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, created)
}

func (h *InvestmentHandler) List(c *fiber.Ctx) error {
	ident, err := identityFrom(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	investments, err := h.investmentService.List(c.Context(), ident)
	if err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, fiber.Map{"investments": investments})
}

func (h *InvestmentHandler) Collect(c *fiber.Ctx) error {
	ident, err := identityFrom(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	collected, err := h.investmentService.CollectMatured(c.Context(), ident)
	if err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, fiber.Map{"collected": collected})
}
