package handlers

import (
	"casino/internal/services/loan"
	"casino/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type LoanHandler struct {
	loanService *loan.Service
}

func NewLoanHandler(loanService *loan.Service) *LoanHandler {
	return &LoanHandler{loanService: loanService}
}

func (h *LoanHandler) Apply(c *fiber.Ctx) error {
	ident, err := identityFrom(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}
	var input amountInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}

	created, err := h.loanService.Apply(c.Context(), ident, input.Amount)
	if err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, created)
}

func (h *LoanHandler) Repay(c *fiber.Ctx) error {
	ident, err := identityFrom(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}
	var input amountInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}

	result, err := h.loanService.Repay(c.Context(), ident, input.Amount)
	if err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, result)
}

func (h *LoanHandler) Active(c *fiber.Ctx) error {
	ident, err := identityFrom(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	loans, err := h.loanService.ActiveLoans(c.Context(), ident)
	if err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, fiber.Map{"loans": loans})
}
