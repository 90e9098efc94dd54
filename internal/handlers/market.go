package handlers

import (
	"casino/internal/services/market"
	"casino/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type MarketHandler struct {
	marketService *market.Service
	offers        *market.OfferBook
}

func NewMarketHandler(marketService *market.Service, offers *market.OfferBook) *MarketHandler {
	return &MarketHandler{marketService: marketService, offers: offers}
}

func (h *MarketHandler) Listings(c *fiber.Ctx) error {
	ident, err := identityFrom(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}
	limit := c.QueryInt("limit", 20)
	offset := c.QueryInt("offset", 0)

	listings, err := h.marketService.Listings(c.Context(), ident.TenantID, limit, offset)
	if err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, fiber.Map{"listings": listings})
}

func (h *MarketHandler) CreateListing(c *fiber.Ctx) error {
	ident, err := identityFrom(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}
	var input struct {
		ItemID string `json:"item_id"`
		Amount int64  `json:"amount"`
		Price  int64  `json:"price"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}
	if input.ItemID == "" {
		return utils.BadRequest(c, "item_id is required")
	}

	listing, err := h.marketService.List(c.Context(), ident, input.ItemID, input.Amount, input.Price)
	if err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, listing)
}

func (h *MarketHandler) Buy(c *fiber.Ctx) error {
	ident, err := identityFrom(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}
	listingID := c.Params("id")
	if listingID == "" {
		return utils.BadRequest(c, "listing id is required")
	}

	result, err := h.marketService.Buy(c.Context(), ident, listingID)
	if err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, result)
}

func (h *MarketHandler) Cancel(c *fiber.Ctx) error {
	ident, err := identityFrom(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}
	listingID := c.Params("id")
	if listingID == "" {
		return utils.BadRequest(c, "listing id is required")
	}

	if err := h.marketService.Cancel(c.Context(), ident, listingID); err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, fiber.Map{"cancelled": listingID})
}

func (h *MarketHandler) OpenOffer(c *fiber.Ctx) error {
	ident, err := identityFrom(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}
	var input struct {
		To     string `json:"to"`
		ItemID string `json:"item_id"`
		Amount int64  `json:"amount"`
		Price  int64  `json:"price"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}
	if input.To == "" || input.ItemID == "" {
		return utils.BadRequest(c, "to and item_id are required")
	}

	offer, err := h.offers.Open(ident, input.To, input.ItemID, input.Amount, input.Price)
	if err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, offer)
}

func (h *MarketHandler) AcceptOffer(c *fiber.Ctx) error {
	ident, err := identityFrom(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}
	offerID := c.Params("id")
	if offerID == "" {
		return utils.BadRequest(c, "offer id is required")
	}

	result, err := h.marketService.Accept(c.Context(), h.offers, offerID, ident)
	if err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, result)
}

func (h *MarketHandler) DeclineOffer(c *fiber.Ctx) error {
	ident, err := identityFrom(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}
	offerID := c.Params("id")
	if offerID == "" {
		return utils.BadRequest(c, "offer id is required")
	}

	if err := h.offers.Decline(offerID, ident); err != nil {
		return respondError(c, err)
	}
	return utils.Success(c, fiber.Map{"declined": offerID})
}
