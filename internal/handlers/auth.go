package handlers

import (
	"time"

	"casino/internal/config"
	"casino/internal/models"
	"casino/internal/utils"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

type AuthHandler struct{}

func NewAuthHandler() *AuthHandler {
	return &AuthHandler{}
}

// IssueToken exchanges the shared gateway key for a short-lived JWT scoped to
// one platform user in one tenant. Adapters call this per interaction burst,
// not per request. The key is compared against the bcrypt hash stored in
// GATEWAY_KEY_HASH so the plaintext never sits in the environment.
func (h *AuthHandler) IssueToken(c *fiber.Ctx) error {
	var input struct {
		GatewayKey  string `json:"gateway_key"`
		TenantID    string `json:"tenant_id"`
		PlatformID  string `json:"platform_id"`
		DisplayName string `json:"display_name"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}
	if input.TenantID == "" || input.PlatformID == "" {
		return utils.BadRequest(c, "tenant_id and platform_id are required")
	}

	keyHash := config.GetEnv("GATEWAY_KEY_HASH", "")
	if keyHash == "" {
		return utils.InternalError(c, "gateway key not configured")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(keyHash), []byte(input.GatewayKey)); err != nil {
		return utils.Unauthorized(c, "invalid gateway key")
	}

	ttl := config.GetIntEnv("TOKEN_TTL_MINUTES", 15)
	token, err := utils.GenerateToken(models.Identity{
		TenantID:    input.TenantID,
		PlatformID:  input.PlatformID,
		DisplayName: input.DisplayName,
	}, time.Duration(ttl)*time.Minute)
	if err != nil {
		return utils.InternalError(c, "failed to issue token")
	}

	return utils.Success(c, fiber.Map{
		"token":       token,
		"expires_in":  ttl * 60,
		"tenant_id":   input.TenantID,
		"platform_id": input.PlatformID,
	})
}
