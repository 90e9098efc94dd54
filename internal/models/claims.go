package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// UserClaims carries the identity a messaging gateway resolved for a request:
// who the player is on the platform, which tenant (community) the action
// belongs to, and a display name for result text. The core never talks to the
// platform itself.
type UserClaims struct {
	PlatformID  string `json:"platform_id"`
	TenantID    string `json:"tenant_id"`
	DisplayName string `json:"display_name"`
	jwt.RegisteredClaims
}

// Identity is the adapter-resolved identity services operate on.
type Identity struct {
	TenantID    string
	PlatformID  string
	DisplayName string
}

// Identity strips the JWT plumbing from the claims.
func (c *UserClaims) Identity() Identity {
	return Identity{
		TenantID:    c.TenantID,
		PlatformID:  c.PlatformID,
		DisplayName: c.DisplayName,
	}
}
