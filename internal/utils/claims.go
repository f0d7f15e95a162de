package utils

import (
	"errors"

	"gymledger/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetAdminClaims extracts the admin claims stored by the auth middleware.
func GetAdminClaims(c *fiber.Ctx) (*models.AdminClaims, error) {
	v := c.Locals("claims")
	if v == nil {
		return nil, errors.New("claims not found in context")
	}

	claims, ok := v.(*models.AdminClaims)
	if !ok {
		return nil, errors.New("invalid claims type")
	}
	return claims, nil
}

// AdminID returns the authenticated admin's id, or 0 outside the middleware.
func AdminID(c *fiber.Ctx) uint {
	claims, err := GetAdminClaims(c)
	if err != nil {
		return 0
	}
	return claims.AdminID
}
