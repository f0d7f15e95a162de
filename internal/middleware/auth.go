// Package middleware provides HTTP middleware components for the application.
package middleware

import (
	"strings"

	"gymledger/internal/models"
	"gymledger/internal/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// AdminAuth validates the bearer token on every request and stores the
// admin claims in the request context. Session management lives upstream;
// this only checks the signature, expiry and role.
func AdminAuth(secret string, log *zap.Logger) fiber.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("auth")

	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return utils.Unauthorized(c, "missing authorization header")
		}
		if !strings.HasPrefix(authHeader, "Bearer ") {
			return utils.Unauthorized(c, "invalid authorization format")
		}

		claims, err := utils.ParseAdminToken(secret, strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			log.Debug("token rejected", zap.String("path", c.Path()), zap.Error(err))
			return utils.Unauthorized(c, "invalid token")
		}
		if claims.Role != models.RoleAdmin {
			log.Info("non-admin token rejected", zap.Uint("admin_id", claims.AdminID), zap.String("role", claims.Role))
			return utils.Forbidden(c, "insufficient permissions")
		}

		c.Locals("claims", claims)
		c.Locals("adminID", claims.AdminID)
		return c.Next()
	}
}

// HasPermission returns a middleware that checks for a specific permission.
func HasPermission(permission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := utils.GetAdminClaims(c)
		if err != nil {
			return utils.Unauthorized(c, "unauthorized")
		}
		if !claims.HasPermission(permission) {
			return utils.Forbidden(c, "insufficient permissions")
		}
		return c.Next()
	}
}
