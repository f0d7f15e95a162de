package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"gymledger/internal/models"
	"gymledger/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func newApp() *fiber.App {
	app := fiber.New()
	app.Use(AdminAuth(secret, nil))
	app.Get("/reports", HasPermission(models.PermissionReportRead), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"admin_id": utils.AdminID(c)})
	})
	return app
}

func token(t *testing.T, claims *models.AdminClaims) string {
	t.Helper()
	tok, err := utils.GenerateAdminToken(secret, claims, time.Hour, time.Now())
	require.NoError(t, err)
	return tok
}

func TestAdminAuth(t *testing.T) {
	app := newApp()

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", fiber.StatusUnauthorized},
		{"not bearer", "Basic abc", fiber.StatusUnauthorized},
		{"garbage token", "Bearer abc", fiber.StatusUnauthorized},
		{"non-admin role", "Bearer " + token(t, &models.AdminClaims{AdminID: 3, Role: "member"}), fiber.StatusForbidden},
		{"missing permission", "Bearer " + token(t, &models.AdminClaims{AdminID: 4, Role: models.RoleAdmin, Permissions: []string{models.PermissionLedgerRead}}), fiber.StatusForbidden},
		{"admin with all permissions", "Bearer " + token(t, &models.AdminClaims{AdminID: 5, Role: models.RoleAdmin}), fiber.StatusOK},
		{"scoped admin", "Bearer " + token(t, &models.AdminClaims{AdminID: 6, Role: models.RoleAdmin, Permissions: []string{models.PermissionReportRead}}), fiber.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/reports", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}
