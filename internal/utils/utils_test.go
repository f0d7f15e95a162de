package utils

import (
	"net/http/httptest"
	"testing"
	"time"

	"gymledger/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminTokenRoundTrip(t *testing.T) {
	claims := &models.AdminClaims{AdminID: 7, Email: "ops@gym.test", Role: models.RoleAdmin, Permissions: []string{models.PermissionReportRead}}

	token, err := GenerateAdminToken("s3cret", claims, time.Hour, time.Now())
	require.NoError(t, err)

	parsed, err := ParseAdminToken("s3cret", token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), parsed.AdminID)
	assert.Equal(t, models.RoleAdmin, parsed.Role)
	assert.Equal(t, []string{models.PermissionReportRead}, parsed.Permissions)
	assert.Equal(t, "7", parsed.Subject)

	_, err = ParseAdminToken("other", token)
	assert.Error(t, err)
}

func TestAdminToken_Expired(t *testing.T) {
	claims := &models.AdminClaims{AdminID: 1, Role: models.RoleAdmin}
	token, err := GenerateAdminToken("s3cret", claims, time.Minute, time.Now().Add(-time.Hour))
	require.NoError(t, err)

	_, err = ParseAdminToken("s3cret", token)
	assert.Error(t, err)
}

func TestAdminToken_MissingSecret(t *testing.T) {
	_, err := GenerateAdminToken("", &models.AdminClaims{}, time.Hour, time.Now())
	assert.Error(t, err)
	_, err = ParseAdminToken("", "x.y.z")
	assert.Error(t, err)
}

func TestGetPagination(t *testing.T) {
	app := fiber.New()
	var got Pagination
	app.Get("/", func(c *fiber.Ctx) error {
		got = GetPagination(c, 1, 20)
		got.SetTotal(45)
		return nil
	})

	tests := []struct {
		query       string
		page, limit int
		last        int
	}{
		{"", 1, 20, 3},
		{"?page=2&limit=10", 2, 10, 5},
		{"?page=0&limit=abc", 1, 20, 3},
	}
	for _, tt := range tests {
		_, err := app.Test(httptest.NewRequest("GET", "/"+tt.query, nil))
		require.NoError(t, err)
		assert.Equal(t, tt.page, got.Page, tt.query)
		assert.Equal(t, tt.limit, got.Limit, tt.query)
		assert.Equal(t, tt.last, got.LastPage, tt.query)
	}
}
