package models

import "github.com/golang-jwt/jwt/v5"

const RoleAdmin = "admin"

// Application permissions
const (
	PermissionLedgerRead      = "ledger:read"
	PermissionLedgerWrite     = "ledger:write"
	PermissionWithdrawalWrite = "withdrawal:write"
	PermissionSettle          = "withdrawal:settle"
	PermissionReportRead      = "report:read"
)

// AdminClaims identifies an already-authenticated administrator.
type AdminClaims struct {
	jwt.RegisteredClaims
	AdminID     uint     `json:"admin_id"`
	Email       string   `json:"email"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

// HasPermission checks if the claims include a specific permission
func (c *AdminClaims) HasPermission(permission string) bool {
	if c.Role == RoleAdmin && len(c.Permissions) == 0 {
		return true
	}
	for _, p := range c.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// GetDefaultPermissions returns default permissions based on role
func GetDefaultPermissions(role string) []string {
	switch role {
	case RoleAdmin:
		return []string{
			PermissionLedgerRead,
			PermissionLedgerWrite,
			PermissionWithdrawalWrite,
			PermissionSettle,
			PermissionReportRead,
		}
	default:
		return []string{}
	}
}
