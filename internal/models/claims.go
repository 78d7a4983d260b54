package models

import "github.com/golang-jwt/jwt/v5"

// Application permissions
const (
	PermissionPayoutRead    = "payout:read"
	PermissionPayoutWrite   = "payout:write"
	PermissionOperationsRun = "operations:run"
)

type UserClaims struct {
	jwt.RegisteredClaims
	UserID      uint     `json:"user_id"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

// HasPermission checks if the claims include a specific permission
func (c *UserClaims) HasPermission(permission string) bool {
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
	case "admin":
		return []string{
			PermissionPayoutRead,
			PermissionPayoutWrite,
			PermissionOperationsRun,
		}
	case "user":
		return []string{
			PermissionPayoutRead,
			PermissionPayoutWrite,
		}
	default:
		return []string{}
	}
}
