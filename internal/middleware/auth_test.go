package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"paydesk/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func newTestApp() *fiber.App {
	app := fiber.New()
	auth := NewAuthMiddleware(testSecret)
	app.Get("/payouts", auth.Handler, RequirePermission(models.PermissionPayoutRead), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func signToken(t *testing.T, claims *models.UserClaims) string {
	t.Helper()
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(time.Hour))
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func TestAuthMiddleware_RejectsBadTokens(t *testing.T) {
	tests := []struct {
		name       string
		authHeader string
	}{
		{"missing header", ""},
		{"not bearer", "Basic dXNlcjpwYXNz"},
		{"garbage token", "Bearer not-a-token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp()
			req := httptest.NewRequest("GET", "/payouts", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			resp, err := app.Test(req)
			assert.NoError(t, err)
			assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		})
	}
}

// A token carrying only a role gets the role's default permission set.
func TestAuthMiddleware_RoleDefaultPermissions(t *testing.T) {
	app := newTestApp()

	token := signToken(t, &models.UserClaims{UserID: 1, Role: "user"})
	req := httptest.NewRequest("GET", "/payouts", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAuthMiddleware_ExplicitPermissionsAreRespected(t *testing.T) {
	app := newTestApp()

	token := signToken(t, &models.UserClaims{
		UserID:      1,
		Role:        "user",
		Permissions: []string{models.PermissionPayoutWrite},
	})
	req := httptest.NewRequest("GET", "/payouts", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	// Explicit claims narrow the role default: no read permission, no read.
	resp, err := app.Test(req)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestAuthMiddleware_UnknownRoleHasNoPermissions(t *testing.T) {
	app := newTestApp()

	token := signToken(t, &models.UserClaims{UserID: 1, Role: "auditor"})
	req := httptest.NewRequest("GET", "/payouts", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}
