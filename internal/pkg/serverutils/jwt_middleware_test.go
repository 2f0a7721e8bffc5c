// FILE: internal/pkg/serverutils/jwt_middleware_test.go
package serverutils

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "unit-test-secret"

func protectedApp(secret string) *fiber.App {
	app := fiber.New()
	app.Get("/me", NewJwtMiddleware(secret), func(ctx *fiber.Ctx) error {
		userID, _ := ctx.Locals("user_id").(string)
		return ctx.SendString(userID)
	})
	return app
}

func mintToken(t *testing.T, secret, userID string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": userID})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestJwtMiddleware_AcceptsConfiguredSecret(t *testing.T) {
	app := protectedApp(testSecret)

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, testSecret, "1001"))

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "1001", string(body))
}

func TestJwtMiddleware_RejectsMissingToken(t *testing.T) {
	app := protectedApp(testSecret)

	resp, err := app.Test(httptest.NewRequest("GET", "/me", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestJwtMiddleware_RejectsForeignSecret(t *testing.T) {
	app := protectedApp(testSecret)

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, "some-other-secret", "1001"))

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
