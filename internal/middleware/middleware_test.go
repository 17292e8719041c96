package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/fcs-go-api/internal/middleware"
	"github.com/noah-isme/fcs-go-api/internal/session"
)

const testSecret = "test-secret"

func mintToken(t *testing.T, secret, sub, role string) string {
	t.Helper()

	claims := jwt.MapClaims{
		"sub":  sub,
		"name": "Counselor",
		"role": role,
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func perform(t *testing.T, app *fiber.App, token string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestJWTProtectedRejectsMissingAndMalformedTokens(t *testing.T) {
	app := fiber.New()
	app.Get("/", middleware.JWTProtected(testSecret), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	resp := perform(t, app, "")
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	resp = perform(t, app, "garbage")
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	resp = perform(t, app, mintToken(t, "other-secret", "T-001", "teacher"))
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestJWTProtectedPopulatesOperatorLocals(t *testing.T) {
	app := fiber.New()
	app.Get("/", middleware.JWTProtected(testSecret), func(c *fiber.Ctx) error {
		require.Equal(t, "T-001", c.Locals(middleware.LocalOperatorID))
		require.Equal(t, "teacher", c.Locals(middleware.LocalOperatorRole))
		return c.SendStatus(fiber.StatusNoContent)
	})

	resp := perform(t, app, mintToken(t, testSecret, "T-001", "teacher"))
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	resp.Body.Close()
}

func TestRequireSessionBindsTokenToLiveIdentity(t *testing.T) {
	store := session.NewStore(2*time.Second, nil, zerolog.Nop())

	app := fiber.New()
	app.Get("/", middleware.JWTProtected(testSecret), middleware.RequireSession(store), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	token := mintToken(t, testSecret, "T-001", "teacher")

	// No identity yet.
	resp := perform(t, app, token)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	store.SetIdentity(&session.Identity{ID: "T-001", Role: session.RoleTeacher})
	resp = perform(t, app, token)
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	// A different live identity supersedes the token.
	store.SetIdentity(&session.Identity{ID: "T-002", Role: session.RoleTeacher})
	resp = perform(t, app, token)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestLockGateBlocksWhileLocked(t *testing.T) {
	store := session.NewStore(2*time.Second, nil, zerolog.Nop())
	store.SetIdentity(&session.Identity{ID: "T-001", Role: session.RoleTeacher})

	app := fiber.New()
	app.Get("/", middleware.LockGate(store), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	resp := perform(t, app, "")
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	store.Lock()
	resp = perform(t, app, "")
	require.Equal(t, fiber.StatusLocked, resp.StatusCode)
	resp.Body.Close()

	store.Unlock()
	resp = perform(t, app, "")
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	resp.Body.Close()
}

func TestRequireAdminCapability(t *testing.T) {
	store := session.NewStore(2*time.Second, nil, zerolog.Nop())

	app := fiber.New()
	app.Get("/", middleware.RequireAdminCapability(store), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	resp := perform(t, app, "")
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	store.SetAdminAuthenticated(true)
	resp = perform(t, app, "")
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	resp.Body.Close()
}

func TestCorrelationIDGeneratedAndEchoed(t *testing.T) {
	app := fiber.New()
	app.Use(middleware.CorrelationID())
	app.Get("/", func(c *fiber.Ctx) error {
		require.NotEmpty(t, middleware.GetCorrelationID(c))
		return c.SendStatus(fiber.StatusNoContent)
	})

	resp := perform(t, app, "")
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	require.NotEmpty(t, resp.Header.Get("X-Correlation-ID"))
	resp.Body.Close()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Correlation-ID", "fixed-id")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, "fixed-id", resp.Header.Get("X-Correlation-ID"))
	resp.Body.Close()
}
