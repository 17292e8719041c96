package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/fcs-go-api/internal/session"
	"github.com/noah-isme/fcs-go-api/internal/utils"
)

// RequireSession ensures the terminal has an authenticated identity and that
// the presented token still belongs to it. A token minted before a logout
// keeps validating cryptographically; binding it to the live identity is
// what actually revokes it.
func RequireSession(store *session.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		snap := store.Snapshot()
		if snap.Identity == nil {
			return utils.SendError(c, fiber.StatusUnauthorized, "no active session")
		}

		if operatorID, ok := c.Locals(LocalOperatorID).(string); ok && operatorID != "" {
			if operatorID != snap.Identity.ID {
				return utils.SendError(c, fiber.StatusUnauthorized, "session superseded")
			}
		}

		return c.Next()
	}
}

// RequireAdminCapability gates the admin surface behind the independent
// admin-authenticated flag. Lock state and admin capability never affect
// each other.
func RequireAdminCapability(store *session.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !store.Snapshot().AdminAuthenticated {
			return utils.SendError(c, fiber.StatusForbidden, "admin capability required")
		}
		return c.Next()
	}
}
