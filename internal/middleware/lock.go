package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/fcs-go-api/internal/session"
	"github.com/noah-isme/fcs-go-api/internal/utils"
)

// LockGate suppresses the session surface while the terminal is locked.
// Every route behind it answers 423 until the unlock gate is satisfied, so
// no previously reachable view can be re-exposed by replaying navigation.
func LockGate(store *session.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if store.Snapshot().Locked {
			return utils.SendError(c, fiber.StatusLocked, "terminal locked")
		}
		return c.Next()
	}
}
