package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/fcs-go-api/internal/config"
	"github.com/noah-isme/fcs-go-api/internal/utils"
)

var startedAt = time.Now().UTC()

// HealthResponse reports liveness for the counseling record service. It
// carries no terminal state; lock and session are visible via /auth/state.
type HealthResponse struct {
	Status        string    `json:"status"`
	Timestamp     time.Time `json:"timestamp"`
	Service       string    `json:"service"`
	Environment   string    `json:"environment"`
	UptimeSeconds int64     `json:"uptime_seconds"`
}

// HealthCheck returns the liveness handler.
func HealthCheck(cfg config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		now := time.Now().UTC()
		payload := HealthResponse{
			Status:        "ok",
			Timestamp:     now,
			Service:       cfg.AppName,
			Environment:   cfg.AppEnv,
			UptimeSeconds: int64(now.Sub(startedAt).Seconds()),
		}

		return utils.SendSuccess(c, "record service healthy", payload)
	}
}
