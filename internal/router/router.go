package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/websocket/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/fcs-go-api/internal/config"
	"github.com/noah-isme/fcs-go-api/internal/handler"
	"github.com/noah-isme/fcs-go-api/internal/middleware"
	"github.com/noah-isme/fcs-go-api/internal/session"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler    *handler.AuthHandler
	SessionHandler *handler.SessionHandler
	StudentHandler *handler.StudentHandler
	AdminHandler   *handler.AdminHandler
	Store          *session.Store
}

// Register wires the HTTP routes into the fiber application.
//
// The gate layering mirrors the terminal flow: everything behind the lock
// gate disappears while the terminal is locked, while the unlock, logout and
// admin routes stay reachable so the operator can get back out. The admin
// capability is checked independently of lock state.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	api.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	if deps.AuthHandler != nil {
		auth := api.Group("/auth")
		auth.Post("/login", middleware.RateLimit("login", 5, time.Minute), deps.AuthHandler.Login)
		auth.Get("/state", deps.AuthHandler.State)
	}

	if deps.StudentHandler != nil {
		// The state stream serves every screen, the login and lock views
		// included, so it sits in front of the token gate.
		api.Get("/state/stream", requireUpgrade, deps.StudentHandler.StreamState())
	}

	if deps.Store == nil {
		return
	}

	protected := api.Group("", middleware.JWTProtected(cfg.JWTSecret), middleware.RequireSession(deps.Store))

	if deps.AuthHandler != nil {
		protected.Post("/auth/unlock", middleware.RateLimit("unlock", 5, time.Minute), deps.AuthHandler.Unlock)
		protected.Post("/auth/logout", deps.AuthHandler.Logout)
	}

	// The lock gate is scoped to the session surface only. An empty-prefix
	// group would trap every later registration, the admin surface included,
	// and lock state must never reach it.
	if deps.StudentHandler != nil {
		students := protected.Group("/students", middleware.LockGate(deps.Store))
		students.Get("/", deps.StudentHandler.List)
		students.Get("/stream", requireUpgrade, deps.StudentHandler.StreamRoster())
		students.Post("/select", deps.StudentHandler.Select)
	}

	if deps.SessionHandler != nil {
		recording := protected.Group("/session", middleware.LockGate(deps.Store))
		recording.Get("/", deps.SessionHandler.Snapshot)
		recording.Patch("/draft", deps.SessionHandler.UpdateDraft)
		recording.Post("/submit", deps.SessionHandler.Submit)
		recording.Post("/cancel", deps.SessionHandler.Cancel)
	}

	if deps.AdminHandler != nil {
		admin := protected.Group("/admin")
		admin.Post("/auth", deps.AdminHandler.Authorize)

		dashboard := admin.Group("", middleware.RequireAdminCapability(deps.Store))
		dashboard.Get("/students", deps.AdminHandler.ListStudents)
		dashboard.Post("/students", deps.AdminHandler.UpsertStudent)
		dashboard.Delete("/students/:id", deps.AdminHandler.PurgeStudent)
		dashboard.Get("/students/:id/trends", deps.AdminHandler.MoodTrends)
		dashboard.Post("/init", deps.AdminHandler.Initialize)
		dashboard.Get("/activity", deps.AdminHandler.ListActivity)
	}
}

func requireUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}
