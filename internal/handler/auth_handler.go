package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/fcs-go-api/internal/dto"
	"github.com/noah-isme/fcs-go-api/internal/observability"
	"github.com/noah-isme/fcs-go-api/internal/service"
	"github.com/noah-isme/fcs-go-api/internal/session"
	"github.com/noah-isme/fcs-go-api/internal/utils"
)

// AuthHandler exposes the authentication and lock gates over HTTP.
type AuthHandler struct {
	authService service.AuthService
	store       *session.Store
	validator   *validator.Validate
	logger      zerolog.Logger
}

// NewAuthHandler constructs the auth handler.
func NewAuthHandler(authService service.AuthService, store *session.Store, validate *validator.Validate, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		store:       store,
		validator:   validate,
		logger:      logger.With().Str("component", "auth_handler").Logger(),
	}
}

// Login validates the operator credential and moves the terminal to subject
// selection.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "access key is required")
	}

	result, err := h.authService.Authenticate(c.UserContext(), req.Name, req.AccessKey)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTerminalLocked):
			return utils.SendError(c, fiber.StatusLocked, "terminal locked")
		case errors.Is(err, service.ErrConfigUnavailable):
			return utils.SendError(c, fiber.StatusServiceUnavailable, "system configuration unavailable")
		case errors.Is(err, service.ErrInvalidCredential):
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid credential")
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("login failed")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to authenticate")
		}
	}

	return utils.SendSuccess(c, "authenticated", dto.LoginResponse{
		Token:    result.Token,
		Identity: result.Identity,
		Status:   h.store.Snapshot().Status,
	})
}

// Unlock validates the unlock secret against the lock gate. A denial keeps
// the terminal locked and opens the transient denial window.
func (h *AuthHandler) Unlock(c *fiber.Ctx) error {
	var req dto.UnlockRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "unlock key is required")
	}

	if err := h.authService.AuthenticateUnlock(c.UserContext(), req.UnlockKey); err != nil {
		switch {
		case errors.Is(err, service.ErrConfigUnavailable):
			return utils.SendError(c, fiber.StatusServiceUnavailable, "system configuration unavailable")
		case errors.Is(err, service.ErrInvalidCredential):
			observability.UnlockDenials().Inc()
			return utils.SendError(c, fiber.StatusUnauthorized, "unlock denied")
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("unlock failed")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to unlock")
		}
	}

	return utils.SendSuccess(c, "terminal unlocked", h.store.Snapshot())
}

// Logout performs the full-system reset back to the login state. Idempotent;
// the token presented with this request stops resolving afterwards.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	h.store.Logout()

	return utils.SendSuccess(c, "logged out", h.store.Snapshot())
}

// State returns the current terminal snapshot.
func (h *AuthHandler) State(c *fiber.Ctx) error {
	return utils.SendSuccess(c, "terminal state", h.store.Snapshot())
}
