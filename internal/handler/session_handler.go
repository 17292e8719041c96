package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/fcs-go-api/internal/dto"
	"github.com/noah-isme/fcs-go-api/internal/service"
	"github.com/noah-isme/fcs-go-api/internal/session"
	"github.com/noah-isme/fcs-go-api/internal/utils"
)

// SessionHandler exposes the recording session flow: draft edits, submission
// and cancellation.
type SessionHandler struct {
	recording service.RecordingService
	store     *session.Store
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewSessionHandler constructs the session handler.
func NewSessionHandler(recording service.RecordingService, store *session.Store, validate *validator.Validate, logger zerolog.Logger) *SessionHandler {
	return &SessionHandler{
		recording: recording,
		store:     store,
		validator: validate,
		logger:    logger.With().Str("component", "session_handler").Logger(),
	}
}

// Snapshot returns the current session view.
func (h *SessionHandler) Snapshot(c *fiber.Ctx) error {
	return utils.SendSuccess(c, "session state", h.store.Snapshot())
}

// UpdateDraft shallow-merges the patch into the in-progress draft.
func (h *SessionHandler) UpdateDraft(c *fiber.Ctx) error {
	var req dto.DraftUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "mood score must be between 1 and 10")
	}

	snap := h.recording.UpdateDraft(req.Patch())

	return utils.SendSuccess(c, "draft updated", snap)
}

// Submit persists the draft as an immutable log and locks the terminal.
func (h *SessionHandler) Submit(c *fiber.Ctx) error {
	logger := requestLogger(h.logger, c)

	result, err := h.recording.Submit(c.UserContext(), func(percent int) {
		logger.Debug().Int("percent", percent).Msg("submission in progress")
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoActiveSession):
			return utils.SendError(c, fiber.StatusUnauthorized, "no active session")
		case errors.Is(err, service.ErrNoStudentSelected):
			return utils.SendError(c, fiber.StatusConflict, "no student selected")
		case errors.Is(err, service.ErrEmptyContent):
			return utils.SendError(c, fiber.StatusBadRequest, "session content is empty")
		default:
			// The cause travels to the operator verbatim so a retry decision
			// can be made at the terminal.
			logger.Error().Err(err).Msg("submission failed")
			return utils.SendError(c, fiber.StatusInternalServerError, err.Error())
		}
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "session recorded", result)
}

// Cancel discards the in-progress session after explicit confirmation.
func (h *SessionHandler) Cancel(c *fiber.Ctx) error {
	var req dto.CancelRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	snap, err := h.recording.Cancel(req.Confirm)
	if err != nil {
		if errors.Is(err, service.ErrConfirmRequired) {
			return utils.SendError(c, fiber.StatusBadRequest, "cancellation requires confirmation")
		}
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to cancel session")
	}

	return utils.SendSuccess(c, "session cancelled", snap)
}
