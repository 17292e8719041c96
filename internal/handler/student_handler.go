package handler

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/fcs-go-api/internal/dto"
	"github.com/noah-isme/fcs-go-api/internal/service"
	"github.com/noah-isme/fcs-go-api/internal/session"
	"github.com/noah-isme/fcs-go-api/internal/utils"
)

// StudentHandler exposes the subject roster and subject selection.
type StudentHandler struct {
	roster    service.RosterService
	recording service.RecordingService
	store     *session.Store
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewStudentHandler constructs the student handler.
func NewStudentHandler(roster service.RosterService, recording service.RecordingService, store *session.Store, validate *validator.Validate, logger zerolog.Logger) *StudentHandler {
	return &StudentHandler{
		roster:    roster,
		recording: recording,
		store:     store,
		validator: validate,
		logger:    logger.With().Str("component", "student_handler").Logger(),
	}
}

// List returns the current active-subject roster.
func (h *StudentHandler) List(c *fiber.Ctx) error {
	students, err := h.roster.List(c.UserContext())
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list students")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list students")
	}

	return utils.SendSuccess(c, "active students", students)
}

// Select binds an active subject to the session and opens the recording
// screen.
func (h *StudentHandler) Select(c *fiber.Ctx) error {
	var req dto.SelectStudentRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "student id is required")
	}

	snap, err := h.recording.Select(c.UserContext(), req.StudentID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoActiveSession):
			return utils.SendError(c, fiber.StatusUnauthorized, "no active session")
		case errors.Is(err, service.ErrStudentUnavailable):
			return utils.SendError(c, fiber.StatusNotFound, "student unavailable")
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("failed to select student")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to select student")
		}
	}

	return utils.SendSuccess(c, "student selected", snap)
}

// StreamRoster upgrades the connection and pushes roster snapshots: the
// current list first, then one message per change event.
func (h *StudentHandler) StreamRoster() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		defer conn.Close()

		ctx, cancelCtx := context.WithCancel(context.Background())
		defer cancelCtx()

		updates, cancel, err := h.roster.Subscribe(ctx)
		if err != nil {
			h.logger.Error().Err(err).Msg("failed to subscribe to roster updates")
			return
		}
		defer cancel()

		// Reader goroutine: its only job is to notice the peer going away.
		go func() {
			defer cancelCtx()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case snapshot, ok := <-updates:
				if !ok {
					return
				}
				if err := conn.WriteJSON(snapshot); err != nil {
					return
				}
			}
		}
	})
}

// StreamState upgrades the connection and pushes terminal state snapshots,
// letting the presentation layer react to lock and logout transitions it did
// not initiate.
func (h *StudentHandler) StreamState() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		defer conn.Close()

		updates, cancel := h.store.Watch()
		defer cancel()

		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case <-done:
				return
			case snapshot, ok := <-updates:
				if !ok {
					return
				}
				if err := conn.WriteJSON(snapshot); err != nil {
					return
				}
			}
		}
	})
}
