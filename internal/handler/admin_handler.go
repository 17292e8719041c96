package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/fcs-go-api/internal/dto"
	"github.com/noah-isme/fcs-go-api/internal/repository"
	"github.com/noah-isme/fcs-go-api/internal/service"
	"github.com/noah-isme/fcs-go-api/internal/session"
	"github.com/noah-isme/fcs-go-api/internal/utils"
)

// AdminHandler exposes the administrative surface: subject management, mood
// trends, first-run initialization and the audit trail.
type AdminHandler struct {
	adminService service.AdminService
	authService  service.AuthService
	activity     service.ActivityService
	roster       service.RosterService
	store        *session.Store
	validator    *validator.Validate
	logger       zerolog.Logger
}

// NewAdminHandler constructs the admin handler.
func NewAdminHandler(adminService service.AdminService, authService service.AuthService, activity service.ActivityService, roster service.RosterService, store *session.Store, validate *validator.Validate, logger zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
		authService:  authService,
		activity:     activity,
		roster:       roster,
		store:        store,
		validator:    validate,
		logger:       logger.With().Str("component", "admin_handler").Logger(),
	}
}

// Authorize validates the admin secret and grants the dashboard capability.
func (h *AdminHandler) Authorize(c *fiber.Ctx) error {
	var req dto.AdminAuthRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "access key is required")
	}

	if err := h.authService.AuthorizeAdmin(c.UserContext(), req.AccessKey); err != nil {
		switch {
		case errors.Is(err, service.ErrConfigUnavailable):
			return utils.SendError(c, fiber.StatusServiceUnavailable, "system configuration unavailable")
		case errors.Is(err, service.ErrInvalidCredential):
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid credential")
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("admin authorization failed")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to authorize")
		}
	}

	return utils.SendSuccess(c, "admin capability granted", h.store.Snapshot())
}

// ListStudents returns the roster for the dashboard, including the same
// active-only view the terminal sees.
func (h *AdminHandler) ListStudents(c *fiber.Ctx) error {
	students, err := h.roster.List(c.UserContext())
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list students")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list students")
	}

	return utils.SendSuccess(c, "active students", students)
}

// UpsertStudent creates or merges a subject profile.
func (h *AdminHandler) UpsertStudent(c *fiber.Ctx) error {
	var req dto.UpsertStudentRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	student, err := h.adminService.UpsertStudent(c.UserContext(), req, activityActorFromContext(c))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrIDRequired):
			return utils.SendError(c, fiber.StatusBadRequest, "ID_REQUIRED")
		case isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, "invalid student payload")
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("failed to upsert student")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to save student")
		}
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "student saved", student)
}

// PurgeStudent deletes the subject profile and cascades over its logs. A
// failed cascade after a successful profile delete is reported as partial,
// not rolled back.
func (h *AdminHandler) PurgeStudent(c *fiber.Ctx) error {
	studentID := strings.TrimSpace(c.Params("id"))

	result, err := h.adminService.PurgeStudent(c.UserContext(), studentID, activityActorFromContext(c))
	if err != nil {
		var cascadeErr *service.CascadeError
		switch {
		case errors.Is(err, service.ErrIDRequired):
			return utils.SendError(c, fiber.StatusBadRequest, "ID_REQUIRED")
		case errors.Is(err, service.ErrStudentNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "student not found")
		case errors.As(err, &cascadeErr):
			requestLogger(h.logger, c).Error().Err(err).Str("student_id", cascadeErr.StudentID).Msg("purge cascade incomplete")
			return utils.SendError(c, fiber.StatusInternalServerError, "profile deleted but log cascade failed")
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("failed to purge student")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to purge student")
		}
	}

	return utils.SendSuccess(c, "student purged", result)
}

// MoodTrends returns the aggregated mood series for one subject.
func (h *AdminHandler) MoodTrends(c *fiber.Ctx) error {
	studentID := strings.TrimSpace(c.Params("id"))

	trends, err := h.adminService.MoodTrends(c.UserContext(), studentID)
	if err != nil {
		if errors.Is(err, service.ErrIDRequired) {
			return utils.SendError(c, fiber.StatusBadRequest, "ID_REQUIRED")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to aggregate mood trends")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to aggregate mood trends")
	}

	return utils.SendSuccess(c, "mood trends", trends)
}

// Initialize writes the secrets singleton and the seed subject as one batch.
func (h *AdminHandler) Initialize(c *fiber.Ctx) error {
	result, err := h.adminService.Initialize(c.UserContext(), activityActorFromContext(c))
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("initialization failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to initialize system")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "system initialized", result)
}

// ListActivity returns the audit trail, newest first.
func (h *AdminHandler) ListActivity(c *fiber.Ctx) error {
	filter := repository.ActivityLogFilter{
		ActorID:    strings.TrimSpace(c.Query("actor_id")),
		Action:     strings.TrimSpace(c.Query("action")),
		EntityType: strings.TrimSpace(c.Query("entity_type")),
	}
	if raw := c.Query("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil {
			filter.Limit = limit
		}
	}

	entries, err := h.activity.List(c.UserContext(), filter)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list activity")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list activity")
	}

	return utils.SendSuccess(c, "activity log", entries)
}
