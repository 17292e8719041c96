package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/fcs-go-api/internal/middleware"
	"github.com/noah-isme/fcs-go-api/internal/service"
)

func operatorIDFromContext(c *fiber.Ctx) string {
	if v := c.Locals(middleware.LocalOperatorID); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

func operatorRoleFromContext(c *fiber.Ctx) string {
	if v := c.Locals(middleware.LocalOperatorRole); v != nil {
		if role, ok := v.(string); ok {
			return role
		}
	}
	return ""
}

func activityActorFromContext(c *fiber.Ctx) service.ActivityActor {
	return service.ActivityActor{
		ID:   operatorIDFromContext(c),
		Role: operatorRoleFromContext(c),
	}
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

func isValidationError(err error) bool {
	var validationErrors validator.ValidationErrors
	return errors.As(err, &validationErrors)
}
