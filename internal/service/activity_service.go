package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/noah-isme/fcs-go-api/internal/dto"
	"github.com/noah-isme/fcs-go-api/internal/models"
	"github.com/noah-isme/fcs-go-api/internal/repository"
)

// ActivityActor identifies the authenticated operator behind an admin action.
type ActivityActor struct {
	ID   string
	Role string
}

// ActivityEntry captures the details required to persist an audit entry.
type ActivityEntry struct {
	ActorID    string
	ActorRole  string
	Action     string
	EntityType string
	EntityID   string
	Metadata   map[string]interface{}
}

// ActivityRecorder defines behaviour for recording audit trail events.
type ActivityRecorder interface {
	Record(ctx context.Context, entry ActivityEntry) (dto.ActivityResponse, error)
}

// ActivityService exposes methods to query and persist the audit trail.
type ActivityService interface {
	ActivityRecorder
	List(ctx context.Context, filter repository.ActivityLogFilter) ([]dto.ActivityResponse, error)
}

type activityService struct {
	repo   repository.ActivityLogRepository
	logger zerolog.Logger
}

// NewActivityService constructs the activity log service.
func NewActivityService(repo repository.ActivityLogRepository, logger zerolog.Logger) ActivityService {
	return &activityService{
		repo:   repo,
		logger: logger.With().Str("component", "activity_service").Logger(),
	}
}

func (s *activityService) Record(ctx context.Context, entry ActivityEntry) (dto.ActivityResponse, error) {
	if strings.TrimSpace(entry.Action) == "" {
		return dto.ActivityResponse{}, fmt.Errorf("action is required")
	}
	if strings.TrimSpace(entry.EntityType) == "" {
		return dto.ActivityResponse{}, fmt.Errorf("entity type is required")
	}

	metadata := datatypes.JSONMap{}
	for key, value := range entry.Metadata {
		metadata[key] = value
	}

	model := models.ActivityLog{
		ActorID:    strings.TrimSpace(entry.ActorID),
		ActorRole:  strings.ToLower(strings.TrimSpace(entry.ActorRole)),
		Action:     strings.ToLower(strings.TrimSpace(entry.Action)),
		EntityType: strings.ToLower(strings.TrimSpace(entry.EntityType)),
		EntityID:   strings.TrimSpace(entry.EntityID),
		Metadata:   metadata,
	}

	if err := s.repo.Create(ctx, &model); err != nil {
		s.logger.Error().Err(err).Msg("failed to persist activity log")
		return dto.ActivityResponse{}, err
	}

	return dto.NewActivityResponse(model), nil
}

func (s *activityService) List(ctx context.Context, filter repository.ActivityLogFilter) ([]dto.ActivityResponse, error) {
	entries, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.ActivityResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, dto.NewActivityResponse(entry))
	}

	return responses, nil
}
