package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/fcs-go-api/internal/dto"
	"github.com/noah-isme/fcs-go-api/internal/models"
	"github.com/noah-isme/fcs-go-api/internal/repository"
)

var (
	// ErrIDRequired indicates an upsert with an empty subject identifier.
	// Raised before any store write is attempted.
	ErrIDRequired = errors.New("ID_REQUIRED")
	// ErrStudentNotFound indicates the subject profile does not exist.
	ErrStudentNotFound = errors.New("student not found")
)

// CascadeError reports a purge whose profile delete succeeded but whose log
// cascade failed. The store provides no cross-record transaction here; the
// subject is left partially purged and the caller is told so.
type CascadeError struct {
	StudentID string
	Err       error
}

func (e *CascadeError) Error() string {
	return fmt.Sprintf("cascade delete incomplete for %s: %v", e.StudentID, e.Err)
}

func (e *CascadeError) Unwrap() error { return e.Err }

// SeedDefaults carries the bootstrap values written by the first-run
// initialization batch.
type SeedDefaults struct {
	AdminKey     string
	UnlockKey    string
	StudentID    string
	StudentName  string
	StudentClass string
}

// AdminService orchestrates the administrative surface: subject profile
// management, mood trend aggregation and first-run initialization.
type AdminService interface {
	UpsertStudent(ctx context.Context, req dto.UpsertStudentRequest, actor ActivityActor) (dto.StudentResponse, error)
	PurgeStudent(ctx context.Context, studentID string, actor ActivityActor) (dto.PurgeResponse, error)
	MoodTrends(ctx context.Context, studentID string) (dto.MoodTrendResponse, error)
	Initialize(ctx context.Context, actor ActivityActor) (dto.InitializeResponse, error)
}

type adminService struct {
	studentRepo repository.StudentRepository
	logRepo     repository.CounselingLogRepository
	configRepo  repository.SystemConfigRepository
	roster      RosterService
	cache       *redis.Client
	cacheTTL    time.Duration
	activity    ActivityRecorder
	validator   *validator.Validate
	seed        SeedDefaults
	tracer      trace.Tracer
	logger      zerolog.Logger
}

// NewAdminService constructs the admin service.
func NewAdminService(studentRepo repository.StudentRepository, logRepo repository.CounselingLogRepository, configRepo repository.SystemConfigRepository, roster RosterService, cache *redis.Client, cacheTTL time.Duration, activity ActivityRecorder, validate *validator.Validate, seed SeedDefaults, logger zerolog.Logger) AdminService {
	return &adminService{
		studentRepo: studentRepo,
		logRepo:     logRepo,
		configRepo:  configRepo,
		roster:      roster,
		cache:       cache,
		cacheTTL:    cacheTTL,
		activity:    activity,
		validator:   validate,
		seed:        seed,
		tracer:      otel.Tracer("github.com/noah-isme/fcs-go-api/internal/service/admin"),
		logger:      logger.With().Str("component", "admin_service").Logger(),
	}
}

// UpsertStudent creates or merges a subject profile. The identifier must be
// non-empty after trimming and the record is always re-activated; this
// surface cannot soft-delete.
func (s *adminService) UpsertStudent(ctx context.Context, req dto.UpsertStudentRequest, actor ActivityActor) (dto.StudentResponse, error) {
	studentID := strings.TrimSpace(req.StudentID)
	if studentID == "" {
		return dto.StudentResponse{}, ErrIDRequired
	}

	if err := s.validator.Struct(req); err != nil {
		return dto.StudentResponse{}, err
	}

	student := models.Student{
		StudentID: studentID,
		Name:      strings.TrimSpace(req.Name),
		Class:     strings.TrimSpace(req.Class),
		Active:    true,
	}

	saved, err := s.studentRepo.Upsert(ctx, student)
	if err != nil {
		return dto.StudentResponse{}, err
	}

	s.roster.NotifyChanged(ctx)
	s.recordActivity(ctx, actor, "student.upserted", "student", studentID, map[string]interface{}{
		"name":  saved.Name,
		"class": saved.Class,
	})

	return dto.NewStudentResponse(saved), nil
}

// PurgeStudent deletes the subject profile, then deletes every log that
// references it as a best-effort second step. When the cascade fails after
// the profile delete succeeded, the partial state is reported via
// CascadeError and not rolled back.
func (s *adminService) PurgeStudent(ctx context.Context, studentID string, actor ActivityActor) (dto.PurgeResponse, error) {
	ctx, span := s.tracer.Start(ctx, "admin.purge_student")
	defer span.End()

	studentID = strings.TrimSpace(studentID)
	if studentID == "" {
		return dto.PurgeResponse{}, ErrIDRequired
	}
	span.SetAttributes(attribute.String("admin.student_id", studentID))

	if err := s.studentRepo.Delete(ctx, studentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.PurgeResponse{}, ErrStudentNotFound
		}
		span.RecordError(err)
		return dto.PurgeResponse{}, err
	}

	s.roster.NotifyChanged(ctx)
	s.invalidateTrendCache(ctx, studentID)

	deleted, err := s.logRepo.DeleteForStudent(ctx, studentID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "cascade_failed")
		s.logger.Error().Err(err).Str("student_id", studentID).Msg("log cascade failed after profile delete")
		return dto.PurgeResponse{StudentID: studentID}, &CascadeError{StudentID: studentID, Err: err}
	}

	s.recordActivity(ctx, actor, "student.purged", "student", studentID, map[string]interface{}{
		"logs_deleted": deleted,
	})

	return dto.PurgeResponse{StudentID: studentID, LogsDeleted: deleted}, nil
}

// MoodTrends aggregates a subject's historical logs. The store is queried
// by subject id only; ordering happens here, ascending by timestamp, so no
// composite index is required server-side.
func (s *adminService) MoodTrends(ctx context.Context, studentID string) (dto.MoodTrendResponse, error) {
	ctx, span := s.tracer.Start(ctx, "admin.mood_trends")
	defer span.End()

	studentID = strings.TrimSpace(studentID)
	if studentID == "" {
		return dto.MoodTrendResponse{}, ErrIDRequired
	}

	cacheKey := s.trendCacheKey(studentID)
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, cacheKey).Result()
		if err == nil {
			var response dto.MoodTrendResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				response.CacheHit = true
				span.SetAttributes(attribute.Bool("admin.cache_hit", true))
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read trend cache")
		}
	}

	logs, err := s.logRepo.ListForStudent(ctx, studentID)
	if err != nil {
		span.RecordError(err)
		return dto.MoodTrendResponse{}, err
	}

	sort.SliceStable(logs, func(i, j int) bool {
		return logs[i].Timestamp.Before(logs[j].Timestamp)
	})

	response := dto.MoodTrendResponse{
		StudentID: studentID,
		Points:    make([]dto.TrendPoint, 0, len(logs)),
		Logs:      make([]dto.LogResponse, 0, len(logs)),
	}

	total := 0
	for _, log := range logs {
		response.Points = append(response.Points, dto.TrendPoint{
			Date: fmt.Sprintf("%d/%d", int(log.Timestamp.Month()), log.Timestamp.Day()),
			Mood: log.MoodScore,
		})
		total += log.MoodScore
	}
	// Raw stream reads newest-first.
	for i := len(logs) - 1; i >= 0; i-- {
		response.Logs = append(response.Logs, dto.NewLogResponse(logs[i]))
	}
	if len(logs) > 0 {
		response.AverageMood = float64(total) / float64(len(logs))
	}

	span.SetAttributes(attribute.Int("admin.log_count", len(logs)))

	if s.cache != nil {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store trend cache")
			}
		}
	}

	return response, nil
}

// Initialize writes the secrets singleton with the bootstrap defaults and
// seeds the probe subject as one batch. Intended for first-run setup; it is
// not guarded against concurrent admin sessions.
func (s *adminService) Initialize(ctx context.Context, actor ActivityActor) (dto.InitializeResponse, error) {
	config := models.SystemConfig{
		AdminPassword:  s.seed.AdminKey,
		UnlockPassword: s.seed.UnlockKey,
	}
	seed := models.Student{
		StudentID: s.seed.StudentID,
		Name:      s.seed.StudentName,
		Class:     s.seed.StudentClass,
		Active:    true,
	}

	if err := s.configRepo.Initialize(ctx, config, seed); err != nil {
		s.logger.Error().Err(err).Msg("initialization batch failed")
		return dto.InitializeResponse{}, err
	}

	s.roster.NotifyChanged(ctx)
	s.recordActivity(ctx, actor, "system.initialized", "system_config", models.SystemConfigKey, map[string]interface{}{
		"seed_student_id": seed.StudentID,
	})

	s.logger.Info().Str("seed_student_id", seed.StudentID).Msg("system initialized")

	return dto.InitializeResponse{
		ConfigKey:     models.SystemConfigKey,
		SeedStudentID: seed.StudentID,
	}, nil
}

func (s *adminService) trendCacheKey(studentID string) string {
	return "trend:" + studentID
}

func (s *adminService) invalidateTrendCache(ctx context.Context, studentID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, s.trendCacheKey(studentID)).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to invalidate trend cache")
	}
}

func (s *adminService) recordActivity(ctx context.Context, actor ActivityActor, action, entityType, entityID string, metadata map[string]interface{}) {
	if s.activity == nil {
		return
	}
	_, _ = s.activity.Record(ctx, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Metadata:   metadata,
	})
}
