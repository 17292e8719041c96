package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/fcs-go-api/internal/dto"
	"github.com/noah-isme/fcs-go-api/internal/models"
	"github.com/noah-isme/fcs-go-api/internal/observability"
	"github.com/noah-isme/fcs-go-api/internal/repository"
	"github.com/noah-isme/fcs-go-api/internal/session"
)

var (
	// ErrNoActiveSession indicates no operator is authenticated.
	ErrNoActiveSession = errors.New("no active session")
	// ErrNoStudentSelected indicates no subject is bound to the session.
	ErrNoStudentSelected = errors.New("no student selected")
	// ErrStudentUnavailable indicates the subject does not exist or has been
	// deactivated.
	ErrStudentUnavailable = errors.New("student unavailable")
	// ErrEmptyContent indicates submission was attempted with a blank note.
	ErrEmptyContent = errors.New("session content is empty")
	// ErrConfirmRequired indicates cancellation was requested without the
	// explicit confirmation flag.
	ErrConfirmRequired = errors.New("cancellation requires confirmation")
)

const progressTickInterval = 150 * time.Millisecond

// ProgressFunc receives synthetic upload percentages while a submission is
// pending. The values are a pacing placeholder, not a reflection of store
// state; only the final 100 means the write landed.
type ProgressFunc func(percent int)

// RecordingService drives the counseling session flow: subject selection,
// draft edits, submission and cancellation.
type RecordingService interface {
	Select(ctx context.Context, studentID string) (session.Snapshot, error)
	UpdateDraft(patch session.DraftPatch) session.Snapshot
	Submit(ctx context.Context, progress ProgressFunc) (dto.SubmitResponse, error)
	Cancel(confirm bool) (session.Snapshot, error)
}

type recordingService struct {
	logRepo     repository.CounselingLogRepository
	studentRepo repository.StudentRepository
	store       *session.Store
	sanitizer   *bluemonday.Policy
	tracer      trace.Tracer
	logger      zerolog.Logger
}

// NewRecordingService constructs the recording service.
func NewRecordingService(logRepo repository.CounselingLogRepository, studentRepo repository.StudentRepository, store *session.Store, logger zerolog.Logger) RecordingService {
	return &recordingService{
		logRepo:     logRepo,
		studentRepo: studentRepo,
		store:       store,
		sanitizer:   bluemonday.StrictPolicy(),
		tracer:      otel.Tracer("github.com/noah-isme/fcs-go-api/internal/service/recording"),
		logger:      logger.With().Str("component", "recording_service").Logger(),
	}
}

// Select binds an active subject to the session and moves the terminal to
// the recording screen.
func (s *recordingService) Select(ctx context.Context, studentID string) (session.Snapshot, error) {
	if s.store.Snapshot().Identity == nil {
		return session.Snapshot{}, ErrNoActiveSession
	}

	student, err := s.studentRepo.Get(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return session.Snapshot{}, ErrStudentUnavailable
		}
		return session.Snapshot{}, err
	}

	if !student.Active {
		return session.Snapshot{}, ErrStudentUnavailable
	}

	s.store.SetStudent(&student)
	s.store.SetStatus(session.StatusTerminal)

	return s.store.Snapshot(), nil
}

// UpdateDraft merges the patch into the current draft.
func (s *recordingService) UpdateDraft(patch session.DraftPatch) session.Snapshot {
	s.store.UpdateDraft(patch)
	return s.store.Snapshot()
}

// Submit persists the current draft as an immutable log and, on success,
// locks the terminal. The session epoch is captured before the write: if a
// logout or reset wins the race, the stale completion is dropped and the
// store left untouched. On failure the draft stays intact for retry.
func (s *recordingService) Submit(ctx context.Context, progress ProgressFunc) (dto.SubmitResponse, error) {
	ctx, span := s.tracer.Start(ctx, "recording.submit")
	defer span.End()

	snap := s.store.Snapshot()
	if snap.Identity == nil {
		return dto.SubmitResponse{}, ErrNoActiveSession
	}
	if snap.Student == nil {
		return dto.SubmitResponse{}, ErrNoStudentSelected
	}

	content := strings.TrimSpace(snap.Draft.Content)
	if content == "" {
		return dto.SubmitResponse{}, ErrEmptyContent
	}
	content = s.sanitizer.Sanitize(content)

	span.SetAttributes(
		attribute.String("recording.student_id", snap.Student.StudentID),
		attribute.Int("recording.mood_score", snap.Draft.MoodScore),
	)

	epoch := snap.Epoch

	done := make(chan struct{})
	var ticking sync.WaitGroup
	if progress != nil {
		ticking.Add(1)
		go func() {
			defer ticking.Done()
			ticker := time.NewTicker(progressTickInterval)
			defer ticker.Stop()
			percent := 0
			for {
				select {
				case <-done:
					return
				case <-ticker.C:
					percent += rand.IntN(20) + 1
					if percent > 95 {
						percent = 95
					}
					progress(percent)
				}
			}
		}()
	}

	log := models.CounselingLog{
		StudentID: snap.Student.StudentID,
		TeacherID: snap.Identity.ID,
		MoodScore: snap.Draft.MoodScore,
		Content:   content,
	}

	err := s.logRepo.Add(ctx, &log)
	close(done)
	ticking.Wait()

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "log_write_failed")
		s.logger.Error().Err(err).Str("student_id", log.StudentID).Msg("failed to persist counseling log")
		return dto.SubmitResponse{}, fmt.Errorf("failed to transmit session record: %w", err)
	}

	observability.Submissions().Inc()

	if s.store.Epoch() != epoch {
		// The session moved on while the write was in flight (logout, reset
		// or another lock cycle). The log is persisted but the terminal
		// state must not be touched by this stale completion.
		s.logger.Warn().Str("log_id", log.LogID).Msg("dropping stale submission completion")
		span.SetAttributes(attribute.Bool("recording.stale_completion", true))
		return dto.SubmitResponse{LogID: log.LogID, Status: s.store.Snapshot().Status}, nil
	}

	if progress != nil {
		progress(100)
	}

	s.store.Lock()
	observability.LockCycles().Inc()

	return dto.SubmitResponse{LogID: log.LogID, Status: session.StatusLocked}, nil
}

// Cancel discards the in-progress session after explicit confirmation.
func (s *recordingService) Cancel(confirm bool) (session.Snapshot, error) {
	if !confirm {
		return session.Snapshot{}, ErrConfirmRequired
	}

	s.store.ResetSession()

	return s.store.Snapshot(), nil
}
