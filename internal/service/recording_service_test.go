package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/fcs-go-api/internal/models"
	"github.com/noah-isme/fcs-go-api/internal/repository"
	"github.com/noah-isme/fcs-go-api/internal/session"
)

func intPointer(v int) *int          { return &v }
func stringPointer(v string) *string { return &v }

func newRecordingFixture(t *testing.T) (RecordingService, *session.Store, repository.CounselingLogRepository, repository.StudentRepository) {
	t.Helper()

	db := openTestDB(t)
	logRepo := repository.NewCounselingLogRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	store := session.NewStore(2*time.Second, nil, zerolog.Nop())

	svc := NewRecordingService(logRepo, studentRepo, store, zerolog.Nop())

	require.NoError(t, db.Create(&models.Student{StudentID: "S-100", Name: "Dewi", Class: "XI-A", Active: true}).Error)
	require.NoError(t, db.Create(&models.Student{StudentID: "S-200", Name: "Gone", Class: "XI-B", Active: false}).Error)

	return svc, store, logRepo, studentRepo
}

func TestRecordingSelectRequiresIdentity(t *testing.T) {
	svc, _, _, _ := newRecordingFixture(t)

	_, err := svc.Select(context.Background(), "S-100")
	require.ErrorIs(t, err, ErrNoActiveSession)
}

func TestRecordingSelectBindsActiveStudent(t *testing.T) {
	svc, store, _, _ := newRecordingFixture(t)
	store.SetIdentity(&session.Identity{ID: "T-001", Role: session.RoleTeacher})

	snap, err := svc.Select(context.Background(), "S-100")
	require.NoError(t, err)
	require.Equal(t, session.StatusTerminal, snap.Status)
	require.NotNil(t, snap.Student)
	require.Equal(t, "S-100", snap.Student.StudentID)
}

func TestRecordingSelectRejectsInactiveAndUnknown(t *testing.T) {
	svc, store, _, _ := newRecordingFixture(t)
	store.SetIdentity(&session.Identity{ID: "T-001", Role: session.RoleTeacher})

	_, err := svc.Select(context.Background(), "S-200")
	require.ErrorIs(t, err, ErrStudentUnavailable)

	_, err = svc.Select(context.Background(), "S-999")
	require.ErrorIs(t, err, ErrStudentUnavailable)
}

func TestRecordingSubmitPersistsAndLocks(t *testing.T) {
	svc, store, logRepo, _ := newRecordingFixture(t)
	store.SetIdentity(&session.Identity{ID: "T-001", Role: session.RoleTeacher})

	_, err := svc.Select(context.Background(), "S-100")
	require.NoError(t, err)

	svc.UpdateDraft(session.DraftPatch{MoodScore: intPointer(7), Content: stringPointer("  productive session  ")})

	var percents []int
	result, err := svc.Submit(context.Background(), func(percent int) {
		percents = append(percents, percent)
	})
	require.NoError(t, err)
	require.NotEmpty(t, result.LogID)
	require.Equal(t, session.StatusLocked, result.Status)
	require.Equal(t, 100, percents[len(percents)-1])

	snap := store.Snapshot()
	require.True(t, snap.Locked)
	require.Nil(t, snap.Student)
	require.Equal(t, session.DefaultMoodScore, snap.Draft.MoodScore)
	require.Empty(t, snap.Draft.Content)

	logs, err := logRepo.ListForStudent(context.Background(), "S-100")
	require.NoError(t, err)
	require.Len(t, logs, 1)
	require.Equal(t, "T-001", logs[0].TeacherID)
	require.Equal(t, 7, logs[0].MoodScore)
	require.Equal(t, "productive session", logs[0].Content)
	require.False(t, logs[0].Timestamp.IsZero())
}

func TestRecordingSubmitRejectsBlankContent(t *testing.T) {
	svc, store, logRepo, _ := newRecordingFixture(t)
	store.SetIdentity(&session.Identity{ID: "T-001", Role: session.RoleTeacher})

	_, err := svc.Select(context.Background(), "S-100")
	require.NoError(t, err)

	svc.UpdateDraft(session.DraftPatch{Content: stringPointer("   \n\t ")})

	_, err = svc.Submit(context.Background(), nil)
	require.ErrorIs(t, err, ErrEmptyContent)

	logs, err := logRepo.ListForStudent(context.Background(), "S-100")
	require.NoError(t, err)
	require.Empty(t, logs)
}

func TestRecordingSubmitRequiresStudent(t *testing.T) {
	svc, store, _, _ := newRecordingFixture(t)
	store.SetIdentity(&session.Identity{ID: "T-001", Role: session.RoleTeacher})
	store.SetStatus(session.StatusStudentSelect)

	svc.UpdateDraft(session.DraftPatch{Content: stringPointer("orphan note")})

	_, err := svc.Submit(context.Background(), nil)
	require.ErrorIs(t, err, ErrNoStudentSelected)
}

type failingLogRepo struct {
	repository.CounselingLogRepository
}

func (failingLogRepo) Add(context.Context, *models.CounselingLog) error {
	return errors.New("disk full")
}

func TestRecordingSubmitFailurePreservesDraft(t *testing.T) {
	db := openTestDB(t)
	studentRepo := repository.NewStudentRepository(db)
	store := session.NewStore(2*time.Second, nil, zerolog.Nop())
	svc := NewRecordingService(failingLogRepo{}, studentRepo, store, zerolog.Nop())

	require.NoError(t, db.Create(&models.Student{StudentID: "S-100", Name: "Dewi", Active: true}).Error)

	store.SetIdentity(&session.Identity{ID: "T-001", Role: session.RoleTeacher})
	_, err := svc.Select(context.Background(), "S-100")
	require.NoError(t, err)

	svc.UpdateDraft(session.DraftPatch{MoodScore: intPointer(4), Content: stringPointer("keep me")})

	_, err = svc.Submit(context.Background(), nil)
	require.Error(t, err)

	snap := store.Snapshot()
	require.False(t, snap.Locked)
	require.Equal(t, session.StatusTerminal, snap.Status)
	require.Equal(t, 4, snap.Draft.MoodScore)
	require.Equal(t, "keep me", snap.Draft.Content)
}

type blockingLogRepo struct {
	repository.CounselingLogRepository
	inner   repository.CounselingLogRepository
	started chan struct{}
	release chan struct{}
}

func (r *blockingLogRepo) Add(ctx context.Context, log *models.CounselingLog) error {
	close(r.started)
	<-r.release
	return r.inner.Add(ctx, log)
}

func TestRecordingSubmitDropsStaleCompletion(t *testing.T) {
	db := openTestDB(t)
	logRepo := repository.NewCounselingLogRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	store := session.NewStore(2*time.Second, nil, zerolog.Nop())

	blocking := &blockingLogRepo{
		inner:   logRepo,
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	svc := NewRecordingService(blocking, studentRepo, store, zerolog.Nop())

	require.NoError(t, db.Create(&models.Student{StudentID: "S-100", Name: "Dewi", Active: true}).Error)

	store.SetIdentity(&session.Identity{ID: "T-001", Role: session.RoleTeacher})
	_, err := svc.Select(context.Background(), "S-100")
	require.NoError(t, err)
	svc.UpdateDraft(session.DraftPatch{Content: stringPointer("in flight")})

	results := make(chan error, 1)
	go func() {
		_, err := svc.Submit(context.Background(), nil)
		results <- err
	}()

	<-blocking.started
	store.Logout()
	close(blocking.release)

	require.NoError(t, <-results)

	// The write landed but the stale completion must not relock a terminal
	// that has been logged out.
	snap := store.Snapshot()
	require.Equal(t, session.StatusLogin, snap.Status)
	require.False(t, snap.Locked)

	logs, err := logRepo.ListForStudent(context.Background(), "S-100")
	require.NoError(t, err)
	require.Len(t, logs, 1)
}

func TestRecordingCancelRequiresConfirmation(t *testing.T) {
	svc, store, _, _ := newRecordingFixture(t)
	store.SetIdentity(&session.Identity{ID: "T-001", Role: session.RoleTeacher})

	_, err := svc.Select(context.Background(), "S-100")
	require.NoError(t, err)
	svc.UpdateDraft(session.DraftPatch{Content: stringPointer("half-written")})

	_, err = svc.Cancel(false)
	require.ErrorIs(t, err, ErrConfirmRequired)
	require.Equal(t, "half-written", store.Snapshot().Draft.Content)

	snap, err := svc.Cancel(true)
	require.NoError(t, err)
	require.Equal(t, session.StatusStudentSelect, snap.Status)
	require.Nil(t, snap.Student)
	require.Empty(t, snap.Draft.Content)
}
