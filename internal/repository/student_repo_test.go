package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/fcs-go-api/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Student{}, &models.CounselingLog{}, &models.SystemConfig{}))
	return db
}

func TestStudentRepositoryUpsertMergesOnConflict(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStudentRepository(db)
	ctx := context.Background()

	created, err := repo.Upsert(ctx, models.Student{StudentID: "S-100", Name: "Ayu", Class: "XI-A", Active: true})
	require.NoError(t, err)
	require.Equal(t, "Ayu", created.Name)

	merged, err := repo.Upsert(ctx, models.Student{StudentID: "S-100", Name: "Ayu Lestari", Class: "XI-B", Active: true})
	require.NoError(t, err)
	require.Equal(t, "Ayu Lestari", merged.Name)
	require.Equal(t, "XI-B", merged.Class)

	var count int64
	require.NoError(t, db.Model(&models.Student{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestStudentRepositoryListActiveOrdersByID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStudentRepository(db)
	ctx := context.Background()

	for _, s := range []models.Student{
		{StudentID: "S-300", Name: "Citra", Active: true},
		{StudentID: "S-100", Name: "Ayu", Active: true},
		{StudentID: "S-200", Name: "Budi", Active: false},
	} {
		_, err := repo.Upsert(ctx, s)
		require.NoError(t, err)
	}

	students, err := repo.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, students, 2)
	require.Equal(t, "S-100", students[0].StudentID)
	require.Equal(t, "S-300", students[1].StudentID)
}

func TestStudentRepositoryPersistsInactiveFlag(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStudentRepository(db)
	ctx := context.Background()

	_, err := repo.Upsert(ctx, models.Student{StudentID: "S-100", Name: "Ayu", Active: false})
	require.NoError(t, err)

	stored, err := repo.Get(ctx, "S-100")
	require.NoError(t, err)
	require.False(t, stored.Active)

	students, err := repo.ListActive(ctx)
	require.NoError(t, err)
	require.Empty(t, students)
}

func TestStudentRepositoryDeleteMissingRecord(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStudentRepository(db)

	err := repo.Delete(context.Background(), "S-999")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestSystemConfigRepositoryGetDistinguishesAbsence(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSystemConfigRepository(db)
	ctx := context.Background()

	_, found, err := repo.Get(ctx)
	require.NoError(t, err)
	require.False(t, found)

	require.NoError(t, repo.Initialize(ctx,
		models.SystemConfig{AdminPassword: "admin", UnlockPassword: "unlock"},
		models.Student{StudentID: "SYS-001", Name: "System Probe", Class: "SYSTEM", Active: true},
	))

	config, found, err := repo.Get(ctx)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, models.SystemConfigKey, config.ConfigKey)
	require.Equal(t, "admin", config.AdminPassword)

	var seed models.Student
	require.NoError(t, db.Where("student_id = ?", "SYS-001").First(&seed).Error)
	require.True(t, seed.Active)
}

func TestCounselingLogRepositoryAssignsIdentifier(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCounselingLogRepository(db)
	ctx := context.Background()

	log := models.CounselingLog{LogID: "caller-supplied", StudentID: "S-100", TeacherID: "T-001", MoodScore: 7, Content: "note"}
	require.NoError(t, repo.Add(ctx, &log))
	require.NotEqual(t, "caller-supplied", log.LogID)
	require.NotEmpty(t, log.LogID)

	logs, err := repo.ListForStudent(ctx, "S-100")
	require.NoError(t, err)
	require.Len(t, logs, 1)
	require.False(t, logs[0].Timestamp.IsZero())

	deleted, err := repo.DeleteForStudent(ctx, "S-100")
	require.NoError(t, err)
	require.Equal(t, int64(1), deleted)
}
