package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/noah-isme/fcs-go-api/internal/models"
)

// CounselingLogRepository persists submitted session records. Logs are
// append-only; the only delete path is the subject purge cascade.
type CounselingLogRepository interface {
	Add(ctx context.Context, log *models.CounselingLog) error
	ListForStudent(ctx context.Context, studentID string) ([]models.CounselingLog, error)
	DeleteForStudent(ctx context.Context, studentID string) (int64, error)
}

type counselingLogRepository struct {
	db *gorm.DB
}

// NewCounselingLogRepository constructs a counseling log repository.
func NewCounselingLogRepository(db *gorm.DB) CounselingLogRepository {
	return &counselingLogRepository{db: db}
}

// Add inserts the log. The store assigns the identifier and the timestamp;
// any caller-supplied values for either are ignored.
func (r *counselingLogRepository) Add(ctx context.Context, log *models.CounselingLog) error {
	log.LogID = uuid.NewString()
	log.Timestamp = time.Time{}

	return r.db.WithContext(ctx).Create(log).Error
}

// ListForStudent returns every log referencing the subject, filtered only;
// no ordering is requested from the store.
func (r *counselingLogRepository) ListForStudent(ctx context.Context, studentID string) ([]models.CounselingLog, error) {
	var logs []models.CounselingLog
	if err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Find(&logs).Error; err != nil {
		return nil, err
	}

	return logs, nil
}

func (r *counselingLogRepository) DeleteForStudent(ctx context.Context, studentID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Delete(&models.CounselingLog{})
	if result.Error != nil {
		return 0, result.Error
	}

	return result.RowsAffected, nil
}
