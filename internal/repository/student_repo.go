package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/fcs-go-api/internal/models"
)

// StudentRepository provides access to subject profile records.
type StudentRepository interface {
	ListActive(ctx context.Context) ([]models.Student, error)
	Get(ctx context.Context, studentID string) (models.Student, error)
	Upsert(ctx context.Context, student models.Student) (models.Student, error)
	Delete(ctx context.Context, studentID string) error
}

type studentRepository struct {
	db *gorm.DB
}

// NewStudentRepository constructs a student repository.
func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{db: db}
}

func (r *studentRepository) ListActive(ctx context.Context) ([]models.Student, error) {
	var students []models.Student
	if err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("student_id ASC").
		Find(&students).Error; err != nil {
		return nil, err
	}

	return students, nil
}

func (r *studentRepository) Get(ctx context.Context, studentID string) (models.Student, error) {
	var student models.Student
	if err := r.db.WithContext(ctx).
		Where("student_id = ?", strings.TrimSpace(studentID)).
		First(&student).Error; err != nil {
		return models.Student{}, err
	}

	return student, nil
}

func (r *studentRepository) Upsert(ctx context.Context, student models.Student) (models.Student, error) {
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "student_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "class", "active", "updated_at"}),
		}).
		Create(&student).Error; err != nil {
		return models.Student{}, err
	}

	return r.Get(ctx, student.StudentID)
}

func (r *studentRepository) Delete(ctx context.Context, studentID string) error {
	result := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Delete(&models.Student{})
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}
