package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/fcs-go-api/internal/models"
)

// SystemConfigRepository reads and initializes the configuration singleton.
// A missing record is a valid empty result, reported via the found flag and
// distinct from a store failure.
type SystemConfigRepository interface {
	Get(ctx context.Context) (models.SystemConfig, bool, error)
	Initialize(ctx context.Context, config models.SystemConfig, seed models.Student) error
}

type systemConfigRepository struct {
	db *gorm.DB
}

// NewSystemConfigRepository constructs a system config repository.
func NewSystemConfigRepository(db *gorm.DB) SystemConfigRepository {
	return &systemConfigRepository{db: db}
}

func (r *systemConfigRepository) Get(ctx context.Context) (models.SystemConfig, bool, error) {
	var config models.SystemConfig
	err := r.db.WithContext(ctx).
		Where("config_key = ?", models.SystemConfigKey).
		First(&config).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.SystemConfig{}, false, nil
		}
		return models.SystemConfig{}, false, err
	}

	return config, true, nil
}

// Initialize (re)creates the secrets singleton and seeds the probe subject
// as one transaction, mirroring the batched first-run write.
func (r *systemConfigRepository) Initialize(ctx context.Context, config models.SystemConfig, seed models.Student) error {
	config.ConfigKey = models.SystemConfigKey

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "config_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"admin_password", "unlock_password", "updated_at"}),
		}).Create(&config).Error; err != nil {
			return err
		}

		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "student_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "class", "active", "updated_at"}),
		}).Create(&seed).Error
	})
}
