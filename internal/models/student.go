package models

import "time"

// Student represents a counseling subject. The school-assigned identifier is
// the primary key; deactivated students are retained but never offered for
// session selection.
type Student struct {
	StudentID string    `gorm:"primaryKey;size:64" json:"student_id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Class     string    `gorm:"size:64" json:"class"`
	// No column default on purpose: gorm skips zero-valued fields that carry
	// one, which would turn every deactivated record back into an active one
	// at write time.
	Active    bool      `gorm:"not null" json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
