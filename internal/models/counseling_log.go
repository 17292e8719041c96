package models

import "time"

// CounselingLog is a submitted session record. Logs are immutable once
// written; the timestamp is assigned by the store at insert time, never by
// the submitting client.
type CounselingLog struct {
	LogID     string    `gorm:"primaryKey;size:64" json:"log_id"`
	StudentID string    `gorm:"size:64;not null;index" json:"student_id"`
	TeacherID string    `gorm:"size:64;not null" json:"teacher_id"`
	MoodScore int       `gorm:"not null" json:"mood_score"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Timestamp time.Time `gorm:"autoCreateTime" json:"timestamp"`
}
