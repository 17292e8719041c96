package dto

import (
	"time"

	"github.com/noah-isme/fcs-go-api/internal/models"
)

// StudentResponse is the public view of a counseling subject.
type StudentResponse struct {
	StudentID string `json:"student_id"`
	Name      string `json:"name"`
	Class     string `json:"class"`
	Active    bool   `json:"active"`
}

// NewStudentResponse maps a student model to its response form.
func NewStudentResponse(student models.Student) StudentResponse {
	return StudentResponse{
		StudentID: student.StudentID,
		Name:      student.Name,
		Class:     student.Class,
		Active:    student.Active,
	}
}

// NewStudentResponses maps a roster snapshot.
func NewStudentResponses(students []models.Student) []StudentResponse {
	responses := make([]StudentResponse, 0, len(students))
	for _, student := range students {
		responses = append(responses, NewStudentResponse(student))
	}
	return responses
}

// LogResponse is the public view of a submitted counseling log.
type LogResponse struct {
	LogID     string    `json:"log_id"`
	StudentID string    `json:"student_id"`
	TeacherID string    `json:"teacher_id"`
	MoodScore int       `json:"mood_score"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// NewLogResponse maps a counseling log model to its response form.
func NewLogResponse(log models.CounselingLog) LogResponse {
	return LogResponse{
		LogID:     log.LogID,
		StudentID: log.StudentID,
		TeacherID: log.TeacherID,
		MoodScore: log.MoodScore,
		Content:   log.Content,
		Timestamp: log.Timestamp,
	}
}
