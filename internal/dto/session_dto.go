package dto

import "github.com/noah-isme/fcs-go-api/internal/session"

// SelectStudentRequest picks the subject for the next recording session.
type SelectStudentRequest struct {
	StudentID string `json:"student_id" validate:"required"`
}

// DraftUpdateRequest shallow-merges into the in-progress session draft.
type DraftUpdateRequest struct {
	MoodScore *int    `json:"mood_score" validate:"omitempty,min=1,max=10"`
	Content   *string `json:"content"`
}

// Patch converts the request into a session draft patch.
func (r DraftUpdateRequest) Patch() session.DraftPatch {
	return session.DraftPatch{MoodScore: r.MoodScore, Content: r.Content}
}

// CancelRequest aborts the in-progress session. Cancellation requires an
// explicit confirmation flag.
type CancelRequest struct {
	Confirm bool `json:"confirm"`
}

// SubmitResponse reports the persisted log and the resulting terminal state.
type SubmitResponse struct {
	LogID  string         `json:"log_id"`
	Status session.Status `json:"status"`
}
