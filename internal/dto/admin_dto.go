package dto

import (
	"time"

	"github.com/noah-isme/fcs-go-api/internal/models"
)

// UpsertStudentRequest creates or merges a subject profile. The identifier
// is the only precondition; the admin surface always re-activates the record
// and soft-deletion happens only via purge.
type UpsertStudentRequest struct {
	StudentID string `json:"student_id"`
	Name      string `json:"name"`
	Class     string `json:"class"`
}

// PurgeResponse reports the outcome of a best-effort cascade delete.
type PurgeResponse struct {
	StudentID   string `json:"student_id"`
	LogsDeleted int64  `json:"logs_deleted"`
}

// TrendPoint is one charted sample of the mood series.
type TrendPoint struct {
	Date string `json:"date"`
	Mood int    `json:"mood"`
}

// MoodTrendResponse aggregates a subject's historical mood data. Points are
// sorted ascending by timestamp; Logs carry the raw stream newest-first.
type MoodTrendResponse struct {
	StudentID   string        `json:"student_id"`
	Points      []TrendPoint  `json:"points"`
	Logs        []LogResponse `json:"logs"`
	AverageMood float64       `json:"average_mood"`
	CacheHit    bool          `json:"cache_hit,omitempty"`
}

// InitializeResponse reports the records written by the first-run setup.
type InitializeResponse struct {
	ConfigKey     string `json:"config_key"`
	SeedStudentID string `json:"seed_student_id"`
}

// ActivityResponse is the public view of one audit trail entry.
type ActivityResponse struct {
	ID         uint                   `json:"id"`
	ActorID    string                 `json:"actor_id"`
	ActorRole  string                 `json:"actor_role"`
	Action     string                 `json:"action"`
	EntityType string                 `json:"entity_type"`
	EntityID   string                 `json:"entity_id,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
}

// NewActivityResponse maps an activity log model to its response form.
func NewActivityResponse(entry models.ActivityLog) ActivityResponse {
	metadata := make(map[string]interface{}, len(entry.Metadata))
	for key, value := range entry.Metadata {
		metadata[key] = value
	}

	return ActivityResponse{
		ID:         entry.ID,
		ActorID:    entry.ActorID,
		ActorRole:  entry.ActorRole,
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Metadata:   metadata,
		CreatedAt:  entry.CreatedAt,
	}
}
